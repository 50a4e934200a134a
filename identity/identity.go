// Package identity abstracts third-party sign-in. A Provider is handed to the
// application explicitly; there is no package-level client.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// User is the identity returned by a successful sign-in.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	Provider  string `json:"provider"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DisplayName returns the best human label for the user.
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	case u.Phone != "":
		return u.Phone
	default:
		return "Developer"
	}
}

// Provider runs a redirect-based sign-in flow.
type Provider interface {
	// Name is the short identifier used in URLs, e.g. "google".
	Name() string
	// AuthCodeURL is where the browser is sent to start signing in.
	AuthCodeURL(state string) string
	// Exchange completes the flow with the code the provider sent back.
	Exchange(ctx context.Context, code string) (User, error)
}

// Error is a sign-in failure shown to the user as a single inline message.
type Error struct {
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s sign-in: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s sign-in: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Message extracts the user-facing text of a sign-in failure. Errors that are
// not *Error get a generic message.
func Message(err error) string {
	var ie *Error
	if errors.As(err, &ie) && ie.Message != "" {
		return ie.Message
	}
	return "Sign-in failed. Please try again."
}

// Registry holds the configured providers by name.
type Registry map[string]Provider

// NewRegistry indexes providers by their Name.
func NewRegistry(providers ...Provider) Registry {
	r := make(Registry, len(providers))
	for _, p := range providers {
		if p != nil {
			r[p.Name()] = p
		}
	}
	return r
}

// Get returns the provider registered under name.
func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}
