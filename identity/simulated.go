package identity

import (
	"context"
	"net/url"
	"time"
)

// SimulatedCode is the code the simulated provider accepts.
const SimulatedCode = "simulated"

// Simulated is a demo provider that always signs in the same user after a
// fixed delay. It stands in for a real provider in development.
type Simulated struct {
	ProviderName string
	CallbackURL  string
	Delay        time.Duration
	User         User
}

// NewSimulated returns a simulated "google" provider that redirects straight
// back to callbackURL.
func NewSimulated(callbackURL string, delay time.Duration) *Simulated {
	return &Simulated{
		ProviderName: "google",
		CallbackURL:  callbackURL,
		Delay:        delay,
		User: User{
			Name:  "Demo Developer",
			Email: "demo@codebuddy.dev",
		},
	}
}

func (s *Simulated) Name() string { return s.ProviderName }

func (s *Simulated) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("state", state)
	q.Set("code", SimulatedCode)
	return s.CallbackURL + "?" + q.Encode()
}

func (s *Simulated) Exchange(ctx context.Context, code string) (User, error) {
	if code != SimulatedCode {
		return User{}, &Error{Provider: s.ProviderName, Message: "The sign-in link is invalid or has expired."}
	}
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return User{}, &Error{Provider: s.ProviderName, Message: "Sign-in was cancelled.", Err: ctx.Err()}
		case <-t.C:
		}
	}
	u := s.User
	u.Provider = s.ProviderName
	return u, nil
}
