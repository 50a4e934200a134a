package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is the OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// OAuth2 signs users in with an OAuth2 authorization-code flow and reads the
// profile from an OpenID Connect userinfo endpoint.
type OAuth2 struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogle configures Google sign-in.
func NewGoogle(clientID, clientSecret, redirectURL string) *OAuth2 {
	return NewOAuth2("google", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}, GoogleUserInfoURL)
}

// NewOAuth2 builds a provider from an explicit config; tests point it at a
// local server.
func NewOAuth2(name string, cfg *oauth2.Config, userInfoURL string) *OAuth2 {
	return &OAuth2{name: name, config: cfg, userInfoURL: userInfoURL}
}

func (p *OAuth2) Name() string { return p.name }

func (p *OAuth2) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}

func (p *OAuth2) Exchange(ctx context.Context, code string) (User, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return User{}, &Error{Provider: p.name, Message: "Could not complete sign-in.", Err: err}
	}
	client := p.config.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return User{}, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return User{}, &Error{Provider: p.name, Message: "Could not load your profile.", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return User{}, &Error{Provider: p.name, Message: "Could not load your profile.", Err: fmt.Errorf("userinfo status %d", resp.StatusCode)}
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return User{}, &Error{Provider: p.name, Message: "Could not load your profile.", Err: err}
	}
	if info.Email == "" {
		return User{}, &Error{Provider: p.name, Message: "Your account has no email address."}
	}
	// Accounts are matched by email, so an unverified address must not sign in.
	if !info.EmailVerified {
		return User{}, &Error{Provider: p.name, Message: "Your email address is not verified."}
	}
	return User{
		ID:        info.Sub,
		Name:      info.Name,
		Email:     info.Email,
		Provider:  p.name,
		AvatarURL: info.Picture,
	}, nil
}
