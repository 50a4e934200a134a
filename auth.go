package codebuddy

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/codebuddy/forms"
	"github.com/eringen/codebuddy/identity"
	"github.com/eringen/codebuddy/passcode"
)

const (
	msgTooManyAttempts = "Too many sign-in attempts. Please wait a minute and try again."
	msgBadCredentials  = "Invalid email or password."
	msgBadState        = "The sign-in link is invalid or has expired."
	msgCancelled       = "Sign-in was cancelled."
	msgTooManyCodes    = "Too many codes requested. Please try again later."
)

// Passcode sends allowed per client IP, across all phone numbers.
const (
	otpSendsPerWindow = 5
	otpSendWindow     = 10 * time.Minute
)

func (a *App) providerNames() []string {
	names := make([]string, 0, len(a.Providers))
	for name := range a.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *App) loginPage(c echo.Context) LoginPage {
	return LoginPage{
		Page:      a.page(c, "Sign in", "Sign in to track your progress.", "login"),
		Providers: a.providerNames(),
		Next:      c.QueryParam("next"),
	}
}

func (a *App) signupPage(c echo.Context) SignupPage {
	return SignupPage{
		Page:      a.page(c, "Create account", "Join CodeBuddy and start earning XP.", "signup"),
		Roles:     forms.Roles,
		Providers: a.providerNames(),
	}
}

func (a *App) signIn(c echo.Context, u identity.User, next string) error {
	if err := setUserSession(c, u); err != nil {
		return err
	}
	a.loginLimiter.Reset(c.RealIP())
	a.Logger.Info("signed in", zap.String("user", u.ID), zap.String("provider", u.Provider))
	return c.Redirect(http.StatusSeeOther, safeNext(next))
}

func (a *App) handleLogin(c echo.Context) error {
	if CurrentUser(c) != nil {
		return c.Redirect(http.StatusSeeOther, safeNext(c.QueryParam("next")))
	}
	return Render(c, a.Views.Login(a.loginPage(c)))
}

func (a *App) handleLoginSubmit(c echo.Context) error {
	data := a.loginPage(c)
	data.Next = c.FormValue("next")
	data.Email = forms.Login{Email: c.FormValue("email"), Password: c.FormValue("password")}

	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		data.Error = msgTooManyAttempts
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Login(data))
	}

	var user identity.User
	errs, err := forms.Submit(data.Email, func() error {
		u, err := a.Store.Authenticate(c.Request().Context(), data.Email.Email, data.Email.Password)
		user = u
		return err
	})
	if errs.Any() {
		data.EmailErrors = errs
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Login(data))
	}
	if errors.Is(err, ErrInvalidCredentials) {
		a.loginLimiter.Record(ip)
		data.Email.Password = ""
		data.Error = msgBadCredentials
		return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(data))
	}
	if err != nil {
		return err
	}
	return a.signIn(c, user, data.Next)
}

func secondsCeil(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func (a *App) handleOTPSend(c echo.Context) error {
	data := a.loginPage(c)
	data.Next = c.FormValue("next")
	req := forms.OTPRequest{Phone: c.FormValue("phone")}
	data.Phone.Phone = req.Phone

	if errs := req.Validate(); errs.Any() {
		data.PhoneErrors = errs
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Login(data))
	}

	if !a.otpLimiter.Allow(c.RealIP()) {
		data.Error = msgTooManyCodes
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Login(data))
	}

	_, err := a.Passcodes.Send(c.Request().Context(), req.Phone)
	var cooldown *passcode.CooldownError
	switch {
	case errors.As(err, &cooldown):
		data.OTPSent = true
		data.ResendIn = secondsCeil(cooldown.Remaining)
		data.PhoneErrors = forms.Errors{}
		data.PhoneErrors.Add("phone", "Please wait before requesting another code.")
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Login(data))
	case err != nil:
		return err
	}
	data.OTPSent = true
	data.ResendIn = secondsCeil(a.Passcodes.Remaining(req.Phone))
	return Render(c, a.Views.Login(data))
}

func otpMessage(err error) string {
	switch {
	case errors.Is(err, passcode.ErrInvalidCode):
		return "Invalid code. Please try again."
	case errors.Is(err, passcode.ErrExpired):
		return "This code has expired. Request a new one."
	case errors.Is(err, passcode.ErrTooManyAttempts):
		return "Too many incorrect codes. Request a new one."
	default:
		return "Request a code first."
	}
}

func (a *App) handleOTPVerify(c echo.Context) error {
	data := a.loginPage(c)
	data.Next = c.FormValue("next")
	data.Phone = forms.OTPVerify{Phone: c.FormValue("phone"), Code: c.FormValue("otp")}
	data.OTPSent = true
	data.ResendIn = secondsCeil(a.Passcodes.Remaining(data.Phone.Phone))

	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		data.Error = msgTooManyAttempts
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Login(data))
	}

	var user identity.User
	errs, err := forms.Submit(data.Phone, func() error {
		if err := a.Passcodes.Verify(data.Phone.Phone, data.Phone.Code); err != nil {
			return err
		}
		u, err := a.Store.SignInPhone(c.Request().Context(), passcode.NormalizePhone(data.Phone.Phone))
		user = u
		return err
	})
	if errs.Any() {
		data.PhoneErrors = errs
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Login(data))
	}
	if err != nil {
		if !isPasscodeError(err) {
			return err
		}
		a.loginLimiter.Record(ip)
		data.Phone.Code = ""
		data.PhoneErrors = forms.Errors{}
		data.PhoneErrors.Add("otp", otpMessage(err))
		return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(data))
	}
	return a.signIn(c, user, data.Next)
}

func isPasscodeError(err error) bool {
	return errors.Is(err, passcode.ErrInvalidCode) ||
		errors.Is(err, passcode.ErrExpired) ||
		errors.Is(err, passcode.ErrTooManyAttempts) ||
		errors.Is(err, passcode.ErrNoPasscode)
}

func (a *App) handleSignup(c echo.Context) error {
	if CurrentUser(c) != nil {
		return c.Redirect(http.StatusSeeOther, "/dashboard/")
	}
	return Render(c, a.Views.Signup(a.signupPage(c)))
}

func (a *App) handleSignupSubmit(c echo.Context) error {
	data := a.signupPage(c)
	data.Form = forms.Signup{
		Name:            c.FormValue("name"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
		Role:            c.FormValue("role"),
	}

	var user identity.User
	errs, err := forms.Submit(data.Form, func() error {
		u, err := a.Store.CreateUser(c.Request().Context(), data.Form)
		user = u
		return err
	})
	if errors.Is(err, ErrEmailTaken) {
		errs = forms.Errors{}
		errs.Add("email", "An account with this email already exists")
	} else if err != nil {
		return err
	}
	if errs.Any() {
		data.Form.Password, data.Form.ConfirmPassword = "", ""
		data.Errors = errs
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Signup(data))
	}
	return a.signIn(c, user, "/dashboard/")
}

func (a *App) handleProviderStart(c echo.Context) error {
	p, ok := a.Providers.Get(c.Param("provider"))
	if !ok {
		return echo.ErrNotFound
	}
	state := uuid.NewString()
	if err := setSessionValue(c, "oauth_state", state); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, p.AuthCodeURL(state))
}

func (a *App) providerFailed(c echo.Context, msg string) error {
	data := a.loginPage(c)
	data.Error = msg
	return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(data))
}

func (a *App) handleProviderCallback(c echo.Context) error {
	p, ok := a.Providers.Get(c.Param("provider"))
	if !ok {
		return echo.ErrNotFound
	}
	want, err := popSessionValue(c, "oauth_state")
	if err != nil {
		return err
	}
	if c.QueryParam("error") != "" {
		return a.providerFailed(c, msgCancelled)
	}
	if want == "" || c.QueryParam("state") != want {
		return a.providerFailed(c, msgBadState)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()
	ext, err := p.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		a.Logger.Warn("provider sign-in failed", zap.String("provider", p.Name()), zap.Error(err))
		return a.providerFailed(c, identity.Message(err))
	}
	u, err := a.Store.SignInExternal(c.Request().Context(), ext)
	if err != nil {
		return err
	}
	return a.signIn(c, u, "/dashboard/")
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearUserSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
