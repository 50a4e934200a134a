// Package forms validates the site's HTML forms. Validation only checks that
// required fields are present (and that signup passwords agree); it never
// performs the form's side effect.
package forms

import "strings"

// Errors maps a form field name to its inline message.
type Errors map[string]string

// Any reports whether at least one field failed validation.
func (e Errors) Any() bool { return len(e) > 0 }

// Get returns the message for field, or "".
func (e Errors) Get(field string) string { return e[field] }

// Add records a message for field, keeping the first one.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Field is a named form value with its human label.
type Field struct {
	Name  string
	Label string
	Value string
}

// Required returns an error for every field whose value is blank.
func Required(fields ...Field) Errors {
	errs := Errors{}
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			errs.Add(f.Name, f.Label+" is required")
		}
	}
	return errs
}

// Validator is implemented by every form type.
type Validator interface {
	Validate() Errors
}

// Submit validates v and calls fn only when there are no errors.
func Submit(v Validator, fn func() error) (Errors, error) {
	if errs := v.Validate(); errs.Any() {
		return errs, nil
	}
	return nil, fn()
}

// Login is the email sign-in form.
type Login struct {
	Email    string
	Password string
}

func (f Login) Validate() Errors {
	return Required(
		Field{"email", "Email", f.Email},
		Field{"password", "Password", f.Password},
	)
}

// OTPRequest asks for a passcode to be sent to a phone.
type OTPRequest struct {
	Phone string
}

func (f OTPRequest) Validate() Errors {
	return Required(Field{"phone", "Phone number", f.Phone})
}

// OTPVerify submits a received passcode.
type OTPVerify struct {
	Phone string
	Code  string
}

func (f OTPVerify) Validate() Errors {
	return Required(
		Field{"phone", "Phone number", f.Phone},
		Field{"otp", "OTP", f.Code},
	)
}

// Signup creates a learner account.
type Signup struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
}

// Roles offered on the signup form.
var Roles = []string{"Beginner", "Intermediate", "Advanced"}

func (f Signup) Validate() Errors {
	errs := Required(
		Field{"name", "Name", f.Name},
		Field{"email", "Email", f.Email},
		Field{"password", "Password", f.Password},
	)
	if f.Password != f.ConfirmPassword {
		errs.Add("confirm_password", "Passwords do not match")
	}
	return errs
}

// RoleOrDefault returns the chosen role, or the first role when the value is
// not one of Roles.
func (f Signup) RoleOrDefault() string {
	for _, r := range Roles {
		if r == f.Role {
			return r
		}
	}
	return Roles[0]
}

// Contact is the contact-us form.
type Contact struct {
	Name    string
	Email   string
	Subject string
	Message string
}

func (f Contact) Validate() Errors {
	return Required(
		Field{"name", "Name", f.Name},
		Field{"email", "Email", f.Email},
		Field{"subject", "Subject", f.Subject},
		Field{"message", "Message", f.Message},
	)
}
