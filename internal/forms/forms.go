// Package forms runs the client-side field checks that happen before any
// network call.
package forms

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/lucaspires-source/authdash/internal/apperr"
	"github.com/lucaspires-source/authdash/internal/directory"
)

const MinPasswordLength = 6

// emailShape accepts anything shaped like something@something.something.
var emailShape = regexp.MustCompile(`\S+@\S+\.\S+`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	return v
}

// SignIn is the login form.
type SignIn struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

func (f SignIn) Validate() error {
	if err := validate.Struct(f); err != nil {
		return apperr.Validation("Please fill in all fields")
	}
	return nil
}

// SignUp is the registration form.
type SignUp struct {
	FirstName       string `validate:"required"`
	LastName        string `validate:"required"`
	Email           string `validate:"required,emailshape"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// signUpRules lists failing tags in the order they are reported; only the
// first applicable message is shown.
var signUpRules = []struct {
	tag string
	msg string
}{
	{"required", "All fields are required"},
	{"min", "Password must be at least 6 characters"},
	{"eqfield", "Passwords do not match"},
	{"emailshape", "Invalid email format"},
}

func (f SignUp) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("All fields are required")
	}
	failed := map[string]bool{}
	for _, fe := range verrs {
		failed[fe.Tag()] = true
	}
	for _, r := range signUpRules {
		if failed[r.tag] {
			return apperr.Validation(r.msg)
		}
	}
	return apperr.Validation(verrs[0].Error())
}

// FieldErrors maps a form field (first_name, last_name, email) to its message.
type FieldErrors map[string]string

type userForm struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Email     string `validate:"required,emailshape"`
}

var userFieldMessages = map[string]map[string]string{
	"FirstName": {"required": "First name is required"},
	"LastName":  {"required": "Last name is required"},
	"Email":     {"required": "Email is required", "emailshape": "Invalid email format"},
}

var userFieldKeys = map[string]string{
	"FirstName": "first_name",
	"LastName":  "last_name",
	"Email":     "email",
}

// ValidateUser checks a create/edit dialog submission. It returns nil when
// every field is acceptable.
func ValidateUser(in directory.UserFormInput) FieldErrors {
	err := validate.Struct(userForm{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"email": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		out[userFieldKeys[fe.StructField()]] = userFieldMessages[fe.StructField()][fe.Tag()]
	}
	return out
}
