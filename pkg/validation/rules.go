package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Payphone-Digital/learnpath/internal/constants"
	apperrors "github.com/Payphone-Digital/learnpath/internal/errors"
	"github.com/go-playground/validator/v10"
)

const (
	PasswordPolicyTag = "password_policy"
	PersonNameTag     = "person_name"
)

// New returns a validator that reports json field names and knows the
// password and person name rules.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation(PasswordPolicyTag, passwordPolicy)
	_ = v.RegisterValidation(PersonNameTag, personName)

	return v
}

// IsStrongPassword checks the registration password policy: length bounds,
// mixed case, a digit and no denylisted password.
func IsStrongPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	if n < constants.MinPasswordLength || n > constants.MaxPasswordLength {
		return false
	}

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return false
	}

	for _, common := range constants.CommonPasswords {
		if strings.EqualFold(password, common) {
			return false
		}
	}
	return true
}

// IsPersonName accepts letters of any script and spaces, 2 to 100 runes.
func IsPersonName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < constants.MinNameLength || n > constants.MaxNameLength {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' {
			return false
		}
	}
	return strings.TrimSpace(name) != ""
}

func passwordPolicy(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

func personName(fl validator.FieldLevel) bool {
	return IsPersonName(fl.Field().String())
}

// FieldErrors converts validator output to field errors with json paths such
// as "score.correct". Secret values are never echoed.
func FieldErrors(err error) []apperrors.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())

		msg := CustomMessage(path, fe.Tag())
		if msg == "" {
			msg = DefaultMessage(path, fe.Tag(), fe.Param())
		}

		fieldErr := apperrors.FieldError{Field: path, Message: msg}
		if !constants.RedactedFields[fe.Field()] {
			fieldErr.Value = fe.Value()
		}
		out = append(out, fieldErr)
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
