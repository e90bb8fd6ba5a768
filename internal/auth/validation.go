package auth

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Credential limits. bcrypt ignores input past 72 bytes, so the byte length
// is capped as well as the character count.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
	MaxEmailLength    = 254
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type credentialsInput struct {
	Email    string `validate:"required,max=254,login_email"`
	Password string `validate:"min=8,max=72,bcrypt_len"`
}

type passwordInput struct {
	Password string `validate:"min=8,max=72,bcrypt_len"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("login_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("bcrypt_len", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordLength
	})
	return v
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}
