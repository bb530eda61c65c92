// Package validation checks original URLs and custom short codes before they reach storage.
package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// ShortCodeTag is the validator tag accepting [a-zA-Z0-9_-]+.
const ShortCodeTag = "shortcode"

var shortCodeRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validator wraps a validator.Validate with the short code rule registered.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator. It panics only if the short code rule cannot be registered,
// which happens on programmer error.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.RegisterValidation(ShortCodeTag, isShortCode); err != nil {
		panic(err)
	}

	return &Validator{validate: validate}
}

func isShortCode(fl validator.FieldLevel) bool {
	return shortCodeRe.MatchString(fl.Field().String())
}

// IsValidURL reports whether candidate parses as an absolute URL with a scheme.
// No network access is performed.
func (v *Validator) IsValidURL(candidate string) bool {
	return v.validate.Var(candidate, "required,url") == nil
}

// IsValidShortCode reports whether candidate is a non-empty string of ASCII letters,
// digits, underscores and hyphens.
func (v *Validator) IsValidShortCode(candidate string) bool {
	return v.validate.Var(candidate, "required,"+ShortCodeTag) == nil
}
