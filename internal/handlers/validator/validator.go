package validator

import (
	"github.com/go-playground/validator/v10"
)

// ValidationRule installs one custom validation tag on the underlying
// validator.
type ValidationRule struct {
	Rule func(v *validator.Validate)
}

// Validator wraps the go-playground validator with the custom tags the
// extraction request body uses.
type Validator struct {
	validator *validator.Validate
}

func NewValidator(rules ...ValidationRule) *Validator {
	v := validator.New()
	for _, rule := range rules {
		rule.Rule(v)
	}
	return &Validator{validator: v}
}

func (v *Validator) Struct(s any) error {
	return v.validator.Struct(s)
}
