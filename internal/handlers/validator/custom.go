package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var formCodeValidRegex = regexp.MustCompile(`^[a-z0-9_]+$`)

func formCodeValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return formCodeValidRegex.MatchString(val)
}
