package contextutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsValidUUID checks if a string is a valid UUID using go-playground/validator
func IsValidUUID(id string) bool {
	return validate.Var(id, "uuid") == nil
}

// IsValidLanguage checks that a language identifier is plausible: either a
// two-letter ISO 639-1 code or an English language name up to 50 characters.
func IsValidLanguage(lang string) bool {
	return validate.Var(lang, "min=1,max=50") == nil
}
