package catalog

import (
	"errors"
	"fmt"
	"slices"
	"unicode"
	"unicode/utf8"

	"bookshelf/internal/resource"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// NotNumeric rejects strings made only of digits.
func NotNumeric(msg string) resource.Validator {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return nil
			}
		}
		return errors.New(msg)
	}
}

// LengthBetween requires a string of min to max characters.
func LengthBetween(min, max int) resource.Validator {
	return func(value any) error {
		s, _ := value.(string)
		if n := utf8.RuneCountInString(s); n < min || n > max {
			return fmt.Errorf("Ensure this field has between %d and %d characters.", min, max)
		}
		return nil
	}
}

// OneOf restricts a string to an allowed set with a custom message.
func OneOf(msg string, allowed []string) resource.Validator {
	return func(value any) error {
		s, _ := value.(string)
		if !slices.Contains(allowed, s) {
			return errors.New(msg)
		}
		return nil
	}
}

// Email validates address syntax; blank values pass.
func Email(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if err := validate.Var(s, "email"); err != nil {
		return errors.New("Enter a valid email address.")
	}
	return nil
}
