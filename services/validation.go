package services

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func noPathSeparators(value interface{}) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, "/\\") || strings.Contains(s, "..") {
		return errors.New("must not contain path separators")
	}
	return nil
}

// validateDisplayName checks user-supplied folder/file display names before
// any store call.
func validateDisplayName(name string) error {
	return validation.Validate(strings.TrimSpace(name),
		validation.Required,
		validation.Length(1, 255),
		validation.By(noPathSeparators),
	)
}
