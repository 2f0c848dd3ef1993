package common

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return NewValidationError("email", "is required")
	}
	if !emailRegex.MatchString(email) {
		return NewValidationError("email", "invalid format")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 6 {
		return NewValidationError("password", "must be at least 6 characters")
	}
	if len(password) > 100 {
		return NewValidationError("password", "too long")
	}
	return nil
}

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "is required")
	}
	if len(name) > 100 {
		return NewValidationError("name", "must be at most 100 characters")
	}
	return nil
}
