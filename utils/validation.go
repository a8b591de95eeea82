package utils

import (
	netmail "net/mail"
	"strings"
	"unicode/utf8"

	"todolist/models"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinPasswordLength = 6
	MaxTitleLength    = 255
)

// ValidateUsername returns the trimmed username.
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return "", models.Invalid("username", "must be between 3 and 20 characters")
	}
	return username, nil
}

// ValidateEmail returns the bare, lower-cased address.
func ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", models.Invalid("email", "must be a valid email address")
	}
	return strings.ToLower(addr.Address), nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return models.Invalid("password", "must be at least 6 characters long")
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return models.Invalid("password", "must be at most 72 bytes long")
	}
	return nil
}

// PasswordStrength grades a password by length only.
func PasswordStrength(password string) string {
	switch n := utf8.RuneCountInString(password); {
	case n > 9:
		return "Strong"
	case n > 5:
		return "Medium"
	default:
		return "Weak"
	}
}

// ValidateTitle returns the trimmed title.
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", models.Invalid("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", models.Invalid("title", "must be at most 255 characters")
	}
	return title, nil
}
