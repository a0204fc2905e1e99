package validation

import (
	"fmt"
	"regexp"
)

var (
	nicknameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	schoolRegex   = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ValidateNickname checks nickname length and allowed characters.
func ValidateNickname(nickname string) error {
	if len(nickname) < 2 {
		return fmt.Errorf("nickname must be at least 2 characters long")
	}
	if len(nickname) > 30 {
		return fmt.Errorf("nickname must be at most 30 characters long")
	}
	if !nicknameRegex.MatchString(nickname) {
		return fmt.Errorf("nickname can only contain letters, numbers, underscores and hyphens")
	}
	return nil
}

// ValidateEmail checks basic email format.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateSchool checks a school slug: lowercase letters, digits and hyphens.
func ValidateSchool(school string) error {
	if school == "" {
		return fmt.Errorf("school is required")
	}
	if len(school) > 50 {
		return fmt.Errorf("school must be at most 50 characters long")
	}
	if !schoolRegex.MatchString(school) {
		return fmt.Errorf("school can only contain lowercase letters, numbers and hyphens")
	}
	return nil
}
