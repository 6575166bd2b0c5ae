package services

import (
	"fmt"
	"unicode"
)

// PasswordPolicy bounds password length in bytes and can require both letters
// and digits.
type PasswordPolicy struct {
	MinLength    int
	MaxLength    int
	RequireMixed bool
}

// Check returns a user-facing message for the first violated rule, or "".
func (p PasswordPolicy) Check(password string) string {
	if len(password) < p.MinLength {
		return fmt.Sprintf("Password must be at least %d characters", p.MinLength)
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		return fmt.Sprintf("Password must be at most %d characters", p.MaxLength)
	}
	if p.RequireMixed && !hasLetterAndDigit(password) {
		return "Password must contain letters and digits"
	}
	return ""
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
