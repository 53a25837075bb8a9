package utils

import (
	"fmt"
	"regexp"
	"strings"
)

const maxActorLength = 254

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	loginRegex   = regexp.MustCompile(`^[a-zA-Z0-9._\-]+$`)
	controlRegex = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateActor accepts an email address or a plain login
func ValidateActor(actor string) error {
	if actor == "" {
		return fmt.Errorf("actor is required")
	}
	if len(actor) > maxActorLength {
		return fmt.Errorf("actor exceeds %d characters", maxActorLength)
	}
	if strings.Contains(actor, "@") {
		return ValidateEmail(actor)
	}
	if !loginRegex.MatchString(actor) {
		return fmt.Errorf("invalid actor: %s", actor)
	}
	return nil
}

// SanitizeString removes control characters, keeping tabs and line breaks
func SanitizeString(s string) string {
	return controlRegex.ReplaceAllString(s, "")
}

// SanitizeFields applies SanitizeString to every value of fields
func SanitizeFields(fields map[string]string) map[string]string {
	if fields == nil {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = SanitizeString(v)
	}
	return out
}
