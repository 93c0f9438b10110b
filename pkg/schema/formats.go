package schema

import (
	"net/mail"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// FormatValidator checks a string field's `format` rule (§9 — an LLM
// node's declared output schema may tag a string property "email",
// "uri", "uuid", "date", or "datetime").
type FormatValidator func(value string) bool

// validateEmail delegates to net/mail's address parser rather than a
// hand-rolled pattern, so anything RFC 5322 actually allows (and
// disallows) is handled the same way the standard library handles it
// everywhere else in Go.
func validateEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

var allowedURISchemes = map[string]bool{
	"http": true, "https": true, "ftp": true, "ws": true, "wss": true,
}

// validateURI requires a parseable URL with an allow-listed scheme and a
// host, rather than a bare string-prefix check.
func validateURI(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return allowedURISchemes[u.Scheme] && u.Host != ""
}

// validateUUID delegates to google/uuid (already wired for file ids in
// pkg/filestore) instead of a second hand-rolled regex for the same
// shape.
func validateUUID(value string) bool {
	if value == "" {
		return false
	}
	_, err := uuid.Parse(value)
	return err == nil
}

// validateDate checks ISO 8601 calendar-date format (YYYY-MM-DD).
func validateDate(date string) bool {
	if date == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// validateDateTime checks ISO 8601 datetime format, Z or a numeric UTC
// offset (2025-01-09T10:30:00Z / 2025-01-09T10:30:00+00:00).
func validateDateTime(datetime string) bool {
	if datetime == "" {
		return false
	}
	_, err := time.Parse(time.RFC3339, datetime)
	return err == nil
}

// GetFormatValidator returns a format validator by name.
func GetFormatValidator(format string) (FormatValidator, bool) {
	validators := map[string]FormatValidator{
		"email":    validateEmail,
		"uri":      validateURI,
		"uuid":     validateUUID,
		"date":     validateDate,
		"datetime": validateDateTime,
	}

	validator, exists := validators[format]
	return validator, exists
}
