package errors

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ValidateEmployeeID validates an employee identifier coming from a request
// path or query. Identifiers are opaque, so only safety rules apply:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators
//   - Maximum length of 256 characters
func ValidateEmployeeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "employee id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "employee id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "employee id contains invalid control characters")
		}
	}

	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidInput, "employee id cannot contain path separators")
	}

	return nil
}

// hexColorRegex matches #rgb and #rrggbb colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor validates a CSS hex color as used by node and header colors.
func ValidateColor(c string) error {
	if !hexColorRegex.MatchString(c) {
		return New(ErrCodeInvalidSettings, "invalid color: %q (expected #rgb or #rrggbb)", c)
	}
	return nil
}

// ValidateCollapseLevel validates the default collapse depth setting.
// Accepted values are "all" or a positive integer.
func ValidateCollapseLevel(level string) error {
	if level == "all" {
		return nil
	}
	n, err := strconv.Atoi(level)
	if err != nil || n < 1 {
		return New(ErrCodeInvalidSettings, "invalid collapse level: %q (expected \"all\" or a positive integer)", level)
	}
	return nil
}

// emailRegex is intentionally loose: one @, no spaces, a dot in the domain.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail validates an email address. An empty string is accepted and
// means "auto-detect" wherever a top user email is configured.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if !emailRegex.MatchString(email) {
		return New(ErrCodeInvalidInput, "invalid email address: %q", email)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
