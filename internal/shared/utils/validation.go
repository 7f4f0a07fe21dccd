package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxBodySize    = 64 * 1024 // request bodies
	MaxCommandSize = 1024      // one terminal line
)

// String length limits
const (
	MaxIDLength      = 128
	MaxTitleLength   = 128
	MaxMessageLength = 1024
	MaxQueryLength   = 256
	MaxPathLength    = 1024
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// AppIDPattern matches registry application ids
	AppIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an opaque ID field such as a profile id
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateAppID validates an application id
func ValidateAppID(appID string) error {
	if err := ValidateString(appID, "app_id", 1, MaxIDLength, true); err != nil {
		return err
	}
	if !AppIDPattern.MatchString(appID) {
		return fmt.Errorf("app_id must be lowercase alphanumeric")
	}
	return nil
}

// ValidateCommand validates a terminal input line. Empty input is allowed.
func ValidateCommand(line string) error {
	if len(line) > MaxCommandSize {
		return fmt.Errorf("command exceeds %d bytes", MaxCommandSize)
	}
	return ValidateString(line, "command", 0, MaxCommandSize, false)
}

// ValidatePath validates a virtual filesystem path
func ValidatePath(path string) error {
	if err := ValidateString(path, "path", 1, MaxPathLength, true); err != nil {
		return err
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must be absolute")
	}
	return nil
}

// ValidateNotification validates the user-supplied parts of a notification
func ValidateNotification(title, message string) error {
	if err := ValidateString(title, "title", 1, MaxTitleLength, true); err != nil {
		return err
	}
	return ValidateString(message, "message", 0, MaxMessageLength, false)
}

// ValidateQuery validates a command palette search query
func ValidateQuery(q string) error {
	return ValidateString(q, "query", 0, MaxQueryLength, false)
}
