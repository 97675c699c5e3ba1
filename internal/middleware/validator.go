package middleware

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization utilities

const (
	maxFileNameLen  = 255
	maxQueryTextLen = 32 << 10
	maxReferences   = 256
)

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// SanitizeFileName strips directories and control characters from a client
// supplied file name. Extension case is preserved because classification is
// case-sensitive.
func SanitizeFileName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(SanitizeString(name))
	name = strings.NewReplacer("\n", "", "\t", "").Replace(name)

	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("file name is empty")
	}
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("file name is not valid utf-8")
	}
	if len(name) > maxFileNameLen {
		return "", fmt.Errorf("file name longer than %d bytes", maxFileNameLen)
	}
	return name, nil
}

// ValidateSimilarityInput checks a similarity request body.
func ValidateSimilarityInput(text string, references []string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text is required")
	}
	if len(text) > maxQueryTextLen {
		return fmt.Errorf("text longer than %d bytes", maxQueryTextLen)
	}
	if len(references) > maxReferences {
		return fmt.Errorf("at most %d references allowed", maxReferences)
	}
	for i, ref := range references {
		if strings.TrimSpace(ref) == "" {
			return fmt.Errorf("reference %d is empty", i)
		}
		if len(ref) > maxQueryTextLen {
			return fmt.Errorf("reference %d longer than %d bytes", i, maxQueryTextLen)
		}
	}
	return nil
}
