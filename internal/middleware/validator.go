package middleware

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pactguard/pactguard/internal/domain/usage"
)

// Input validation and sanitization utilities

var fileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-./]{1,256}$`)

// ValidateFileID accepts Drive ids and object keys; no traversal, no
// absolute paths.
func ValidateFileID(id string) error {
	if id == "" {
		return fmt.Errorf("file_id cannot be empty")
	}
	if !fileIDPattern.MatchString(id) {
		return fmt.Errorf("invalid file_id format")
	}
	if strings.HasPrefix(id, "/") || strings.Contains(id, "..") {
		return fmt.Errorf("invalid file_id format")
	}
	return nil
}

// SanitizeText removes null bytes and control characters except tab and
// newlines.
func SanitizeText(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	result.Grow(len(input))
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ValidateSource checks a usage filter value; "" means any source.
func ValidateSource(s string) (usage.Source, error) {
	switch src := usage.Source(strings.ToLower(strings.TrimSpace(s))); src {
	case "", usage.SourceText, usage.SourceUpload, usage.SourceDrive:
		return src, nil
	default:
		return "", fmt.Errorf("invalid source: %s (allowed: text, upload, drive)", s)
	}
}

// ParsePage reads page and page_size, clamping them like the ledger does.
func ParsePage(page, size string) (int, int) {
	p, _ := strconv.Atoi(page)
	s, _ := strconv.Atoi(size)
	return usage.NormalizePage(p, s)
}
