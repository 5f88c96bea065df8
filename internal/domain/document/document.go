package document

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pactguard/pactguard/internal/domain/report"
)

// MaxUploadBytes is the largest accepted upload (10 MiB).
const MaxUploadBytes = 10 << 20

// AllowedExtensions accepted for upload and drive files.
var AllowedExtensions = []string{".pdf", ".docx", ".txt"}

// ErrNotFound the source has no file with that id.
var ErrNotFound = errors.New("document not found")

// ErrSourceUnavailable no document source is configured or it failed.
var ErrSourceUnavailable = errors.New("document source unavailable")

// Document raw file as fetched from a source.
type Document struct {
	ID       string
	Name     string
	MimeType string
	Data     []byte
	// Text is set when the source already produced plain text
	// (e.g. a Google Doc exported as text/plain).
	Text string
}

// Source port for fetching a document by an opaque external id.
type Source interface {
	Fetch(ctx context.Context, fileID string) (*Document, error)
	Name() string
}

// Extension lower-cased extension including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// ValidateUpload checks the allow-list and size limit. It runs before any
// parsing or scoring.
func ValidateUpload(name string, size int64) error {
	if strings.TrimSpace(name) == "" {
		return report.NewValidationError("file", "No file uploaded")
	}
	ext := Extension(name)
	allowed := false
	for _, a := range AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return report.NewValidationError("file",
			fmt.Sprintf("Unsupported file type %q. Allowed types: %s", ext, strings.Join(AllowedExtensions, ", ")))
	}
	if size <= 0 {
		return report.NewValidationError("file", "File is empty")
	}
	if size > MaxUploadBytes {
		return report.NewValidationError("file", "File size exceeds 10MB limit")
	}
	return nil
}
