package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/pactguard/pactguard/internal/domain/document"
	"github.com/pactguard/pactguard/internal/domain/report"
)

const googleDocMime = "application/vnd.google-apps.document"

// DriveConfig credentials for the Drive source. A service-account file takes
// precedence over the API key; the API key only reaches public files.
type DriveConfig struct {
	APIKey          string
	CredentialsFile string
}

// DriveSource fetches files from Google Drive by file id.
type DriveSource struct {
	svc *drive.Service
}

// NewDrive builds the Drive client. extra options are appended last so
// callers can point it at another endpoint.
func NewDrive(ctx context.Context, cfg DriveConfig, extra ...option.ClientOption) (*DriveSource, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		jsonKey, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read drive credentials: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, drive.DriveReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
		}
		opts = append(opts, option.WithTokenSource(jwtConfig.TokenSource(ctx)))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case len(extra) == 0:
		return nil, errors.New("drive source needs an API key or a credentials file")
	}
	svc, err := drive.NewService(ctx, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	return &DriveSource{svc: svc}, nil
}

func (d *DriveSource) Name() string { return "Google Drive" }

// Fetch exports Google Docs as plain text and downloads anything else.
func (d *DriveSource) Fetch(ctx context.Context, fileID string) (*document.Document, error) {
	f, err := d.svc.Files.Get(fileID).Fields("id", "name", "mimeType", "size").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, driveErr("get file", err)
	}

	doc := &document.Document{ID: f.Id, Name: f.Name, MimeType: f.MimeType}
	if f.MimeType == googleDocMime {
		resp, err := d.svc.Files.Export(fileID, "text/plain").Context(ctx).Download()
		if err != nil {
			return nil, driveErr("export file", err)
		}
		data, err := readLimited(resp)
		if err != nil {
			return nil, err
		}
		doc.Text = strings.ToValidUTF8(string(data), "")
		return doc, nil
	}

	if err := document.ValidateUpload(f.Name, f.Size); err != nil {
		return nil, err
	}
	resp, err := d.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, driveErr("download file", err)
	}
	if doc.Data, err = readLimited(resp); err != nil {
		return nil, err
	}
	return doc, nil
}

func readLimited(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, document.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read drive content: %v: %w", err, document.ErrSourceUnavailable)
	}
	if len(data) > document.MaxUploadBytes {
		return nil, report.NewValidationError("file", "File size exceeds 10MB limit")
	}
	return data, nil
}

func driveErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, document.ErrNotFound)
	}
	return fmt.Errorf("%s: %v: %w", op, err, document.ErrSourceUnavailable)
}
