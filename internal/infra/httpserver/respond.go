package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/pactguard/pactguard/internal/application/analysis"
	domai "github.com/pactguard/pactguard/internal/domain/ai"
	"github.com/pactguard/pactguard/internal/domain/document"
	"github.com/pactguard/pactguard/internal/domain/notify"
	"github.com/pactguard/pactguard/internal/domain/report"
	"github.com/pactguard/pactguard/internal/domain/session"
	"github.com/pactguard/pactguard/internal/infra/backend"
)

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps handler errors onto a status and the {"error": ...} envelope.
// Unknown errors are logged in full and answered with a generic message.
func wrap(log logrus.FieldLogger, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var verr *report.ValidationError
		var serr *backend.StatusError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.As(err, &serr):
			writeError(w, serr.Code, serr.Message)
		case errors.Is(err, document.ErrNotFound):
			writeError(w, http.StatusNotFound, "Document not found")
		case errors.Is(err, document.ErrSourceUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Document source is temporarily unavailable.")
		case errors.Is(err, notify.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "Email service is temporarily unavailable.")
		case errors.Is(err, analysis.ErrLedgerDisabled):
			writeError(w, http.StatusNotFound, "Usage ledger is not enabled")
		case errors.Is(err, session.ErrEmpty):
			writeError(w, http.StatusNotFound, "No analysis available for this session")
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "ai quota exceeded")
		case errors.Is(err, backend.ErrTimeout):
			log.WithError(err).WithField("path", req.URL.Path).Warn("backend timeout")
			writeError(w, http.StatusGatewayTimeout, "Analysis service timed out")
		case errors.Is(err, backend.ErrUnreachable):
			log.WithError(err).WithField("path", req.URL.Path).Error("backend unreachable")
			writeError(w, http.StatusBadGateway, "Analysis service is unreachable")
		case errors.Is(err, context.Canceled):
			log.WithField("path", req.URL.Path).Info("client went away")
		default:
			log.WithError(err).WithField("path", req.URL.Path).Error("request failed")
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	_ = writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON turns malformed bodies and wrong field types into validation
// errors so they answer 400.
func decodeJSON(req *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(req.Body, 12<<20))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return report.NewValidationError(typeErr.Field, fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
		}
		if errors.Is(err, io.EOF) {
			return report.NewValidationError("body", "Request body is required")
		}
		return report.NewValidationError("body", "Invalid JSON body")
	}
	return nil
}

// readUpload reads the single "file" field. Oversized bodies become the
// same validation error as an oversized file.
func readUpload(w http.ResponseWriter, req *http.Request) (name string, size int64, data []byte, err error) {
	req.Body = http.MaxBytesReader(w, req.Body, document.MaxUploadBytes+1<<20)
	if err := req.ParseMultipartForm(document.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", 0, nil, report.NewValidationError("file", "File size exceeds 10MB limit")
		}
		return "", 0, nil, report.NewValidationError("file", "No file uploaded")
	}
	f, hdr, err := req.FormFile("file")
	if err != nil {
		return "", 0, nil, report.NewValidationError("file", "No file uploaded")
	}
	defer f.Close()

	if err := document.ValidateUpload(hdr.Filename, hdr.Size); err != nil {
		return "", 0, nil, err
	}
	data, err = io.ReadAll(io.LimitReader(f, document.MaxUploadBytes+1))
	if err != nil {
		return "", 0, nil, fmt.Errorf("read upload: %w", err)
	}
	return hdr.Filename, hdr.Size, data, nil
}
