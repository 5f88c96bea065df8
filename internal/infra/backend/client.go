package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pactguard/pactguard/internal/application/gateway"
	"github.com/pactguard/pactguard/internal/domain/report"
)

var (
	// ErrTimeout the backend did not answer within the ceiling.
	ErrTimeout = errors.New("analysis backend timed out")
	// ErrUnreachable the backend could not be contacted at all.
	ErrUnreachable = errors.New("analysis backend unreachable")
)

// StatusError is a non-2xx answer from the backend. Message is the
// backend's own error text.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
}

const maxResponseBytes = 4 << 20

// Client talks to cmd/api.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

var _ gateway.Backend = (*Client)(nil)

// NewClient sends apiKey as X-API-Key on every call; empty sends none.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		http:    &http.Client{},
	}
}

type forwardedKey struct{}

// WithForwardedFor marks ctx with the end user's address. Calls made with it
// carry X-Forwarded-For so cmd/api can rate limit per user.
func WithForwardedFor(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, forwardedKey{}, ip)
}

// Analyze POST /analyze
func (c *Client) Analyze(ctx context.Context, text string) (*report.AnalysisReport, error) {
	body, _ := json.Marshal(map[string]string{"text": text})
	var out report.AnalysisReport
	if err := c.do(ctx, http.MethodPost, "/analyze", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeFile POST /analyze-file as multipart with a single "file" field.
func (c *Client) AnalyzeFile(ctx context.Context, name string, data []byte) (*report.AnalysisReport, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var out report.AnalysisReport
	if err := c.do(ctx, http.MethodPost, "/analyze-file", mw.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeDriveFile POST /analyze-drive-file
func (c *Client) AnalyzeDriveFile(ctx context.Context, fileID string) (*report.AnalysisReport, error) {
	body, _ := json.Marshal(map[string]string{"file_id": fileID})
	var out report.AnalysisReport
	if err := c.do(ctx, http.MethodPost, "/analyze-drive-file", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendEmail relays the backend envelope unchanged.
func (c *Client) SendEmail(ctx context.Context, req gateway.EmailRequest) (json.RawMessage, error) {
	body, _ := json.Marshal(req)
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/send-email", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health GET /health
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/health", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if ip, ok := ctx.Value(forwardedKey{}).(string); ok {
		req.Header.Set("X-Forwarded-For", ip)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classify(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, ErrTimeout)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%v: %w", err, ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%v: %w", err, ErrUnreachable)
}

// errorMessage reads {"error": ...} or {"detail": ...}; anything else
// falls back to the status text so raw bodies are never relayed.
func errorMessage(data []byte, code int) string {
	var env struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &env) == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Detail != "" {
			return env.Detail
		}
	}
	return http.StatusText(code)
}
