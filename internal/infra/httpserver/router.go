package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/pactguard/pactguard/internal/application/analysis"
	appnotify "github.com/pactguard/pactguard/internal/application/notify"
	"github.com/pactguard/pactguard/internal/domain/report"
	"github.com/pactguard/pactguard/internal/domain/usage"
	"github.com/pactguard/pactguard/internal/middleware"
)

const Version = "2.0.0"

// Deps for the analysis API router. Notify may have a nil Mailer.
type Deps struct {
	Analysis *analysis.Service
	Notify   *appnotify.Service
	Metrics  *middleware.Metrics
	Log      logrus.FieldLogger

	APIKey            string
	CORSOrigins       []string
	RequestsPerMinute int
	// Checkers must pass for /health to answer 200.
	Checkers map[string]middleware.HealthChecker
}

type Router struct {
	analysis *analysis.Service
	notify   *appnotify.Service
	log      logrus.FieldLogger
}

// openPaths skip auth and rate limiting.
var openPaths = []string{"/", "/health", "/metrics", "/demo-status"}

func NewRouter(d Deps) http.Handler {
	r := &Router{analysis: d.Analysis, notify: d.Notify, log: d.Log}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	if r.notify == nil {
		r.notify = &appnotify.Service{Log: r.log}
	}
	if d.Metrics == nil {
		d.Metrics = middleware.NewMetrics()
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware(r.log))
	mux.Use(d.Metrics.Middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "Authorization"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(d.APIKey, openPaths...))
	mux.Use(middleware.RateLimitMiddleware(d.RequestsPerMinute, openPaths...))

	mux.Get("/", r.wrap(r.handleRoot))
	mux.Get("/health", middleware.HealthHandler(r.log, "pactguard-api", d.Checkers, map[string]middleware.HealthChecker{
		"collaborator": middleware.CheckFunc(r.collaboratorCheck),
	}))
	mux.Get("/demo-status", r.wrap(r.handleDemoStatus))
	mux.Get("/metrics", d.Metrics.Handler)
	mux.Get("/usage", r.wrap(r.handleUsage))

	mux.Post("/analyze", r.wrap(r.handleAnalyze))
	mux.Post("/analyze-file", r.wrap(r.handleAnalyzeFile))
	mux.Post("/analyze-drive-file", r.wrap(r.handleAnalyzeDrive))
	mux.Post("/send-email", r.wrap(r.handleSendEmail))

	return mux
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc { return wrap(r.log, h) }

// collaboratorCheck reports an open circuit breaker.
func (r *Router) collaboratorCheck(context.Context) error {
	if st := r.analysis.Status(); st.BreakerState == "open" {
		return fmt.Errorf("%s circuit breaker is open, using local fallback", st.Collaborator)
	}
	return nil
}

// GET /
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) error {
	st := r.analysis.Status()
	integration := "unavailable"
	if st.External {
		integration = "available"
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"service":      "PactGuard API",
		"version":      Version,
		"status":       "running",
		"integration":  integration,
		"llm_provider": st.Collaborator,
	})
}

// GET /demo-status
func (r *Router) handleDemoStatus(w http.ResponseWriter, req *http.Request) error {
	st := r.analysis.Status()
	return writeJSON(w, http.StatusOK, map[string]any{
		"collaborator_initialized": st.External,
		"collaborator":             st,
		"email_configured":         r.notify != nil && r.notify.Mailer != nil,
		"demo_ready":               true,
	})
}

// GET /usage?page=&page_size=&source=&status=
func (r *Router) handleUsage(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	src, err := middleware.ValidateSource(q.Get("source"))
	if err != nil {
		return validation("source", err)
	}
	page, size := middleware.ParsePage(q.Get("page"), q.Get("page_size"))
	res, err := r.analysis.ListRuns(req.Context(), page, size, usageFilter(src, q.Get("status")))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// POST /analyze
// Body: {"text": "<document text>"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	rep, err := r.analysis.AnalyzeText(req.Context(), middleware.SanitizeText(body.Text))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// POST /analyze-file (multipart, field "file")
func (r *Router) handleAnalyzeFile(w http.ResponseWriter, req *http.Request) error {
	name, size, data, err := readUpload(w, req)
	if err != nil {
		return err
	}
	rep, err := r.analysis.AnalyzeUpload(req.Context(), analysis.Upload{Name: name, Size: size, Data: data})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// POST /analyze-drive-file
// Body: {"file_id": "<drive id or object key>"}
func (r *Router) handleAnalyzeDrive(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		FileID string `json:"file_id"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	if body.FileID != "" {
		if err := middleware.ValidateFileID(body.FileID); err != nil {
			return validation("file_id", err)
		}
	}
	rep, err := r.analysis.AnalyzeDriveFile(req.Context(), body.FileID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// POST /send-email
// Body: {"recipient_email": "...", "analysis_text": "...", "subject": "..."}
func (r *Router) handleSendEmail(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		RecipientEmail string `json:"recipient_email"`
		AnalysisText   string `json:"analysis_text"`
		Subject        string `json:"subject"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	res, err := r.notify.Send(req.Context(), appnotify.SendCommand{
		Recipient:    body.RecipientEmail,
		AnalysisText: body.AnalysisText,
		Subject:      body.Subject,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

func validation(field string, err error) error {
	return report.NewValidationError(field, err.Error())
}

func usageFilter(src usage.Source, status string) usage.Filter {
	return usage.Filter{Source: src, Status: status}
}
