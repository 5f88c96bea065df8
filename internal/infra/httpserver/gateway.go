package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/pactguard/pactguard/internal/application/gateway"
	"github.com/pactguard/pactguard/internal/domain/report"
	"github.com/pactguard/pactguard/internal/infra/backend"
	"github.com/pactguard/pactguard/internal/middleware"
)

// GatewayDeps for the presentation proxy router.
type GatewayDeps struct {
	Gateway *gateway.Service
	Log     logrus.FieldLogger

	CORSOrigins       []string
	RequestsPerMinute int
	CookieName        string
	SecureCookie      bool
	SessionTTL        time.Duration
	StorageMode       string
}

type GatewayRouter struct {
	svc         *gateway.Service
	log         logrus.FieldLogger
	storageMode string
}

func NewGatewayRouter(d GatewayDeps) http.Handler {
	g := &GatewayRouter{svc: d.Gateway, log: d.Log, storageMode: d.StorageMode}
	if g.log == nil {
		g.log = logrus.StandardLogger()
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware(g.log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/health", middleware.HealthHandler(g.log, "pactguard-gateway", nil, map[string]middleware.HealthChecker{
			"backend": middleware.CheckFunc(func(ctx context.Context) error {
				_, err := g.svc.Health(ctx)
				return err
			}),
		}))

		rt.Group(func(rt chi.Router) {
			rt.Use(middleware.Session(d.CookieName, d.SecureCookie, d.SessionTTL))
			rt.Use(middleware.RateLimitMiddleware(d.RequestsPerMinute))
			rt.Use(forwardClient)

			rt.Post("/analyze", g.wrap(g.handleAnalyze))
			rt.Post("/analyze-file", g.wrap(g.handleAnalyzeFile))
			rt.Post("/analyze-drive-file", g.wrap(g.handleAnalyzeDrive))
			rt.Post("/send-email", g.wrap(g.handleSendEmail))
			rt.Get("/analysis/latest", g.wrap(g.handleLatest))
		})
	})

	return mux
}

func (g *GatewayRouter) wrap(h handlerFunc) http.HandlerFunc { return wrap(g.log, h) }

// forwardClient passes the caller's address on to cmd/api.
func forwardClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := backend.WithForwardedFor(r.Context(), middleware.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// wantLegacy reads ?format=; it is checked before anything is forwarded.
func wantLegacy(req *http.Request) (bool, error) {
	switch strings.ToLower(req.URL.Query().Get("format")) {
	case "", "full":
		return false, nil
	case "legacy":
		return true, nil
	default:
		return false, report.NewValidationError("format", "format must be \"full\" or \"legacy\"")
	}
}

func respondReport(w http.ResponseWriter, legacy bool, rep *report.AnalysisReport) error {
	if legacy {
		return writeJSON(w, http.StatusOK, report.ToLegacy(rep))
	}
	return writeJSON(w, http.StatusOK, rep)
}

// POST /api/analyze
func (g *GatewayRouter) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	legacy, err := wantLegacy(req)
	if err != nil {
		return err
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	rep, err := g.svc.Analyze(req.Context(), middleware.SessionID(req.Context()), body.Text)
	if err != nil {
		return err
	}
	return respondReport(w, legacy, rep)
}

// POST /api/analyze-file
func (g *GatewayRouter) handleAnalyzeFile(w http.ResponseWriter, req *http.Request) error {
	legacy, err := wantLegacy(req)
	if err != nil {
		return err
	}
	name, _, data, err := readUpload(w, req)
	if err != nil {
		return err
	}
	rep, err := g.svc.AnalyzeFile(req.Context(), middleware.SessionID(req.Context()), name, data)
	if err != nil {
		return err
	}
	return respondReport(w, legacy, rep)
}

// POST /api/analyze-drive-file
func (g *GatewayRouter) handleAnalyzeDrive(w http.ResponseWriter, req *http.Request) error {
	legacy, err := wantLegacy(req)
	if err != nil {
		return err
	}
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
	rep, err := g.svc.AnalyzeDriveFile(req.Context(), middleware.SessionID(req.Context()), body.FileID)
	if err != nil {
		return err
	}
	return respondReport(w, legacy, rep)
}

// POST /api/send-email
func (g *GatewayRouter) handleSendEmail(w http.ResponseWriter, req *http.Request) error {
	var body gateway.EmailRequest
	if err := decodeJSON(req, &body); err != nil {
		return err
	}
	out, err := g.svc.SendEmail(req.Context(), middleware.SessionID(req.Context()), body)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(out)
	return err
}

// GET /api/analysis/latest
func (g *GatewayRouter) handleLatest(w http.ResponseWriter, req *http.Request) error {
	legacy, err := wantLegacy(req)
	if err != nil {
		return err
	}
	rep, err := g.svc.Latest(req.Context(), middleware.SessionID(req.Context()))
	if err != nil {
		return err
	}
	w.Header().Set("X-Storage-Mode", g.storageMode)
	return respondReport(w, legacy, rep)
}
