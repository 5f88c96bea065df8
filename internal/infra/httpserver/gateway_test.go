package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pactguard/pactguard/internal/application/analysis"
	"github.com/pactguard/pactguard/internal/application/gateway"
	"github.com/pactguard/pactguard/internal/infra/ai/local"
	"github.com/pactguard/pactguard/internal/infra/backend"
	"github.com/pactguard/pactguard/internal/infra/parser"
	"github.com/pactguard/pactguard/internal/infra/session"
)

// newStack runs the analysis API behind an httptest server and returns a
// gateway pointing at it plus a hit counter.
func newStack(t *testing.T, timeout time.Duration) (http.Handler, *int64) {
	t.Helper()
	var hits int64
	api := newAPI(t, local.Fallback{}, "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		api.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return newGatewayFor(t, srv.URL, timeout), &hits
}

func newGatewayFor(t *testing.T, url string, timeout time.Duration) http.Handler {
	t.Helper()
	return newKeyedGateway(t, url, "", timeout)
}

func newKeyedGateway(t *testing.T, url, apiKey string, timeout time.Duration) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return NewGatewayRouter(GatewayDeps{
		Gateway: &gateway.Service{
			Backend:  backend.NewClient(url, apiKey, timeout),
			Sessions: session.NewMemoryStore(16, time.Hour),
			Log:      logger,
		},
		Log:         logger,
		CookieName:  "pactguard_session",
		SessionTTL:  time.Hour,
		StorageMode: "local",
	})
}

func TestGatewayLegacyFormat(t *testing.T) {
	gw, _ := newStack(t, 5*time.Second)
	rec := postJSON(gw, "/api/analyze?format=legacy",
		`{"text":"This agreement disclaims ALL warranties... extremely high risk to customer"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var legacy struct {
		Summary struct {
			DocumentType     string   `json:"documentType"`
			OverallRiskLevel string   `json:"overallRiskLevel"`
			KeyConcerns      []string `json:"keyConcerns"`
		} `json:"summary"`
		RedFlags []struct {
			Severity string `json:"severity"`
		} `json:"redFlags"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&legacy))
	assert.Equal(t, "High", legacy.Summary.OverallRiskLevel)
	assert.NotEmpty(t, legacy.Summary.KeyConcerns)
	require.NotEmpty(t, legacy.RedFlags)
	for _, f := range legacy.RedFlags {
		assert.Equal(t, "High", f.Severity)
	}
}

func TestGatewayRejectsBadFormatBeforeForwarding(t *testing.T) {
	gw, hits := newStack(t, 5*time.Second)
	rec := postJSON(gw, "/api/analyze?format=xml", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, atomic.LoadInt64(hits))
}

func TestGatewayUploadAllowList(t *testing.T) {
	gw, hits := newStack(t, 5*time.Second)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, multipartUpload(t, "/api/analyze-file", "payload.exe", []byte("MZ")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, atomic.LoadInt64(hits))

	rec = httptest.NewRecorder()
	gw.ServeHTTP(rec, multipartUpload(t, "/api/analyze-file", "nda.txt", []byte("Standard confidentiality terms.")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), atomic.LoadInt64(hits))
}

func TestGatewayLatestPerSession(t *testing.T) {
	gw, _ := newStack(t, 5*time.Second)

	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postJSON(gw, "/api/analyze", `{"text":"High risk termination clause."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	var first struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))

	req := httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	gw.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "local", rec.Header().Get("X-Storage-Mode"))
	var latest struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&latest))
	assert.Equal(t, first.ID, latest.ID)

	// a different browser sees nothing
	rec = httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGatewayPropagatesBackendStatus(t *testing.T) {
	gw, _ := newStack(t, 5*time.Second)
	rec := postJSON(gw, "/api/send-email", `{"recipient_email":"legal@example.com","analysis_text":"High risk"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Email service is temporarily unavailable.", errorOf(t, rec))
}

func TestGatewayTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	gw := newGatewayFor(t, slow.URL, 50*time.Millisecond)
	rec := postJSON(gw, "/api/analyze", `{"text":"contract"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "Analysis service timed out", errorOf(t, rec))
}

func TestGatewayUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	gw := newGatewayFor(t, url, time.Second)
	rec := postJSON(gw, "/api/analyze-drive-file", `{"file_id":"abc"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), strings.TrimPrefix(url, "http://"))

	rec = httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestGatewayAuthenticatesToKeyedAPI(t *testing.T) {
	api := httptest.NewServer(newAPI(t, local.Fallback{}, "s3cret"))
	defer api.Close()

	rec := postJSON(newKeyedGateway(t, api.URL, "", time.Second), "/api/analyze", `{"text":"High risk termination clause."}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(newKeyedGateway(t, api.URL, "s3cret", time.Second), "/api/analyze", `{"text":"High risk termination clause."}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAPIRateLimitIsPerGatewayUser(t *testing.T) {
	logger, _ := test.NewNullLogger()
	api := httptest.NewServer(NewRouter(Deps{
		Analysis:          &analysis.Service{AI: local.Fallback{}, Fallback: local.Fallback{}, Parser: parser.New(), Log: logger},
		Log:               logger,
		APIKey:            "s3cret",
		RequestsPerMinute: 1,
	}))
	defer api.Close()
	gw := newKeyedGateway(t, api.URL, "s3cret", time.Second)

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"text":"Standard terms."}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		gw.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send("203.0.113.1:4000"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2:4000"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1:4001"))
}
