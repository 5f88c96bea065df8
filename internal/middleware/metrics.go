package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pactguard/pactguard/internal/domain/usage"
)

// Metrics stores application metrics. The zero value is not usable; call
// NewMetrics.
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AnalysesTotal      uint64
	AnalysesFallback   uint64
	StartTime          time.Time

	mu         sync.Mutex
	byStatus   map[string]uint64
	bySource   map[usage.Source]uint64
	analysisMS uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
		byStatus:  make(map[string]uint64),
		bySource:  make(map[usage.Source]uint64),
	}
}

// ObserveAnalysis counts one finished analysis run.
func (m *Metrics) ObserveAnalysis(src usage.Source, status string, took time.Duration) {
	atomic.AddUint64(&m.AnalysesTotal, 1)
	if status != "success" {
		atomic.AddUint64(&m.AnalysesFallback, 1)
	}
	atomic.AddUint64(&m.analysisMS, uint64(took.Milliseconds()))

	m.mu.Lock()
	m.byStatus[status]++
	m.bySource[src]++
	m.mu.Unlock()
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]interface{} {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.mu.Lock()
	byStatus := make(map[string]uint64, len(m.byStatus))
	for k, v := range m.byStatus {
		byStatus[k] = v
	}
	bySource := make(map[string]uint64, len(m.bySource))
	for k, v := range m.bySource {
		bySource[string(k)] = v
	}
	m.mu.Unlock()

	total := atomic.LoadUint64(&m.AnalysesTotal)
	var avg float64
	if total > 0 {
		avg = float64(atomic.LoadUint64(&m.analysisMS)) / float64(total)
	}

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&m.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&m.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&m.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&m.RequestsFailed),
		"analyses_total":       total,
		"analyses_degraded":    atomic.LoadUint64(&m.AnalysesFallback),
		"analyses_by_status":   byStatus,
		"analyses_by_source":   bySource,
		"analysis_avg_ms":      avg,
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&m.RequestsTotal, 1)
		atomic.AddUint64(&m.RequestsInProgress, 1)
		defer atomic.AddUint64(&m.RequestsInProgress, ^uint64(0))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			atomic.AddUint64(&m.RequestsSuccess, 1)
		} else {
			atomic.AddUint64(&m.RequestsFailed, 1)
		}
	})
}

// Handler returns metrics as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m.Snapshot())
}
