package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pactguard/pactguard/internal/domain/document"
	"github.com/pactguard/pactguard/internal/domain/report"
)

// fakeS3 serves a single bucket with the given objects.
func fakeS3(t *testing.T, bucket string, objects map[string]string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(r.URL.Path, "/")
		if p == bucket || p == bucket+"/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		key := strings.TrimPrefix(p, bucket+"/")
		body, ok := objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestStoreFetch(t *testing.T) {
	endpoint := fakeS3(t, "docs", map[string]string{
		"tenants/acme/terms.txt": "You waive all liability.",
		"tenants/acme/tool.exe":  "MZ",
	})
	s, err := New(context.Background(), endpoint, "us-east-1", "docs", "key", "secret", false)
	require.NoError(t, err)
	assert.Equal(t, "minio", s.Name())

	doc, err := s.Fetch(context.Background(), "tenants/acme/terms.txt")
	require.NoError(t, err)
	assert.Equal(t, "terms.txt", doc.Name)
	assert.Equal(t, "You waive all liability.", string(doc.Data))

	_, err = s.Fetch(context.Background(), "tenants/acme/missing.txt")
	assert.True(t, errors.Is(err, document.ErrNotFound))

	_, err = s.Fetch(context.Background(), "tenants/acme/tool.exe")
	var verr *report.ValidationError
	assert.True(t, errors.As(err, &verr))
}
