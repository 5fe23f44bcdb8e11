package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveStage("validated", "ok", 5*time.Millisecond)
	m.IncFailure("original_stored", "storage")
	m.IncFailure("original_stored", "storage")
	m.IncThumbnailFallback()
	m.AddOrphans("published", 2)
	m.AddOrphans("deleted", 0)
	m.ObserveRequest(http.MethodGet, "/api/home", "200", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingestFailures.WithLabelValues("original_stored", "storage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.thumbnailFallbacks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.orphanObjects.WithLabelValues("published")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "promptreveal_ingest_failures_total")
	assert.Contains(t, string(body), `route="/api/home"`)
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStage("derived", "ok", time.Second)
		m.IncFailure("derived", "invalid_input")
		m.IncThumbnailFallback()
		m.AddOrphans("logged", 1)
		m.ObserveRequest(http.MethodPost, "/api/upload", "500", time.Second)
	})
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}
