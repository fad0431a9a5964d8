package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTurn(t *testing.T) {
	m := getMetrics()
	before := testutil.ToFloat64(m.turnTotal.WithLabelValues("fake", "success"))

	RecordTurn("fake", 10*time.Millisecond, true)

	after := testutil.ToFloat64(m.turnTotal.WithLabelValues("fake", "success"))
	assert.Equal(t, before+1, after)
}

func TestRecordStoreErrors(t *testing.T) {
	m := getMetrics()
	before := testutil.ToFloat64(m.storeErrorsTotal.WithLabelValues("memory", "append"))

	RecordStoreAppend("memory", time.Millisecond, nil)
	RecordStoreAppend("memory", time.Millisecond, errors.New("boom"))

	after := testutil.ToFloat64(m.storeErrorsTotal.WithLabelValues("memory", "append"))
	assert.Equal(t, before+1, after)
}

func TestSetKnownThreads(t *testing.T) {
	SetKnownThreads(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(getMetrics().knownThreads))
}

func TestMetricsHandler(t *testing.T) {
	RecordModelCall("fake", time.Millisecond, 12, 4)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "recall_model_call_duration_seconds"))
	assert.True(t, strings.Contains(body, `recall_model_tokens_total{direction="input",provider="fake"}`))
}
