package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTask(t *testing.T) {
	before := testutil.ToFloat64(taskExecutions.WithLabelValues("ratings.update_denorm", "error"))
	RecordTask("ratings.update_denorm", errors.New("boom"), time.Millisecond)
	after := testutil.ToFloat64(taskExecutions.WithLabelValues("ratings.update_denorm", "error"))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordRatingOperation("create")
	RecordHTTPRequest("GET", "/healthz", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `addons_ratings_operations_total{operation="create"}`)
	assert.Contains(t, rec.Body.String(), "addons_http_requests_total")
}
