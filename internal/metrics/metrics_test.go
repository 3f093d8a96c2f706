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

func TestRecordTurnIncrementsOutcome(t *testing.T) {
	before := testutil.ToFloat64(get().turnsTotal.WithLabelValues(OutcomeOK))
	RecordTurn(OutcomeOK)
	after := testutil.ToFloat64(get().turnsTotal.WithLabelValues(OutcomeOK))
	assert.Equal(t, before+1, after)
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveEngine(10*time.Millisecond, errors.New("boom"))
	SessionCreated()

	resp := httptest.NewRecorder()
	Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "chat_engine_request_duration_seconds")
	assert.Contains(t, resp.Body.String(), "chat_sessions_created_total")
}
