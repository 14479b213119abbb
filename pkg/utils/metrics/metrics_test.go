package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/herald/pkg/utils/metrics"
)

func TestHandler(t *testing.T) {
	metrics.ObserveFilterDecision(metrics.DecisionExcluded)
	metrics.ObservePublish("sent")
	metrics.ObserveRenderFailure()
	metrics.ObserveConfigReload(false)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	gt.Equal(t, rec.Code, http.StatusOK)

	body, err := io.ReadAll(rec.Body)
	gt.NoError(t, err)
	out := string(body)
	gt.String(t, out).Contains(`herald_filter_decisions_total{decision="excluded"}`)
	gt.String(t, out).Contains(`herald_publish_outcomes_total{state="sent"}`)
	gt.String(t, out).Contains("herald_render_failures_total")
	gt.String(t, out).Contains(`herald_config_reloads_total{result="failure"}`)
}
