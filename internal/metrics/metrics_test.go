package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/cals/{segment}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	before := testutil.ToFloat64(httpErrorsTotal.WithLabelValues(http.MethodGet, "/cals/{segment}", "502"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cals/work", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cals/home", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(httpErrorsTotal.WithLabelValues(http.MethodGet, "/cals/{segment}", "502")))
}

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("work", "PROPFIND", OutcomeOK))

	ObserveUpstream("work", "PROPFIND", OutcomeOK, time.Now())

	assert.Equal(t, before+1, testutil.ToFloat64(upstreamRequestsTotal.WithLabelValues("work", "PROPFIND", OutcomeOK)))
}
