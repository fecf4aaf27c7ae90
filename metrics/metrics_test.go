package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	hr "github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"wuyrush.io/photo/common/middleware"
)

func TestInstrument(t *testing.T) {
	m := New()
	h := func(w http.ResponseWriter, r *http.Request, p hr.Params) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			return
		}
		http.Error(w, "nope", http.StatusNotFound)
	}
	wrapped := middleware.Chain(h, m.Instrument())
	for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodGet, "PATCH"} {
		wrapped(httptest.NewRecorder(), httptest.NewRequest(method, "/api/photo", nil), nil)
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("post", "201")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("get", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("unsupported", "404")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.requests.WithLabelValues("get", "200").Inc()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `photo_requests_total{code="200",operation="get"} 1`)
	assert.Contains(t, rec.Body.String(), "photo_build_info")
}

func TestOperation(t *testing.T) {
	tcs := []struct {
		method   string
		expected string
	}{
		{method: "GET", expected: "get"},
		{method: "get", expected: "get"},
		{method: "Post", expected: "post"},
		{method: "DELETE", expected: "delete"},
		{method: "PUT", expected: "unsupported"},
	}
	for _, c := range tcs {
		assert.Equal(t, c.expected, Operation(c.method))
	}
}
