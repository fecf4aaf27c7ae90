package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	hr "github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"wuyrush.io/photo/common/middleware"
)

const namespace = "photo"

// Metrics owns the collectors of the photo service on its own registry
type Metrics struct {
	Registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Photo requests served, by operation and response status code.",
		}, []string{"operation", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of photo requests, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	m.Registry.MustRegister(
		m.requests,
		m.duration,
		versioncollector.NewCollector(namespace),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Operation maps the request method onto a bounded label value
func Operation(method string) string {
	switch m := strings.ToLower(method); m {
	case "get", "post", "delete":
		return m
	default:
		return "unsupported"
	}
}

// Instrument counts and times the requests going through the wrapped handler
func (m *Metrics) Instrument() middleware.Middleware {
	return func(h hr.Handle) hr.Handle {
		return func(w http.ResponseWriter, r *http.Request, p hr.Params) {
			start, rec := time.Now(), middleware.Record(w)
			h(rec, r, p)
			op := Operation(r.Method)
			m.requests.WithLabelValues(op, strconv.Itoa(rec.StatusOrOK())).Inc()
			m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		}
	}
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
