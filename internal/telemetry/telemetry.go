// Package telemetry exposes Prometheus metrics for the storefront API.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bhbtrucksales/storefront/internal/apperr"
)

const namespace = "storefront"

// OutcomeOK labels a successful operation.
const OutcomeOK = "ok"

// Metrics holds the storefront collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	LoginAttempts      *prometheus.CounterVec
	ContactSubmissions *prometheus.CounterVec
	UploadedFiles      *prometheus.CounterVec
}

// New registers the collectors on a private registry, so several instances
// can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_login_attempts_total",
			Help:      "Admin login attempts by outcome",
		}, []string{"outcome"}),
		ContactSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_submissions_total",
			Help:      "Contact form submissions by outcome",
		}, []string{"outcome"}),
		UploadedFiles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_files_total",
			Help:      "Image files stored by destination",
		}, []string{"kind"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by their chi route pattern. Unmatched requests
// are grouped under "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveLogin records the outcome of a login attempt.
func (m *Metrics) ObserveLogin(err error) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(Outcome(err)).Inc()
}

// ObserveContact records the outcome of a contact form submission.
func (m *Metrics) ObserveContact(err error) {
	if m == nil {
		return
	}
	m.ContactSubmissions.WithLabelValues(Outcome(err)).Inc()
}

// AddUploads counts n stored files of the given kind ("truck" or "general").
func (m *Metrics) AddUploads(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.UploadedFiles.WithLabelValues(kind).Add(float64(n))
}

// Outcome turns err into a low-cardinality label: "ok", the envelope code of
// an apperr.Error, or SERVER_ERROR.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if e, ok := apperr.As(err); ok && e.Code != "" {
		return e.Code
	}
	return apperr.CodeServer
}
