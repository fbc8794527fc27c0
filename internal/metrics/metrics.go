// Package metrics содержит prometheus-метрики сервиса.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса.
type Metrics struct {
	locationQueries *prometheus.CounterVec
	usersCreated    prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		locationQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "users_api",
			Name:      "location_queries_total",
			Help:      "Number of location filtered counts by filter kind.",
		}, []string{"kind"}),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "users_api",
			Name:      "users_created_total",
			Help:      "Number of registered users.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "users_api",
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "users_api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.locationQueries, m.usersCreated, m.httpRequests, m.httpDuration)
	return m
}

// LocationQuery учитывает запрос подсчёта по местоположению.
func (m *Metrics) LocationQuery(kind string) {
	m.locationQueries.WithLabelValues(kind).Inc()
}

// UserCreated учитывает регистрацию пользователя.
func (m *Metrics) UserCreated() {
	m.usersCreated.Inc()
}

// HTTPRequest учитывает обработанный HTTP-запрос.
func (m *Metrics) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
