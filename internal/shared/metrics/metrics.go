package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP and domain collectors of the API.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	EmployeesCreated    prometheus.Counter
	EmployeesDeleted    prometheus.Counter
	AttendanceMarked    *prometheus.CounterVec
	AttendanceRejected  *prometheus.CounterVec
}

// New registers all collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so registration never collides.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrms_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrms_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		EmployeesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "hrms_employees_created_total",
			Help: "Total number of employees created",
		}),
		EmployeesDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "hrms_employees_deleted_total",
			Help: "Total number of employees deleted",
		}),
		AttendanceMarked: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrms_attendance_marked_total",
			Help: "Total number of attendance records created by status",
		}, []string{"status"}),
		AttendanceRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrms_attendance_rejected_total",
			Help: "Total number of rejected attendance creations by reason",
		}, []string{"reason"}),
	}
}

// ObserveHTTP records one finished request. Call with time.Now() taken
// before the handler chain ran.
func (m *Metrics) ObserveHTTP(method, route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementEmployeesCreated() {
	if m == nil {
		return
	}
	m.EmployeesCreated.Inc()
}

func (m *Metrics) IncrementEmployeesDeleted() {
	if m == nil {
		return
	}
	m.EmployeesDeleted.Inc()
}

func (m *Metrics) IncrementAttendanceMarked(status string) {
	if m == nil {
		return
	}
	m.AttendanceMarked.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementAttendanceRejected(reason string) {
	if m == nil {
		return
	}
	m.AttendanceRejected.WithLabelValues(reason).Inc()
}
