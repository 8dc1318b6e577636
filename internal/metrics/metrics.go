package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ReportsCreated       *prometheus.CounterVec
	StatusTransitions    *prometheus.CounterVec
	NotificationsCreated *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec
	TasksProcessed       *prometheus.CounterVec
	TasksDropped         prometheus.Counter
}

// New creates and registers all metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ReportsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cityreports_reports_created_total",
			Help: "Reports persisted, by category",
		}, []string{"category"}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cityreports_status_transitions_total",
			Help: "Report status transitions, by target status",
		}, []string{"status"}),
		NotificationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cityreports_notifications_created_total",
			Help: "Notifications persisted, by kind (admin_fanout, status_change, direct)",
		}, []string{"kind"}),
		NotificationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cityreports_notification_failures_total",
			Help: "Notification writes that failed and were absorbed, by kind",
		}, []string{"kind"}),
		TasksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cityreports_tasks_processed_total",
			Help: "Background tasks run, by name and outcome",
		}, []string{"task", "outcome"}),
		TasksDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "cityreports_tasks_dropped_total",
			Help: "Background tasks rejected because the queue was full or closed",
		}),
	}
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncReportsCreated(category string) {
	if m == nil {
		return
	}
	m.ReportsCreated.WithLabelValues(category).Inc()
}

func (m *Metrics) IncStatusTransition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncNotificationsCreated(kind string) {
	if m == nil {
		return
	}
	m.NotificationsCreated.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncNotificationFailures(kind string) {
	if m == nil {
		return
	}
	m.NotificationFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncTaskProcessed(task, outcome string) {
	if m == nil {
		return
	}
	m.TasksProcessed.WithLabelValues(task, outcome).Inc()
}

func (m *Metrics) IncTasksDropped() {
	if m == nil {
		return
	}
	m.TasksDropped.Inc()
}
