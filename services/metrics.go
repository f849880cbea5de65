package services

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the workflow and HTTP collectors. A nil *Metrics records nothing.
type Metrics struct {
	submissions   *prometheus.CounterVec
	moderation    *prometheus.CounterVec
	viewSize      *prometheus.GaugeVec
	notifications *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventboard",
		Name:      "submissions_total",
		Help:      "Event submissions by outcome",
	}, []string{"outcome"})
	m.moderation = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventboard",
		Name:      "moderation_actions_total",
		Help:      "Moderator actions by action and outcome",
	}, []string{"action", "outcome"})
	m.viewSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "eventboard",
		Name:      "view_events",
		Help:      "Events in the latest snapshot of each live view",
	}, []string{"view"})
	m.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventboard",
		Name:      "notifications_total",
		Help:      "Moderator emails by kind and outcome",
	}, []string{"kind", "outcome"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eventboard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	reg.MustRegister(m.submissions, m.moderation, m.viewSize, m.notifications, m.httpDuration)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) SubmissionAccepted() {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues("accepted").Inc()
}

func (m *Metrics) SubmissionRejected() {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues("invalid").Inc()
}

func (m *Metrics) SubmissionFailed() {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues("store_error").Inc()
}

func (m *Metrics) ModerationAction(action string, err error) {
	if m == nil {
		return
	}
	m.moderation.WithLabelValues(action, outcome(err)).Inc()
}

func (m *Metrics) ViewSize(view string, n int) {
	if m == nil {
		return
	}
	m.viewSize.WithLabelValues(view).Set(float64(n))
}

func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveRequest records one HTTP request against its route pattern.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
