// Package metrics holds the Prometheus collectors for the marketplace.
// Every method is safe on a nil *Metrics so components can run without
// instrumentation in tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "marketplace"

type Metrics struct {
	reservationsCreated *prometheus.CounterVec
	transitions         *prometheus.CounterVec
	refunds             *prometheus.CounterVec
	payments            *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	jobRuns             *prometheus.CounterVec
	jobDuration         *prometheus.HistogramVec
	swept               prometheus.Counter
	kpi                 *prometheus.GaugeVec
}

// New registers the collectors on reg, or on the default registerer when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reservationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "reservations_created_total",
			Help:      "Reservation creation attempts by result",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Reservation state transitions by target state",
		}, []string{"to"}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refund",
			Name:      "requests_total",
			Help:      "Refund requests by outcome",
		}, []string{"result"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "attempts_total",
			Help:      "Simulated gateway charges by result",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Notifications by delivery status",
		}, []string{"status"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result",
		}, []string{"job", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "expired_reservations_total",
			Help:      "Stale pending reservations cancelled by the sweep",
		}),
		kpi: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "kpi",
			Help:      "Latest KPI report values",
		}, []string{"name"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservationsCreated, m.transitions, m.refunds, m.payments, m.notifications,
		m.jobRuns, m.jobDuration, m.swept, m.kpi)
	return m
}

func (m *Metrics) ReservationCreated(result string) {
	if m == nil {
		return
	}
	m.reservationsCreated.WithLabelValues(result).Inc()
}

func (m *Metrics) Transition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) Refund(result string) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(result).Inc()
}

func (m *Metrics) Payment(result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(result).Inc()
}

func (m *Metrics) Notification(status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(status).Inc()
}

// JobRun records one scheduler run and how long it took.
func (m *Metrics) JobRun(job, result string, seconds float64) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(seconds)
}

func (m *Metrics) Swept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.Add(float64(n))
}

// SetKPI mirrors a report value into the kpi gauge.
func (m *Metrics) SetKPI(name string, v float64) {
	if m == nil {
		return
	}
	m.kpi.WithLabelValues(name).Set(v)
}
