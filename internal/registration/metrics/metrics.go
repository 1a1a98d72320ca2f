package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration form.
type Metrics struct {
	Submissions    *prometheus.CounterVec
	DraftSaves     prometheus.Counter
	DraftResets    prometheus.Counter
	NotifyFailures prometheus.Counter
	SubmitDuration prometheus.Histogram
}

// New registers the registration metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regdesk_submissions_total",
			Help: "Submit attempts by outcome (accepted, invalid, duplicate)",
		}, []string{"outcome"}),
		DraftSaves: f.NewCounter(prometheus.CounterOpts{
			Name: "regdesk_draft_saves_total",
			Help: "Draft autosaves triggered by input events",
		}),
		DraftResets: f.NewCounter(prometheus.CounterOpts{
			Name: "regdesk_draft_resets_total",
			Help: "Explicit form resets",
		}),
		NotifyFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "regdesk_notify_failures_total",
			Help: "Remote dispatches that failed; failures never block acceptance",
		}),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "regdesk_submit_duration_seconds",
			Help:    "Duration of submit handling including remote dispatch",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementSubmission records one submit attempt with its outcome.
func (m *Metrics) IncrementSubmission(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementDraftSave() {
	m.DraftSaves.Inc()
}

func (m *Metrics) IncrementDraftReset() {
	m.DraftResets.Inc()
}

func (m *Metrics) IncrementNotifyFailure() {
	m.NotifyFailures.Inc()
}

// ObserveSubmit records the duration of a submit.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
