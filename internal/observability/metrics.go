package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for ledger operations. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	committed    *prometheus.CounterVec
	failures     *prometheus.CounterVec
	compensation *prometheus.CounterVec
	integrity    *prometheus.CounterVec
	voids        *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the ledger metrics against the provided registerer.
// When the registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// CommitTimer measures a single commit attempt.
type CommitTimer struct {
	metrics *Metrics
	book    string
	start   time.Time
}

// StartCommit spawns a timer for a commit against book.
func (m *Metrics) StartCommit(book string) *CommitTimer {
	return &CommitTimer{metrics: m, book: book, start: time.Now()}
}

// End records the outcome and returns err untouched.
func (t *CommitTimer) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.book).Inc()
	} else {
		t.metrics.committed.WithLabelValues(t.book).Inc()
	}
	t.metrics.duration.WithLabelValues(t.book, status).Observe(time.Since(t.start).Seconds())
	return err
}

// Compensated counts a compensation attempt and whether it succeeded.
func (m *Metrics) Compensated(book string, ok bool) {
	if m == nil {
		return
	}
	result := "deleted"
	if !ok {
		result = "failed"
	}
	m.compensation.WithLabelValues(book, result).Inc()
}

// IntegrityWarning counts a ledger inconsistency handed to the reporter.
func (m *Metrics) IntegrityWarning(book string) {
	if m == nil {
		return
	}
	m.integrity.WithLabelValues(book).Inc()
}

// Voided counts a successful void.
func (m *Metrics) Voided(book string) {
	if m == nil {
		return
	}
	m.voids.WithLabelValues(book).Inc()
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	committed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_journals_committed_total",
		Help: "Journals committed, by book.",
	}, []string{"book"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_commit_failures_total",
		Help: "Commit attempts that returned an error, by book.",
	}, []string{"book"})
	compensation := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_compensations_total",
		Help: "Compensating leg deletions after a failed commit, by book and result.",
	}, []string{"book", "result"})
	integrity := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_integrity_warnings_total",
		Help: "Ledger consistency warnings raised, by book.",
	}, []string{"book"})
	voids := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_journals_voided_total",
		Help: "Journals voided, by book.",
	}, []string{"book"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_commit_duration_seconds",
		Help:    "Duration in seconds of journal commits.",
		Buckets: prometheus.DefBuckets,
	}, []string{"book", "status"})
	registerer.MustRegister(committed, failures, compensation, integrity, voids, duration)
	return &Metrics{
		committed:    committed,
		failures:     failures,
		compensation: compensation,
		integrity:    integrity,
		voids:        voids,
		duration:     duration,
	}
}
