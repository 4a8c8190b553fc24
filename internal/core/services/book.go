package services

import (
	"log/slog"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/core/ports"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/integrity"
	"github.com/SscSPs/bookkeeping_engine/internal/observability"
)

// Book is a named ledger namespace. It is immutable after construction and safe
// to share between goroutines; every operation goes straight to the store.
type Book struct {
	baseService
	cfg      domain.BookConfig
	store    portsrepo.Store
	reporter ports.IntegrityReporter
	metrics  *observability.Metrics
	now      func() time.Time
}

// Ensure Book implements the portssvc.BookSvcFacade interface
var _ portssvc.BookSvcFacade = (*Book)(nil)

// BookOption configures a Book at construction time.
type BookOption func(*Book)

// WithMaxAccountPath sets the maximum number of account path segments.
func WithMaxAccountPath(n int) BookOption {
	return func(b *Book) { b.cfg.MaxAccountPath = n }
}

// WithPrecision sets the number of fractional digits kept in sums.
func WithPrecision(n int) BookOption {
	return func(b *Book) { b.cfg.Precision = n }
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *slog.Logger) BookOption {
	return func(b *Book) { b.logger = logger }
}

// WithIntegrityReporter sets where failed compensations are reported.
func WithIntegrityReporter(r ports.IntegrityReporter) BookOption {
	return func(b *Book) { b.reporter = r }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *observability.Metrics) BookOption {
	return func(b *Book) { b.metrics = m }
}

// WithClock overrides the commit timestamp source.
func WithClock(now func() time.Time) BookOption {
	return func(b *Book) { b.now = now }
}

// NewBook creates a Book named name over store. The name is trimmed and must be
// non-empty; numeric options must be non-negative.
func NewBook(name string, store portsrepo.Store, opts ...BookOption) (*Book, error) {
	b := &Book{
		cfg:   domain.NewBookConfig(name),
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With(slog.String("book", b.cfg.Name))
	if b.reporter == nil {
		b.reporter = &integrity.LogReporter{}
	}
	return b, nil
}

func (b *Book) Name() string { return b.cfg.Name }

func (b *Book) MaxAccountPath() int { return b.cfg.MaxAccountPath }

func (b *Book) Precision() int { return b.cfg.Precision }
