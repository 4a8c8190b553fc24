package ports

import (
	"context"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
)

// IntegrityReporter receives warnings about ledger inconsistencies the engine
// could not repair itself. Reporting is best effort and must not block commits
// for long.
type IntegrityReporter interface {
	ReportIntegrityWarning(ctx context.Context, warning domain.IntegrityWarning)
}
