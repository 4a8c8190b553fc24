package repositories

import "context"

// AtomicSessioner is implemented by stores that can commit several records
// all-or-nothing. fn receives a Store bound to the session; if fn returns an
// error nothing it wrote stays visible.
type AtomicSessioner interface {
	WithAtomicSession(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
