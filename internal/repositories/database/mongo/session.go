package mongo

import (
	"context"

	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// TransactionalStore is a Store whose commits run in multi-document
// transactions. It requires a replica set or sharded cluster.
type TransactionalStore struct {
	*Store
}

var _ portsrepo.AtomicSessioner = (*TransactionalStore)(nil)

// NewTransactional enables atomic sessions on s.
func NewTransactional(s *Store) *TransactionalStore {
	return &TransactionalStore{Store: s}
}

// WithAtomicSession runs fn in a transaction. The context fn receives carries
// the session, so every operation on tx joins it. The driver may call fn again
// on transient errors.
func (s *TransactionalStore) WithAtomicSession(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongodriver.SessionContext) (any, error) {
		return nil, fn(sc, s.Store)
	})
	return err
}
