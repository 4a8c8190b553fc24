// Package bolt is a single-file Store on bbolt. Every atomic session is one
// read-write bbolt transaction, so commits against it never need compensation.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"
)

// Bucket names.
const (
	BucketJournals     = "journals"
	BucketTransactions = "transactions"
	// BucketJournalLegs indexes legs by journal: key is journal id, a NUL byte
	// and the leg sequence; value is the leg sequence.
	BucketJournalLegs = "journal_transactions"
)

// Store represents the bbolt database wrapper.
type Store struct {
	db *bbolt.DB
}

var (
	_ portsrepo.Store           = (*Store)(nil)
	_ portsrepo.AtomicSessioner = (*Store)(nil)
)

// lockTimeout bounds the wait for the file lock held by another process.
const lockTimeout = 5 * time.Second

// Open opens (or creates) the database at path and initializes buckets.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range []string{BucketJournals, BucketTransactions, BucketJournalLegs} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) NewID() domain.ID {
	return domain.ID(uuid.NewString())
}

// WithAtomicSession runs fn inside one read-write transaction. Returning an
// error from fn rolls every write back.
func (s *Store) WithAtomicSession(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

func (s *Store) update(fn func(t *txStore) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error { return fn(&txStore{tx: tx}) })
}

func (s *Store) view(fn func(t *txStore) error) error {
	return s.db.View(func(tx *bbolt.Tx) error { return fn(&txStore{tx: tx}) })
}

func (s *Store) InsertJournal(ctx context.Context, journal domain.Journal) (id domain.ID, err error) {
	err = s.update(func(t *txStore) error {
		id, err = t.InsertJournal(ctx, journal)
		return err
	})
	return id, err
}

func (s *Store) InsertTransactions(ctx context.Context, legs []domain.Transaction) (ids []domain.ID, err error) {
	err = s.update(func(t *txStore) error {
		ids, err = t.InsertTransactions(ctx, legs)
		return err
	})
	return ids, err
}

func (s *Store) DeleteTransactionsByJournal(ctx context.Context, journalID domain.ID) (n int, err error) {
	err = s.update(func(t *txStore) error {
		n, err = t.DeleteTransactionsByJournal(ctx, journalID)
		return err
	})
	return n, err
}

func (s *Store) FindJournalByID(ctx context.Context, id domain.ID, book string) (j *domain.Journal, err error) {
	err = s.view(func(t *txStore) error {
		j, err = t.FindJournalByID(ctx, id, book)
		return err
	})
	return j, err
}

func (s *Store) UpdateJournal(ctx context.Context, id domain.ID, book string, update domain.JournalUpdate) error {
	return s.update(func(t *txStore) error {
		return t.UpdateJournal(ctx, id, book, update)
	})
}

func (s *Store) UpdateTransactionsByJournal(ctx context.Context, journalID domain.ID, update domain.TransactionUpdate) error {
	return s.update(func(t *txStore) error {
		return t.UpdateTransactionsByJournal(ctx, journalID, update)
	})
}

func (s *Store) AggregateBalance(ctx context.Context, f domain.TransactionFilter, w pagination.Window) (agg domain.Aggregate, err error) {
	err = s.view(func(t *txStore) error {
		agg, err = t.AggregateBalance(ctx, f, w)
		return err
	})
	return agg, err
}

func (s *Store) QueryTransactions(ctx context.Context, f domain.TransactionFilter, w pagination.Window) (legs []domain.Transaction, total int, err error) {
	err = s.view(func(t *txStore) error {
		legs, total, err = t.QueryTransactions(ctx, f, w)
		return err
	})
	return legs, total, err
}

func (s *Store) DistinctAccounts(ctx context.Context, book string) (accounts []string, err error) {
	err = s.view(func(t *txStore) error {
		accounts, err = t.DistinctAccounts(ctx, book)
		return err
	})
	return accounts, err
}

func putJSON(b *bbolt.Bucket, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return b.Put(key, data)
}

// itob converts a sequence to a byte slice for use as an ordered bbolt key.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func legIndexPrefix(journalID domain.ID) []byte {
	return append([]byte(journalID), 0)
}

func legIndexKey(journalID domain.ID, seq uint64) []byte {
	return append(legIndexPrefix(journalID), itob(seq)...)
}
