package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/models"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/mapping"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"
)

// txStore serves the Store operations from one open bbolt transaction.
// Read-only transactions reject the write methods.
type txStore struct {
	tx *bbolt.Tx
}

var _ portsrepo.Store = (*txStore)(nil)

func (t *txStore) bucket(name string) *bbolt.Bucket {
	return t.tx.Bucket([]byte(name))
}

func (t *txStore) NewID() domain.ID {
	return domain.ID(uuid.NewString())
}

func (t *txStore) InsertJournal(_ context.Context, journal domain.Journal) (domain.ID, error) {
	if err := journal.Validate(); err != nil {
		return "", err
	}
	b := t.bucket(BucketJournals)
	key := []byte(journal.ID)
	if b.Get(key) != nil {
		return "", fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, journal.ID)
	}
	if err := putJSON(b, key, mapping.ToModelJournal(journal)); err != nil {
		return "", err
	}
	return journal.ID, nil
}

func (t *txStore) InsertTransactions(_ context.Context, legs []domain.Transaction) ([]domain.ID, error) {
	if err := domain.ValidateTransactions(legs); err != nil {
		return nil, err
	}
	b := t.bucket(BucketTransactions)
	index := t.bucket(BucketJournalLegs)

	ids := make([]domain.ID, len(legs))
	for i, leg := range legs {
		seq, err := b.NextSequence()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate sequence: %w", err)
		}
		m := mapping.ToModelTransaction(leg)
		m.Seq = seq
		if err := putJSON(b, itob(seq), m); err != nil {
			return nil, err
		}
		if err := index.Put(legIndexKey(leg.JournalID, seq), itob(seq)); err != nil {
			return nil, err
		}
		ids[i] = leg.ID
	}
	return ids, nil
}

// journalSeqs returns the sequences of every leg of journalID.
func (t *txStore) journalSeqs(journalID domain.ID) [][]byte {
	prefix := legIndexPrefix(journalID)
	c := t.bucket(BucketJournalLegs).Cursor()
	var seqs [][]byte
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		seqs = append(seqs, bytes.Clone(v))
	}
	return seqs
}

func (t *txStore) DeleteTransactionsByJournal(_ context.Context, journalID domain.ID) (int, error) {
	b := t.bucket(BucketTransactions)
	index := t.bucket(BucketJournalLegs)

	seqs := t.journalSeqs(journalID)
	for _, seq := range seqs {
		if err := b.Delete(seq); err != nil {
			return 0, err
		}
		if err := index.Delete(legIndexKey(journalID, decodeSeq(seq))); err != nil {
			return 0, err
		}
	}
	return len(seqs), nil
}

func (t *txStore) loadJournal(id domain.ID, book string) (*models.Journal, error) {
	data := t.bucket(BucketJournals).Get([]byte(id))
	if data == nil {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
	}
	var m models.Journal
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal journal %s: %w", id, err)
	}
	if m.Book != book {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
	}
	return &m, nil
}

func (t *txStore) FindJournalByID(_ context.Context, id domain.ID, book string) (*domain.Journal, error) {
	m, err := t.loadJournal(id, book)
	if err != nil {
		return nil, err
	}
	j := mapping.ToDomainJournal(*m)
	return &j, nil
}

func (t *txStore) UpdateJournal(_ context.Context, id domain.ID, book string, update domain.JournalUpdate) error {
	m, err := t.loadJournal(id, book)
	if err != nil {
		return err
	}
	j := mapping.ToDomainJournal(*m)
	update.Apply(&j)
	return putJSON(t.bucket(BucketJournals), []byte(id), mapping.ToModelJournal(j))
}

func (t *txStore) UpdateTransactionsByJournal(_ context.Context, journalID domain.ID, update domain.TransactionUpdate) error {
	b := t.bucket(BucketTransactions)
	for _, seq := range t.journalSeqs(journalID) {
		m, err := decodeLeg(b.Get(seq))
		if err != nil {
			return err
		}
		leg := mapping.ToDomainTransaction(m)
		update.Apply(&leg)
		updated := mapping.ToModelTransaction(leg)
		updated.Seq = m.Seq
		if err := putJSON(b, seq, updated); err != nil {
			return err
		}
	}
	return nil
}

// matching returns the legs f matches, latest first; among equal datetimes and
// timestamps the higher sequence comes first.
func (t *txStore) matching(f domain.TransactionFilter) ([]domain.Transaction, error) {
	b := t.bucket(BucketTransactions)
	out := make([]domain.Transaction, 0)

	visit := func(data []byte) error {
		m, err := decodeLeg(data)
		if err != nil {
			return err
		}
		leg := mapping.ToDomainTransaction(m)
		if f.Matches(leg) {
			out = append(out, leg)
		}
		return nil
	}

	if !f.JournalID.IsZero() {
		seqs := t.journalSeqs(f.JournalID)
		for i := len(seqs) - 1; i >= 0; i-- {
			if err := visit(b.Get(seqs[i])); err != nil {
				return nil, err
			}
		}
	} else {
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if err := visit(v); err != nil {
				return nil, err
			}
		}
	}

	domain.SortLatestFirst(out)
	return out, nil
}

func (t *txStore) AggregateBalance(_ context.Context, f domain.TransactionFilter, w pagination.Window) (domain.Aggregate, error) {
	legs, err := t.matching(f)
	if err != nil {
		return domain.Aggregate{}, err
	}
	start, end := w.Apply(len(legs))
	var agg domain.Aggregate
	for _, leg := range legs[start:end] {
		agg.Add(leg)
	}
	return agg, nil
}

func (t *txStore) QueryTransactions(_ context.Context, f domain.TransactionFilter, w pagination.Window) ([]domain.Transaction, int, error) {
	legs, err := t.matching(f)
	if err != nil {
		return nil, 0, err
	}
	start, end := w.Apply(len(legs))
	return legs[start:end], len(legs), nil
}

func (t *txStore) DistinctAccounts(_ context.Context, book string) ([]string, error) {
	seen := make(map[string]struct{})
	err := t.bucket(BucketTransactions).ForEach(func(_, v []byte) error {
		m, err := decodeLeg(v)
		if err != nil {
			return err
		}
		if m.Book == book {
			seen[m.Accounts] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	slices.Sort(out)
	return out, nil
}

func decodeLeg(data []byte) (models.Transaction, error) {
	var m models.Transaction
	if data == nil {
		return m, fmt.Errorf("%w: leg record", apperrors.ErrNotFound)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to unmarshal leg: %w", err)
	}
	return m, nil
}

func decodeSeq(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
