package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/models"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/mapping"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxJournalRepository stores journals and legs in PostgreSQL. Sessions are
// plain database transactions.
type PgxJournalRepository struct {
	BaseRepository
	db querier
}

// NewJournalRepository creates a new repository for journal and transaction data.
func NewJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		db:             pool,
	}
}

// Ensure PgxJournalRepository implements the store ports
var (
	_ portsrepo.Store           = (*PgxJournalRepository)(nil)
	_ portsrepo.AtomicSessioner = (*PgxJournalRepository)(nil)
)

// WithAtomicSession runs fn inside a database transaction, committing when fn
// returns nil and rolling back otherwise.
func (r *PgxJournalRepository) WithAtomicSession(ctx context.Context, fn func(ctx context.Context, tx portsrepo.Store) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Defer rollback in case of error
	defer r.Rollback(ctx, tx) // Will be ignored if transaction is committed successfully

	if err := fn(ctx, &PgxJournalRepository{BaseRepository: r.BaseRepository, db: tx}); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxJournalRepository) NewID() domain.ID {
	return domain.ID(uuid.NewString())
}

func (r *PgxJournalRepository) InsertJournal(ctx context.Context, journal domain.Journal) (domain.ID, error) {
	if err := journal.Validate(); err != nil {
		return "", err
	}
	m := mapping.ToModelJournal(journal)
	query := `
		INSERT INTO journals (
			journal_id, book, memo, datetime, approved, voided, void_reason,
			original_journal_id, transaction_ids, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.db.Exec(ctx, query,
		m.JournalID,
		m.Book,
		m.Memo,
		m.Datetime,
		m.Approved,
		m.Voided,
		m.VoidReason,
		m.OriginalJournalID,
		m.TransactionIDs,
		m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, journal.ID)
		}
		return "", fmt.Errorf("failed to insert journal %s: %w", journal.ID, err)
	}
	return journal.ID, nil
}

func (r *PgxJournalRepository) InsertTransactions(ctx context.Context, legs []domain.Transaction) ([]domain.ID, error) {
	if err := domain.ValidateTransactions(legs); err != nil {
		return nil, err
	}
	batch := &pgx.Batch{}
	txnQuery := `
		INSERT INTO transactions (
			transaction_id, journal_id, book, account_path, accounts, credit, debit, meta,
			datetime, memo, approved, voided, original_journal_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	ids := make([]domain.ID, len(legs))
	for i, leg := range legs {
		m := mapping.ToModelTransaction(leg)
		meta, err := encodeMeta(m.Meta)
		if err != nil {
			return nil, err
		}
		batch.Queue(txnQuery,
			m.TransactionID,
			m.JournalID,
			m.Book,
			m.AccountPath,
			m.Accounts,
			m.Credit,
			m.Debit,
			meta,
			m.Datetime,
			m.Memo,
			m.Approved,
			m.Voided,
			m.OriginalJournalID,
			m.CreatedAt,
		)
		ids[i] = leg.ID
	}

	br := r.db.SendBatch(ctx, batch)
	for range legs {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: transaction: %v", apperrors.ErrDuplicate, err)
			}
			return nil, fmt.Errorf("failed to insert transactions: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("failed to insert transactions: %w", err)
	}
	return ids, nil
}

func (r *PgxJournalRepository) DeleteTransactionsByJournal(ctx context.Context, journalID domain.ID) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE journal_id = $1;`, journalID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions of journal %s: %w", journalID, err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, id domain.ID, book string) (*domain.Journal, error) {
	query := `
		SELECT journal_id, book, memo, datetime, approved, voided, void_reason,
		       original_journal_id, transaction_ids, created_at
		FROM journals
		WHERE journal_id = $1 AND book = $2;
	`
	var m models.Journal
	err := r.db.QueryRow(ctx, query, id.String(), book).Scan(
		&m.JournalID,
		&m.Book,
		&m.Memo,
		&m.Datetime,
		&m.Approved,
		&m.Voided,
		&m.VoidReason,
		&m.OriginalJournalID,
		&m.TransactionIDs,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find journal %s: %w", id, err)
	}
	j := mapping.ToDomainJournal(m)
	j.Datetime = j.Datetime.UTC()
	j.Timestamp = j.Timestamp.UTC()
	return &j, nil
}

func (r *PgxJournalRepository) UpdateJournal(ctx context.Context, id domain.ID, book string, update domain.JournalUpdate) error {
	// COALESCE keeps the stored value for fields the update leaves nil.
	query := `
		UPDATE journals
		SET approved = COALESCE($3, approved),
		    voided = COALESCE($4, voided),
		    void_reason = COALESCE($5, void_reason)
		WHERE journal_id = $1 AND book = $2;
	`
	tag, err := r.db.Exec(ctx, query, id.String(), book, update.Approved, update.Voided, update.VoidReason)
	if err != nil {
		return fmt.Errorf("failed to update journal %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func (r *PgxJournalRepository) UpdateTransactionsByJournal(ctx context.Context, journalID domain.ID, update domain.TransactionUpdate) error {
	if update.Approved == nil {
		return nil
	}
	_, err := r.db.Exec(ctx, `UPDATE transactions SET approved = $2 WHERE journal_id = $1;`, journalID.String(), *update.Approved)
	if err != nil {
		return fmt.Errorf("failed to update transactions of journal %s: %w", journalID, err)
	}
	return nil
}

// orderByClause is the ledger order: datetime, then commit timestamp, then
// insertion order, all descending.
const orderByClause = "ORDER BY datetime DESC, created_at DESC, seq DESC"

// whereClause translates a leg filter into SQL conditions and their arguments.
// Account prefixes compare array slices, so X:Y matches X:Y:AUD but not X:Yield.
func whereClause(f domain.TransactionFilter) (string, []any, error) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Book != "" {
		conds = append(conds, "book = "+arg(f.Book))
	}
	if !f.JournalID.IsZero() {
		conds = append(conds, "journal_id = "+arg(f.JournalID.String()))
	}
	if f.Approved != nil {
		conds = append(conds, "approved = "+arg(*f.Approved))
	}
	if f.Voided != nil {
		conds = append(conds, "voided = "+arg(*f.Voided))
	}
	if f.Start != nil {
		conds = append(conds, "datetime >= "+arg(*f.Start))
	}
	if f.End != nil {
		conds = append(conds, "datetime <= "+arg(*f.End))
	}
	if len(f.Meta) > 0 {
		meta, err := json.Marshal(f.Meta)
		if err != nil {
			return "", nil, fmt.Errorf("%w: meta filter: %v", apperrors.ErrValidation, err)
		}
		conds = append(conds, "meta @> "+arg(string(meta))+"::jsonb")
	}

	var accounts []string
	for _, prefix := range f.Accounts {
		if len(prefix) == 0 {
			continue
		}
		accounts = append(accounts, fmt.Sprintf("account_path[1:%d] = %s::text[]", len(prefix), arg(prefix)))
	}
	if len(accounts) > 0 {
		conds = append(conds, "("+strings.Join(accounts, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", args, nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args, nil
}

func windowClause(w pagination.Window) string {
	clause := " OFFSET " + strconv.Itoa(max(w.Skip, 0))
	if !w.Unbounded() {
		clause += " LIMIT " + strconv.Itoa(w.Limit)
	}
	return clause
}

func (r *PgxJournalRepository) AggregateBalance(ctx context.Context, f domain.TransactionFilter, w pagination.Window) (domain.Aggregate, error) {
	where, args, err := whereClause(f)
	if err != nil {
		return domain.Aggregate{}, err
	}
	query := `
		SELECT COALESCE(SUM(credit), 0), COALESCE(SUM(debit), 0), COUNT(*)
		FROM (
			SELECT credit, debit FROM transactions ` + where + ` ` + orderByClause + windowClause(w) + `
		) AS windowed;
	`
	var agg domain.Aggregate
	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&agg.Credit, &agg.Debit, &count); err != nil {
		return domain.Aggregate{}, fmt.Errorf("failed to aggregate balance: %w", err)
	}
	agg.Count = int(count)
	return agg, nil
}

func (r *PgxJournalRepository) QueryTransactions(ctx context.Context, f domain.TransactionFilter, w pagination.Window) ([]domain.Transaction, int, error) {
	where, args, err := whereClause(f)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT transaction_id, seq, journal_id, book, account_path, accounts, credit, debit, meta,
		       datetime, memo, approved, voided, original_journal_id, created_at
		FROM transactions ` + where + ` ` + orderByClause + windowClause(w) + `;`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	legs := make([]domain.Transaction, 0)
	for rows.Next() {
		var m models.Transaction
		var seq int64
		var meta []byte
		err := rows.Scan(
			&m.TransactionID,
			&seq,
			&m.JournalID,
			&m.Book,
			&m.AccountPath,
			&m.Accounts,
			&m.Credit,
			&m.Debit,
			&meta,
			&m.Datetime,
			&m.Memo,
			&m.Approved,
			&m.Voided,
			&m.OriginalJournalID,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		m.Seq = uint64(seq)
		if m.Meta, err = decodeMeta(meta); err != nil {
			return nil, 0, err
		}
		leg := mapping.ToDomainTransaction(m)
		leg.Datetime = leg.Datetime.UTC()
		leg.Timestamp = leg.Timestamp.UTC()
		legs = append(legs, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read transactions: %w", err)
	}
	return legs, int(total), nil
}

func (r *PgxJournalRepository) DistinctAccounts(ctx context.Context, book string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT accounts FROM transactions WHERE book = $1 ORDER BY accounts;`, book)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// encodeMeta renders meta for a jsonb column; an empty map is stored as NULL.
func encodeMeta(meta map[string]any) ([]byte, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: meta: %v", apperrors.ErrValidation, err)
	}
	return b, nil
}

func decodeMeta(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal(b, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode meta: %w", err)
	}
	return meta, nil
}
