// Package mongo stores journals and legs in two MongoDB collections, the
// layout the ledger has always used: one document per journal, one per leg.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	CollectionJournals     = "medici_journals"
	CollectionTransactions = "medici_transactions"
)

// Store keeps journals and legs in MongoDB. It has no atomic sessions; wrap it
// with NewTransactional when the deployment is a replica set.
type Store struct {
	client       *mongodriver.Client
	journals     *mongodriver.Collection
	transactions *mongodriver.Collection
}

var _ portsrepo.Store = (*Store)(nil)

// New returns a Store over the named database.
func New(client *mongodriver.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:       client,
		journals:     db.Collection(CollectionJournals),
		transactions: db.Collection(CollectionTransactions),
	}
}

// EnsureIndexes creates the indexes ledger reads rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.transactions.Indexes().CreateMany(ctx, []mongodriver.IndexModel{
		{Keys: bson.D{{Key: "_journal", Value: 1}}},
		{Keys: bson.D{{Key: "book", Value: 1}, {Key: "accounts", Value: 1}, {Key: "datetime", Value: -1}}},
		{Keys: bson.D{{Key: "book", Value: 1}, {Key: "account_path.0", Value: 1}, {Key: "account_path.1", Value: 1}, {Key: "account_path.2", Value: 1}}},
		{Keys: bson.D{{Key: "datetime", Value: -1}, {Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}
	_, err = s.journals.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys: bson.D{{Key: "book", Value: 1}, {Key: "datetime", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create journal indexes: %w", err)
	}
	return nil
}

func (s *Store) NewID() domain.ID {
	return domain.ID(primitive.NewObjectID().Hex())
}

func (s *Store) InsertJournal(ctx context.Context, journal domain.Journal) (domain.ID, error) {
	if err := journal.Validate(); err != nil {
		return "", err
	}
	doc, err := toJournalDoc(journal)
	if err != nil {
		return "", err
	}
	if _, err := s.journals.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: journal %s", apperrors.ErrDuplicate, journal.ID)
		}
		return "", fmt.Errorf("failed to insert journal %s: %w", journal.ID, err)
	}
	return journal.ID, nil
}

func (s *Store) InsertTransactions(ctx context.Context, legs []domain.Transaction) ([]domain.ID, error) {
	if err := domain.ValidateTransactions(legs); err != nil {
		return nil, err
	}
	if len(legs) == 0 {
		return []domain.ID{}, nil
	}
	docs := make([]any, len(legs))
	ids := make([]domain.ID, len(legs))
	for i, leg := range legs {
		doc, err := toTransactionDoc(leg)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
		ids[i] = leg.ID
	}
	if _, err := s.transactions.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: transaction: %v", apperrors.ErrDuplicate, err)
		}
		return nil, fmt.Errorf("failed to insert transactions: %w", err)
	}
	return ids, nil
}

func (s *Store) DeleteTransactionsByJournal(ctx context.Context, journalID domain.ID) (int, error) {
	oid, err := objectID(journalID)
	if err != nil {
		return 0, err
	}
	res, err := s.transactions.DeleteMany(ctx, bson.M{"_journal": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions of journal %s: %w", journalID, err)
	}
	return int(res.DeletedCount), nil
}

func (s *Store) FindJournalByID(ctx context.Context, id domain.ID, book string) (*domain.Journal, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
	}
	var doc journalDoc
	err = s.journals.FindOne(ctx, bson.M{"_id": oid, "book": book}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find journal %s: %w", id, err)
	}
	j := doc.toDomain()
	return &j, nil
}

func (s *Store) UpdateJournal(ctx context.Context, id domain.ID, book string, update domain.JournalUpdate) error {
	oid, err := objectID(id)
	if err != nil {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
	}
	set := bson.M{}
	if update.Approved != nil {
		set["approved"] = *update.Approved
	}
	if update.Voided != nil {
		set["voided"] = *update.Voided
	}
	if update.VoidReason != nil {
		set["void_reason"] = *update.VoidReason
	}
	filter := bson.M{"_id": oid, "book": book}
	if len(set) == 0 {
		n, err := s.journals.CountDocuments(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to find journal %s: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
		}
		return nil
	}
	res, err := s.journals.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update journal %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func (s *Store) UpdateTransactionsByJournal(ctx context.Context, journalID domain.ID, update domain.TransactionUpdate) error {
	if update.Approved == nil {
		return nil
	}
	oid, err := objectID(journalID)
	if err != nil {
		return err
	}
	_, err = s.transactions.UpdateMany(ctx, bson.M{"_journal": oid}, bson.M{"$set": bson.M{"approved": *update.Approved}})
	if err != nil {
		return fmt.Errorf("failed to update transactions of journal %s: %w", journalID, err)
	}
	return nil
}

func (s *Store) AggregateBalance(ctx context.Context, f domain.TransactionFilter, w pagination.Window) (domain.Aggregate, error) {
	match, err := buildFilter(f)
	if err != nil {
		return domain.Aggregate{}, err
	}
	pipeline := mongodriver.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: latestFirst}},
	}
	if w.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(w.Skip)}})
	}
	if !w.Unbounded() {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(w.Limit)}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: nil},
		{Key: "credit", Value: bson.D{{Key: "$sum", Value: "$credit"}}},
		{Key: "debit", Value: bson.D{{Key: "$sum", Value: "$debit"}}},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}})

	cur, err := s.transactions.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.Aggregate{}, fmt.Errorf("failed to aggregate balance: %w", err)
	}
	var rows []struct {
		Credit primitive.Decimal128 `bson:"credit"`
		Debit  primitive.Decimal128 `bson:"debit"`
		Count  int                  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domain.Aggregate{}, fmt.Errorf("failed to decode balance: %w", err)
	}
	if len(rows) == 0 {
		return domain.Aggregate{}, nil
	}
	credit, err := fromDecimal128(rows[0].Credit)
	if err != nil {
		return domain.Aggregate{}, err
	}
	debit, err := fromDecimal128(rows[0].Debit)
	if err != nil {
		return domain.Aggregate{}, err
	}
	return domain.Aggregate{Credit: credit, Debit: debit, Count: rows[0].Count}, nil
}

func (s *Store) QueryTransactions(ctx context.Context, f domain.TransactionFilter, w pagination.Window) ([]domain.Transaction, int, error) {
	q, err := buildFilter(f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactions.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	opts := options.Find().SetSort(latestFirst).SetSkip(int64(w.Skip))
	if !w.Unbounded() {
		opts.SetLimit(int64(w.Limit))
	}
	cur, err := s.transactions.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode transactions: %w", err)
	}
	legs := make([]domain.Transaction, 0, len(docs))
	for _, d := range docs {
		leg, err := d.toDomain()
		if err != nil {
			return nil, 0, err
		}
		legs = append(legs, leg)
	}
	return legs, int(total), nil
}

func (s *Store) DistinctAccounts(ctx context.Context, book string) ([]string, error) {
	values, err := s.transactions.Distinct(ctx, "accounts", bson.M{"book": book})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if a, ok := v.(string); ok {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return out, nil
}
