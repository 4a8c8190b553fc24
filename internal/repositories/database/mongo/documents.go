package mongo

import (
	"fmt"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// journalDoc is the stored shape of a journal.
type journalDoc struct {
	ID              primitive.ObjectID   `bson:"_id"`
	Book            string               `bson:"book"`
	Memo            string               `bson:"memo"`
	Datetime        time.Time            `bson:"datetime"`
	Approved        bool                 `bson:"approved"`
	Voided          bool                 `bson:"voided"`
	VoidReason      string               `bson:"void_reason,omitempty"`
	OriginalJournal string               `bson:"_original_journal,omitempty"`
	Transactions    []primitive.ObjectID `bson:"_transactions"`
	Timestamp       time.Time            `bson:"timestamp"`
}

// transactionDoc is the stored shape of one leg. Amounts are Decimal128 so
// server-side sums stay exact.
type transactionDoc struct {
	ID              primitive.ObjectID   `bson:"_id"`
	Journal         primitive.ObjectID   `bson:"_journal"`
	Book            string               `bson:"book"`
	AccountPath     []string             `bson:"account_path"`
	Accounts        string               `bson:"accounts"`
	Credit          primitive.Decimal128 `bson:"credit"`
	Debit           primitive.Decimal128 `bson:"debit"`
	Meta            bson.M               `bson:"meta,omitempty"`
	Datetime        time.Time            `bson:"datetime"`
	Memo            string               `bson:"memo"`
	Approved        bool                 `bson:"approved"`
	Voided          bool                 `bson:"voided"`
	OriginalJournal string               `bson:"_original_journal,omitempty"`
	Timestamp       time.Time            `bson:"timestamp"`
}

// objectID parses the hex form of an id this store allocated.
func objectID(id domain.ID) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q is not an object id", apperrors.ErrValidation, id)
	}
	return oid, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("%w: amount %s: %v", apperrors.ErrValidation, d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

func toJournalDoc(j domain.Journal) (journalDoc, error) {
	oid, err := objectID(j.ID)
	if err != nil {
		return journalDoc{}, err
	}
	legs := make([]primitive.ObjectID, len(j.Transactions))
	for i, id := range j.Transactions {
		if legs[i], err = objectID(id); err != nil {
			return journalDoc{}, err
		}
	}
	doc := journalDoc{
		ID:           oid,
		Book:         j.Book,
		Memo:         j.Memo,
		Datetime:     j.Datetime,
		Approved:     j.Approved,
		Voided:       j.Voided,
		VoidReason:   j.VoidReason,
		Transactions: legs,
		Timestamp:    j.Timestamp,
	}
	if j.OriginalJournal != nil {
		doc.OriginalJournal = j.OriginalJournal.String()
	}
	return doc, nil
}

func (d journalDoc) toDomain() domain.Journal {
	legs := make([]domain.ID, len(d.Transactions))
	for i, oid := range d.Transactions {
		legs[i] = domain.ID(oid.Hex())
	}
	return domain.Journal{
		ID:              domain.ID(d.ID.Hex()),
		Book:            d.Book,
		Memo:            d.Memo,
		Datetime:        d.Datetime.UTC(),
		Approved:        d.Approved,
		Voided:          d.Voided,
		VoidReason:      d.VoidReason,
		OriginalJournal: domain.IDPtr(domain.ID(d.OriginalJournal)),
		Transactions:    legs,
		Timestamp:       d.Timestamp.UTC(),
	}
}

func toTransactionDoc(t domain.Transaction) (transactionDoc, error) {
	oid, err := objectID(t.ID)
	if err != nil {
		return transactionDoc{}, err
	}
	journal, err := objectID(t.JournalID)
	if err != nil {
		return transactionDoc{}, err
	}
	credit, err := toDecimal128(t.Credit)
	if err != nil {
		return transactionDoc{}, err
	}
	debit, err := toDecimal128(t.Debit)
	if err != nil {
		return transactionDoc{}, err
	}
	doc := transactionDoc{
		ID:          oid,
		Journal:     journal,
		Book:        t.Book,
		AccountPath: t.AccountPath,
		Accounts:    t.Accounts,
		Credit:      credit,
		Debit:       debit,
		Meta:        bson.M(t.Meta),
		Datetime:    t.Datetime,
		Memo:        t.Memo,
		Approved:    t.Approved,
		Voided:      t.Voided,
		Timestamp:   t.Timestamp,
	}
	if t.OriginalJournal != nil {
		doc.OriginalJournal = t.OriginalJournal.String()
	}
	return doc, nil
}

func (d transactionDoc) toDomain() (domain.Transaction, error) {
	credit, err := fromDecimal128(d.Credit)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to decode credit of leg %s: %w", d.ID.Hex(), err)
	}
	debit, err := fromDecimal128(d.Debit)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to decode debit of leg %s: %w", d.ID.Hex(), err)
	}
	return domain.Transaction{
		ID:              domain.ID(d.ID.Hex()),
		JournalID:       domain.ID(d.Journal.Hex()),
		Book:            d.Book,
		AccountPath:     d.AccountPath,
		Accounts:        d.Accounts,
		Credit:          credit,
		Debit:           debit,
		Meta:            domain.Meta(d.Meta),
		Datetime:        d.Datetime.UTC(),
		Memo:            d.Memo,
		Approved:        d.Approved,
		Voided:          d.Voided,
		OriginalJournal: domain.IDPtr(domain.ID(d.OriginalJournal)),
		Timestamp:       d.Timestamp.UTC(),
	}, nil
}
