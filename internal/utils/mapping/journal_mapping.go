package mapping

import (
	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"github.com/SscSPs/bookkeeping_engine/internal/models"
)

// ToModelJournal converts a domain Journal to a model Journal
func ToModelJournal(d domain.Journal) models.Journal {
	ids := make([]string, len(d.Transactions))
	for i, id := range d.Transactions {
		ids[i] = id.String()
	}
	return models.Journal{
		JournalID:         d.ID.String(),
		Book:              d.Book,
		Memo:              d.Memo,
		Datetime:          d.Datetime,
		Approved:          d.Approved,
		Voided:            d.Voided,
		VoidReason:        d.VoidReason,
		OriginalJournalID: toModelRef(d.OriginalJournal),
		TransactionIDs:    ids,
		CreatedAt:         d.Timestamp,
	}
}

// ToDomainJournal converts a model Journal to a domain Journal
func ToDomainJournal(m models.Journal) domain.Journal {
	ids := make([]domain.ID, len(m.TransactionIDs))
	for i, id := range m.TransactionIDs {
		ids[i] = domain.ID(id)
	}
	return domain.Journal{
		ID:              domain.ID(m.JournalID),
		Book:            m.Book,
		Memo:            m.Memo,
		Datetime:        m.Datetime,
		Approved:        m.Approved,
		Voided:          m.Voided,
		VoidReason:      m.VoidReason,
		OriginalJournal: toDomainRef(m.OriginalJournalID),
		Transactions:    ids,
		Timestamp:       m.CreatedAt,
	}
}

// ToModelTransaction converts a domain Transaction to a model Transaction.
// Seq is assigned by the store on insert.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:     d.ID.String(),
		JournalID:         d.JournalID.String(),
		Book:              d.Book,
		AccountPath:       append([]string(nil), d.AccountPath...),
		Accounts:          d.Accounts,
		Credit:            d.Credit,
		Debit:             d.Debit,
		Meta:              d.Meta.Clone(),
		Datetime:          d.Datetime,
		Memo:              d.Memo,
		Approved:          d.Approved,
		Voided:            d.Voided,
		OriginalJournalID: toModelRef(d.OriginalJournal),
		CreatedAt:         d.Timestamp,
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:              domain.ID(m.TransactionID),
		JournalID:       domain.ID(m.JournalID),
		Book:            m.Book,
		AccountPath:     m.AccountPath,
		Accounts:        m.Accounts,
		Credit:          m.Credit,
		Debit:           m.Debit,
		Meta:            domain.Meta(m.Meta),
		Datetime:        m.Datetime,
		Memo:            m.Memo,
		Approved:        m.Approved,
		Voided:          m.Voided,
		OriginalJournal: toDomainRef(m.OriginalJournalID),
		Timestamp:       m.CreatedAt,
	}
}

// ToDomainTransactionSlice converts a slice of model Transactions to a slice of domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}

func toModelRef(id *domain.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toDomainRef(s *string) *domain.ID {
	if s == nil {
		return nil
	}
	return domain.IDPtr(domain.ID(*s))
}
