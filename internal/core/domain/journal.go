package domain

import "time"

// Journal represents a single, balanced accounting event composed of legs.
type Journal struct {
	ID              ID        `json:"id" validate:"required"`
	Book            string    `json:"book" validate:"required"`
	Memo            string    `json:"memo"`
	Datetime        time.Time `json:"datetime" validate:"required"`
	Approved        bool      `json:"approved"`
	Voided          bool      `json:"voided"`
	VoidReason      string    `json:"voidReason,omitempty"`
	OriginalJournal *ID       `json:"originalJournal,omitempty"`
	Transactions    []ID      `json:"transactions" validate:"dive,required"`
	Timestamp       time.Time `json:"timestamp"`
}

// JournalUpdate lists the only fields that may change after commit.
// Nil fields are left untouched.
type JournalUpdate struct {
	Approved   *bool
	Voided     *bool
	VoidReason *string
}

// Apply writes the non-nil fields of u onto j.
func (u JournalUpdate) Apply(j *Journal) {
	if u.Approved != nil {
		j.Approved = *u.Approved
	}
	if u.Voided != nil {
		j.Voided = *u.Voided
	}
	if u.VoidReason != nil {
		j.VoidReason = *u.VoidReason
	}
}

// IsEmpty reports whether the update changes nothing.
func (u JournalUpdate) IsEmpty() bool {
	return u.Approved == nil && u.Voided == nil && u.VoidReason == nil
}
