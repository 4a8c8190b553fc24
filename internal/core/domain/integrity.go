package domain

import (
	"fmt"
	"time"
)

// Integrity warning kinds.
const (
	// WarningStrayLegs: legs of a journal that never got persisted may still
	// be visible. The reconcile job can remove them.
	WarningStrayLegs = "stray_legs"
	// WarningRevertFailed: an update made to an existing journal for a failed
	// commit could not be undone (e.g. an original left voided without a
	// reversal). Only an operator can settle it.
	WarningRevertFailed = "revert_failed"
)

// IntegrityWarning records a failed compensation. JournalID names the journal
// whose records are inconsistent.
type IntegrityWarning struct {
	Kind            string    `json:"kind"`
	Book            string    `json:"book"`
	JournalID       ID        `json:"journalId"`
	Cause           string    `json:"cause"`
	CompensationErr string    `json:"compensationError"`
	At              time.Time `json:"at"`
}

// Reconcilable reports whether deleting the journal's stray legs settles the
// warning. Warnings stored without a kind predate kinds and are stray legs.
func (w IntegrityWarning) Reconcilable() bool {
	return w.Kind == "" || w.Kind == WarningStrayLegs
}

func (w IntegrityWarning) Message() string {
	if w.Kind == WarningRevertFailed {
		return fmt.Sprintf("can't revert update of journal %s: ledger consistency got harmed", w.JournalID)
	}
	return fmt.Sprintf("can't delete txs for journal %s: ledger consistency got harmed", w.JournalID)
}
