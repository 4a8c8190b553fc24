package domain

import (
	"fmt"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the journal record before a store writes it.
func (j Journal) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("%w: journal %s: %v", apperrors.ErrValidation, j.ID, err)
	}
	return nil
}

// Validate checks the leg record before a store writes it.
func (t Transaction) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: transaction %s: %v", apperrors.ErrValidation, t.ID, err)
	}
	return nil
}

// ValidateTransactions validates every leg, stopping at the first failure.
func ValidateTransactions(legs []Transaction) error {
	for _, leg := range legs {
		if err := leg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
