package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxAccountPath = 3
	DefaultPrecision      = 8
)

// BookConfig holds the immutable settings of a ledger namespace.
type BookConfig struct {
	Name           string `validate:"required"`
	MaxAccountPath int    `validate:"gte=0"`
	Precision      int    `validate:"gte=0"`
}

// NewBookConfig returns a config with the defaults filled in.
func NewBookConfig(name string) BookConfig {
	return BookConfig{
		Name:           name,
		MaxAccountPath: DefaultMaxAccountPath,
		Precision:      DefaultPrecision,
	}
}

// Validate trims the name and checks every field, reporting the first
// offending one the same way regardless of which rule failed.
func (c *BookConfig) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: invalid value for %s provided", apperrors.ErrConfiguration, fieldLabel(verrs[0].StructField()))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrConfiguration, err)
}

func fieldLabel(field string) string {
	switch field {
	case "Name":
		return "name"
	case "MaxAccountPath":
		return "maxAccountPath"
	case "Precision":
		return "precision"
	default:
		return field
	}
}
