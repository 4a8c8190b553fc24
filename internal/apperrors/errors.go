package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the resource is in a state that does not allow the operation.
var ErrConflict = errors.New("resource state conflict")

// ErrConfiguration indicates an invalid book name or numeric option at construction.
var ErrConfiguration = errors.New("invalid configuration")

// ErrPathTooDeep indicates an account path with more segments than the book allows.
var ErrPathTooDeep = errors.New("account path is too deep")

// ErrInvalidJournal indicates an entry whose credits and debits do not net to zero.
var ErrInvalidJournal = errors.New("invalid journal")

// ErrPersistence indicates that the underlying store rejected a write.
var ErrPersistence = errors.New("persistence error")

// ErrJournalNotFound indicates a journal id that does not resolve inside the caller's book.
var ErrJournalNotFound = fmt.Errorf("journal not found: %w", ErrNotFound)

// ErrJournalAlreadyVoided indicates a void attempt on a journal that is already voided.
var ErrJournalAlreadyVoided = fmt.Errorf("journal already voided: %w", ErrConflict)
