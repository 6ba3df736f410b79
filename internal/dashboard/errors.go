package dashboard

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/kasboard/internal/store"
)

// Error classes. Callers classify with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")

	// ErrPersistence is store.ErrPersistence, so either name matches.
	ErrPersistence = store.ErrPersistence
)

// Specific validation failures.
var (
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	ErrMemberRequired  = fmt.Errorf("%w: member is required for this source", ErrValidation)
	ErrInvalidSource   = fmt.Errorf("%w: unknown source", ErrValidation)
	ErrNameRequired    = fmt.Errorf("%w: name is required", ErrValidation)
	ErrContactRequired = fmt.Errorf("%w: contact is required", ErrValidation)
	ErrInvalidPosition = fmt.Errorf("%w: unknown position", ErrValidation)
)
