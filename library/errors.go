package library

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrNotHeld         = errors.New("book not held by member")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrConflict        = errors.New("conflict")

	// Both issue rejections are InvalidState; callers that care which one
	// happened can test for these directly.
	ErrAlreadyBorrowed = fmt.Errorf("%w: book already borrowed", ErrInvalidState)
	ErrNoCopies        = fmt.Errorf("%w: no copies left", ErrInvalidState)
)

func bookNotFound(id int64) error {
	return fmt.Errorf("book %d: %w", id, ErrNotFound)
}

func memberNotFound(id string) error {
	return fmt.Errorf("member %q: %w", id, ErrNotFound)
}
