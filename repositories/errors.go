package repositories

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("event not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidField      = errors.New("field cannot be queried or updated")
	ErrStoreClosed       = errors.New("event store closed")
)

// StoreError wraps every failure returned by an EventStore.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("event store %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("event store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Retryable reports whether resubmitting the same operation may succeed.
// Network, quota and permission failures are retryable; a missing document or
// a refused write is not.
func (e *StoreError) Retryable() bool {
	return !errors.Is(e.Err, ErrNotFound) &&
		!errors.Is(e.Err, ErrInvalidTransition) &&
		!errors.Is(e.Err, ErrInvalidField) &&
		!errors.Is(e.Err, ErrStoreClosed)
}

func storeErr(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, ID: id, Err: err}
}
