package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the message does not exist or belongs to someone else.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: the message cannot be verified (wrong role, bad content).
	ErrInvalidState = errors.New("invalid state")
	// ErrMissingCredential: the requester has no LLM API key configured.
	ErrMissingCredential = errors.New("missing credential")
)

// PersistenceError wraps storage failures of the verification pipeline.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistenceErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
