package session

import (
	"errors"
	"fmt"
)

// Errors returned by Controller operations. Store failures are always
// wrapped in a StoreError before they leave this package; parse failures
// surface as parser.ErrNoPrompts.
var (
	ErrNoListLoaded    = errors.New("no list loaded")
	ErrUnknownList     = errors.New("unknown list")
	ErrNotListOwner    = errors.New("list is owned by another user")
	ErrNotSignedIn     = errors.New("not signed in")
	ErrEmptyPromptText = errors.New("prompt text must not be empty")
	ErrEmptyListName   = errors.New("list name must not be empty")
	ErrIndexOutOfRange = errors.New("prompt index out of range")
	ErrNotPersisted    = errors.New("active list is not persisted")
)

// StoreError is a document-store failure translated for the presentation
// layer. Op names the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
