package service

import (
	"errors"
	"fmt"
)

var (
	// ErrMerchantNotBound is returned when a step past the first is committed
	// before a merchant record exists for the session.
	ErrMerchantNotBound = errors.New("no merchant record bound to session")
	// ErrFinalStep is returned by Next on the last step
	ErrFinalStep = errors.New("final step reached, submit the application instead")
	// ErrNotAtFinalStep is returned by Submit before the last step
	ErrNotAtFinalStep = errors.New("submit is only available on the final step")
	// ErrUnknownSection is returned for a draft update naming no known section
	ErrUnknownSection = errors.New("unknown draft section")
	// ErrInvalidDocumentField is returned for an upload into a field that does not hold a document
	ErrInvalidDocumentField = errors.New("field does not accept document uploads")
	// ErrUploadSuperseded is returned when the session draft was reset or
	// reloaded while a document upload was in progress
	ErrUploadSuperseded = errors.New("session draft changed during upload")
	// ErrInvalidPresign is returned when fileName or fileType is missing
	ErrInvalidPresign = errors.New("fileName and fileType are required")
	// ErrEmptyPatch is returned when a merchant patch changes nothing
	ErrEmptyPatch = errors.New("patch contains no fields")
	// ErrInvalidLead is returned when a lead has no name
	ErrInvalidLead = errors.New("lead name is required")
	// ErrEmptyNote is returned when a note has no text
	ErrEmptyNote = errors.New("note text is required")
)

// PersistenceError wraps a failed repository call. Its message is the
// underlying message unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// UploadError reports a failed document upload. The target field keeps its
// previous value.
type UploadError struct {
	Field string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %s: %v", e.Field, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
