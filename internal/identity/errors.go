package identity

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload is matched by every MalformedPayloadError.
var ErrMalformedPayload = errors.New("malformed identity payload")

// MalformedPayloadError means the payload lacks structure that no default can repair.
type MalformedPayloadError struct {
	EventType EventType
	Reason    string
	Err       error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s payload: %s: %v", e.EventType, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s payload: %s", e.EventType, e.Reason)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

func (e *MalformedPayloadError) Is(target error) bool { return target == ErrMalformedPayload }

// ErrPersistence is matched by every PersistenceError.
var ErrPersistence = errors.New("identity persistence failure")

// PersistenceError wraps a store failure, including a write that ran past its deadline.
type PersistenceError struct {
	Op         string
	ExternalID string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s user %s: %v", e.Op, e.ExternalID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
