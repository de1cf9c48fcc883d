package sync

import (
	"errors"
	"fmt"
)

// ErrCredentialExpired signals that the account's access token lapsed
// mid-walk. Distinct from a refresh failure: the run needs a fresh token
// before any further call can succeed.
var ErrCredentialExpired = errors.New("access token expired")

// FetchExhaustedError is returned when the retry budget is spent.
type FetchExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("fetch failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *FetchExhaustedError) Unwrap() error { return e.Cause }

// CredentialRefreshError wraps a failed refresh-token exchange.
type CredentialRefreshError struct {
	AccountKey string
	Cause      error
}

func (e *CredentialRefreshError) Error() string {
	return fmt.Sprintf("credential refresh for account %s: %v", e.AccountKey, e.Cause)
}

func (e *CredentialRefreshError) Unwrap() error { return e.Cause }

// AssociationLookupError wraps a failed contact->company batch lookup.
// A lookup that succeeds but finds no match is not an error.
type AssociationLookupError struct {
	Cause error
}

func (e *AssociationLookupError) Error() string {
	return fmt.Sprintf("association lookup: %v", e.Cause)
}

func (e *AssociationLookupError) Unwrap() error { return e.Cause }

// MalformedRecordError marks a record missing a field the walk cannot
// progress without. Must fail the job rather than silently drop the
// watermark.
type MalformedRecordError struct {
	RecordID string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q: %s", e.RecordID, e.Reason)
}

// JobError carries the entity type a failure happened in.
type JobError struct {
	Entity string
	Cause  error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Entity, e.Cause)
}

func (e *JobError) Unwrap() error { return e.Cause }

// RunError annotates a failure with the account and the step it aborted in.
type RunError struct {
	AccountKey string
	Operation  string
	Cause      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("account %s: %s: %v", e.AccountKey, e.Operation, e.Cause)
}

func (e *RunError) Unwrap() error { return e.Cause }
