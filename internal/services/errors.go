package services

import (
	"errors"
	"fmt"
)

// Error taxonomy for the submission pipeline. The codec and admission layers
// fail fast with these before any state is written; the engine maps ledger
// outcomes onto them after the fact.
var (
	// ErrInvalidSignature covers length, format and recovery mismatches.
	// Fatal: the request is discarded and never submitted.
	ErrInvalidSignature = errors.New("invalid delegation signature")
	// ErrExpiredDeadline is returned at intake and re-checked at submission.
	ErrExpiredDeadline = errors.New("delegation deadline has elapsed")
	// ErrInvalidTransition is returned on an attempt to move a request out of
	// a terminal state.
	ErrInvalidTransition = errors.New("invalid request state transition")
	// ErrAlreadySubmitted rejects a resubmission while a transaction is in
	// flight; reconcile against the ledger before retrying.
	ErrAlreadySubmitted = errors.New("request already submitted, awaiting terminal receipt")
	// ErrSubmissionReverted means the ledger rejected the whole call before
	// execution. The request returns to pending; quota is not refunded.
	ErrSubmissionReverted = errors.New("submission reverted on-chain")
	// ErrSubmissionTimedOut means no terminal receipt arrived within the
	// operator timeout. The outcome is ambiguous: reconcile, never blind-retry.
	ErrSubmissionTimedOut = errors.New("submission timed out awaiting receipt")
	// ErrExecutorUnavailable means the preferred executor could not be
	// constructed. Fatal only when the fallback also fails.
	ErrExecutorUnavailable = errors.New("preferred attestation executor unavailable")
	// ErrNoPendingRequests is returned by the batch path when a context has
	// nothing to submit.
	ErrNoPendingRequests = errors.New("no pending requests for context")
)

// AdmissionDeniedError carries the typed denial so callers can present an
// accurate, reason-specific message.
type AdmissionDeniedError struct {
	Decision *AdmissionDecision
}

func (e *AdmissionDeniedError) Error() string {
	return fmt.Sprintf("admission denied: %s", e.Decision.Reason)
}
