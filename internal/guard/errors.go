package guard

import (
	"fmt"
)

// Reason classifies why an upload was rejected.
type Reason string

const (
	ReasonDuplicate         Reason = "duplicate"
	ReasonSimilar           Reason = "similar"
	ReasonInvalidType       Reason = "invalid-type"
	ReasonInvalidSize       Reason = "invalid-size"
	ReasonInvalidMetadata   Reason = "invalid-metadata"
	ReasonInvalidDimensions Reason = "invalid-dimensions"
)

// ValidationError is a client-correctable rejection.
type ValidationError struct {
	Reason  Reason
	Message string

	// Similarity is set for ReasonSimilar.
	Similarity *SimilarityInfo

	// Cause is the underlying extraction error, if any.
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// StorageError reports a persistence failure; the upload may be retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConflictError means the store rejected the write because the same owner
// committed identical content concurrently.
type ConflictError struct {
	OwnerID     string
	ContentHash string
	Err         error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("identical content %s was stored concurrently for owner %s", shortHash(e.ContentHash), e.OwnerID)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func invalid(reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
