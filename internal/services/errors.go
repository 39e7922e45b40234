package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jovanglig/aigeniusresume/internal/schemas"
)

var (
	ErrEmptyDocument       = errors.New("no extractable text in document")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

type Kind string

const (
	KindDocumentParse     Kind = "document_parse"
	KindCompletion        Kind = "completion"
	KindCompletionTimeout Kind = "completion_timeout"
	KindMalformedResponse Kind = "malformed_response"
	KindValidation        Kind = "validation"
	KindOverloaded        Kind = "overloaded"
	KindInternal          Kind = "internal"
)

// DocumentParseError means the upload could not be turned into text.
// It is never retried.
type DocumentParseError struct {
	Reason string
	Cause  error
}

func (e *DocumentParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document parse failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("document parse failed: %s", e.Reason)
}

func (e *DocumentParseError) Unwrap() error {
	return e.Cause
}

// CompletionError is a transport, auth or provider failure talking to the LLM.
type CompletionError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s completion failed (status %d): %v", e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Cause)
}

func (e *CompletionError) Unwrap() error {
	return e.Cause
}

type CompletionTimeoutError struct {
	Timeout time.Duration
	Cause   error
}

func (e *CompletionTimeoutError) Error() string {
	return fmt.Sprintf("completion timed out after %s", e.Timeout)
}

func (e *CompletionTimeoutError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError means the model replied without a usable JSON payload.
type MalformedResponseError struct {
	Reason string
	Cause  error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// ValidationError is the schema package's error, re-exported so callers of
// the pipeline only import services.
type ValidationError = schemas.ValidationError

type FieldError = schemas.FieldError

// IsRetryable reports whether the completion call that produced err may be
// attempted again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var timeoutErr *CompletionTimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}

	var completionErr *CompletionError
	if errors.As(err, &completionErr) {
		return completionErr.Retryable
	}

	return false
}

// ErrorKind classifies an error coming out of the analysis pipeline.
func ErrorKind(err error) Kind {
	var (
		docErr        *DocumentParseError
		timeoutErr    *CompletionTimeoutError
		completionErr *CompletionError
		malformedErr  *MalformedResponseError
		validationErr *ValidationError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &docErr):
		return KindDocumentParse
	case errors.As(err, &timeoutErr):
		return KindCompletionTimeout
	case errors.As(err, &completionErr):
		return KindCompletion
	case errors.As(err, &malformedErr):
		return KindMalformedResponse
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.Is(err, ErrPoolFull), errors.Is(err, ErrPoolStopped):
		return KindOverloaded
	default:
		return KindInternal
	}
}
