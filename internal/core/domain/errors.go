package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFileNotFound indicates a manual ingestion referenced a path that does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedType indicates a file extension no extraction strategy handles.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNoTextLayer indicates a PDF parsed cleanly but carried no extractable text.
	ErrNoTextLayer = errors.New("pdf has no text layer")

	// ErrStoreUnavailable indicates the record store could not be reached.
	// Raised during ledger seeding, it prevents the service from becoming ready.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// OCR Errors.

	// ErrOCRUnavailable indicates no OCR provider is configured.
	// Callers treat this as permanent for the process lifetime, never as transient.
	ErrOCRUnavailable = errors.New("OCR provider unavailable")

	// ErrOCRTimeout indicates an OCR job did not reach a terminal state
	// within the configured number of polls.
	ErrOCRTimeout = errors.New("OCR job timed out")
)

// OCRJobFailedError reports an OCR job that reached a terminal state other than success.
type OCRJobFailedError struct {
	// Status is the terminal status reported by the provider.
	Status string
}

// Error implements the error interface.
func (e *OCRJobFailedError) Error() string {
	return fmt.Sprintf("OCR job failed with status: %s", e.Status)
}

// IsOCRJobFailed reports whether err carries an OCRJobFailedError.
func IsOCRJobFailed(err error) (*OCRJobFailedError, bool) {
	var jf *OCRJobFailedError
	if errors.As(err, &jf) {
		return jf, true
	}
	return nil, false
}
