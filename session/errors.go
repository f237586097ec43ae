package session

import (
	"errors"
)

// ErrBusy is returned by Submit while another session is live.
var ErrBusy = errors.New("a session is already in progress")

// IngestionError classifies why a live session ended early.
type IngestionError struct {
	// Kind indicates which part of the stream failed.
	Kind IngestionErrorKind
	// Err is the underlying error.
	Err error
}

// IngestionErrorKind classifies ingestion errors.
type IngestionErrorKind int

const (
	// IngestionErrorTransport indicates the request could not be opened,
	// was answered with a non-2xx status, or its body failed mid-read.
	IngestionErrorTransport IngestionErrorKind = iota
	// IngestionErrorCanceled indicates context cancellation.
	IngestionErrorCanceled
	// IngestionErrorFrame indicates a frame exceeded the size limit.
	IngestionErrorFrame
)

func (e *IngestionError) Error() string {
	return e.Err.Error()
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// IsTransportError returns true if the error is a transport failure.
func IsTransportError(err error) bool {
	var ingErr *IngestionError
	if errors.As(err, &ingErr) {
		return ingErr.Kind == IngestionErrorTransport
	}
	return false
}

// IsCanceledError returns true if the error is due to context cancellation.
func IsCanceledError(err error) bool {
	var ingErr *IngestionError
	if errors.As(err, &ingErr) {
		return ingErr.Kind == IngestionErrorCanceled
	}
	return false
}

// IsFrameError returns true if the error is an oversized frame.
func IsFrameError(err error) bool {
	var ingErr *IngestionError
	if errors.As(err, &ingErr) {
		return ingErr.Kind == IngestionErrorFrame
	}
	return false
}
