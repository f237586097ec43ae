// Package transport opens streaming submissions against the ingestion
// service. It owns HTTP details only; bytes are handed back unread.
package transport

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// Kind distinguishes the two submission endpoints.
type Kind string

const (
	// KindChat posts free text as JSON.
	KindChat Kind = "chat"
	// KindUpload posts a document as multipart form data.
	KindUpload Kind = "upload"
)

// Default endpoint paths, relative to the service base URL.
const (
	DefaultChatEndpoint   = "send_input"
	DefaultUploadEndpoint = "read_a_book"
)

// DefaultMaxUploadBytes is the advisory upload ceiling.
const DefaultMaxUploadBytes int64 = 50 * 1000 * 1000

// AcceptedMIMETypes lists the document types the service reads.
var AcceptedMIMETypes = []string{
	"application/pdf",
	"application/epub+zip",
	"text/plain",
}

// AcceptedExtensions is the user-facing form of AcceptedMIMETypes.
const AcceptedExtensions = ".pdf,.epub,.txt"

// Request is one submission. Construct with NewChatRequest or
// NewUploadRequest.
type Request struct {
	Kind     Kind
	Endpoint string
	// Text is the chat input (KindChat).
	Text string
	// Path is the local document path (KindUpload).
	Path string
	// MIMEType is the detected document type (KindUpload).
	MIMEType string
}

// NewChatRequest builds a chat submission.
func NewChatRequest(endpoint, text string) Request {
	if endpoint == "" {
		endpoint = DefaultChatEndpoint
	}
	return Request{Kind: KindChat, Endpoint: endpoint, Text: text}
}

// NewUploadRequest validates the document at path and builds an upload
// submission. Returns a *ValidationError when the file is unusable.
func NewUploadRequest(endpoint, path string, maxBytes int64) (Request, error) {
	if endpoint == "" {
		endpoint = DefaultUploadEndpoint
	}
	mime, err := ValidateUpload(path, maxBytes)
	if err != nil {
		return Request{}, err
	}
	return Request{Kind: KindUpload, Endpoint: endpoint, Path: path, MIMEType: mime}, nil
}

// ValidationErrorKind classifies client-side rejections.
type ValidationErrorKind string

const (
	ValidationErrorEmpty       ValidationErrorKind = "empty"
	ValidationErrorMissing     ValidationErrorKind = "missing"
	ValidationErrorUnsupported ValidationErrorKind = "unsupported_type"
	ValidationErrorTooLarge    ValidationErrorKind = "too_large"
)

// ValidationError reports a submission rejected before any request.
type ValidationError struct {
	Kind ValidationErrorKind
	Path string
	Msg  string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks req before it is sent and returns it with the
// detected document type filled in. Upload documents are checked
// against maxBytes; see ValidateUpload.
func Validate(req Request, maxBytes int64) (Request, error) {
	switch req.Kind {
	case KindChat:
		if strings.TrimSpace(req.Text) == "" {
			return req, &ValidationError{Kind: ValidationErrorEmpty, Msg: "chat input is empty"}
		}
		return req, nil
	case KindUpload:
		if req.Path == "" {
			return req, &ValidationError{Kind: ValidationErrorMissing, Msg: "no file selected"}
		}
		mime, err := ValidateUpload(req.Path, maxBytes)
		if err != nil {
			return req, err
		}
		req.MIMEType = mime
		return req, nil
	default:
		return req, fmt.Errorf("unknown request kind %q", req.Kind)
	}
}

// ValidateUpload checks that path names a readable document of an
// accepted type within maxBytes. A maxBytes of zero or less applies
// DefaultMaxUploadBytes. Returns the detected MIME type.
func ValidateUpload(path string, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &ValidationError{
			Kind: ValidationErrorMissing,
			Path: path,
			Msg:  "cannot read file",
			Err:  err,
		}
	}
	if info.IsDir() {
		return "", &ValidationError{
			Kind: ValidationErrorMissing,
			Path: path,
			Msg:  fmt.Sprintf("%s is a directory", path),
		}
	}
	if info.Size() > maxBytes {
		return "", &ValidationError{
			Kind: ValidationErrorTooLarge,
			Path: path,
			Msg: fmt.Sprintf("file is %s, limit is %s",
				humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(maxBytes))),
		}
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", &ValidationError{
			Kind: ValidationErrorMissing,
			Path: path,
			Msg:  "cannot read file",
			Err:  err,
		}
	}
	// Text formats such as CSV and JSON detect as children of text/plain.
	for m := mt; m != nil; m = m.Parent() {
		for _, accepted := range AcceptedMIMETypes {
			if m.Is(accepted) {
				return accepted, nil
			}
		}
	}

	return "", &ValidationError{
		Kind: ValidationErrorUnsupported,
		Path: path,
		Msg:  fmt.Sprintf("invalid file type %s (accepted: %s)", mt.String(), AcceptedExtensions),
	}
}
