package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pithecene-io/corpus/iox"
)

// DefaultTimeout bounds the wait for response headers.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a non-2xx body is kept for the error.
const maxErrorBody = 512

// Config configures the service client.
type Config struct {
	// BaseURL is the service root, e.g. http://localhost:8000 (required).
	BaseURL string
	// Headers are added to every request.
	Headers map[string]string
	// Timeout bounds the wait for response headers (default 30s).
	// The body itself may stream for as long as the service keeps it open.
	Timeout time.Duration
}

// Client opens streaming submissions.
type Client struct {
	base    *url.URL
	headers map[string]string
	client  *http.Client
}

// New creates a client. Returns an error if the base URL is missing or
// malformed.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("transport requires a base URL")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	rt := http.DefaultTransport.(*http.Transport).Clone()
	rt.ResponseHeaderTimeout = cfg.Timeout

	return &Client{
		base:    base,
		headers: cfg.Headers,
		client:  &http.Client{Transport: rt},
	}, nil
}

// URL returns the absolute URL for an endpoint.
func (c *Client) URL(endpoint string) string {
	return c.base.JoinPath(endpoint).String()
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Open issues req and returns the response body for streaming reads.
// The caller must close the body. Cancelling ctx aborts an in-flight
// read with ctx's error.
func (c *Client) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	body, contentType, err := c.encode(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(req.Endpoint), body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			iox.DiscardClose(rc)
		}
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer iox.DiscardClose(resp.Body)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	return resp.Body, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) encode(req Request) (io.Reader, string, error) {
	switch req.Kind {
	case KindChat:
		payload, err := json.Marshal(struct {
			UserInput string `json:"user_input"`
		}{req.Text})
		if err != nil {
			return nil, "", fmt.Errorf("marshal chat input: %w", err)
		}
		return bytes.NewReader(payload), "application/json", nil
	case KindUpload:
		return multipartBody(req.Path, req.MIMEType)
	default:
		return nil, "", fmt.Errorf("unknown request kind %q", req.Kind)
	}
}

// multipartBody streams the document as a single "file" form field.
// The file is opened up front so a vanished file fails before the
// request is sent.
func multipartBody(path, mimeType string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer iox.DiscardClose(f)

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     "file",
			"filename": filepath.Base(path),
		}))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		header.Set("Content-Type", mimeType)

		part, err := mw.CreatePart(header)
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, mw.FormDataContentType(), nil
}
