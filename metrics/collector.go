// Package metrics provides per-process ingestion metrics.
//
// The Collector accumulates counters across the sessions of one client.
// It is a leaf package with no internal dependencies; message kinds are
// recorded as plain strings.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Session lifecycle
	SessionsStarted    int64 `json:"sessions_started"`
	SessionsCompleted  int64 `json:"sessions_completed"`
	SessionsFailed     int64 `json:"sessions_failed"`
	SessionsRejected   int64 `json:"sessions_rejected"`
	ValidationFailures int64 `json:"validation_failures"`

	// Stream
	BytesReceived   int64            `json:"bytes_received"`
	FramesTotal     int64            `json:"frames_total"`
	FramesByKind    map[string]int64 `json:"frames_by_kind"`
	FramesPlainText int64            `json:"frames_plain_text"`

	// Archive
	ArchiveWriteSuccess int64 `json:"archive_write_success"`
	ArchiveWriteFailure int64 `json:"archive_write_failure"`

	// Adapter
	AdapterPublishSuccess int64 `json:"adapter_publish_success"`
	AdapterPublishFailure int64 `json:"adapter_publish_failure"`

	// Dimensions (informational, set at construction)
	Framing        string `json:"framing"`
	StorageBackend string `json:"storage_backend,omitempty"`
	Adapter        string `json:"adapter,omitempty"`
}

// Collector accumulates counters.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	sessionsStarted    int64
	sessionsCompleted  int64
	sessionsFailed     int64
	sessionsRejected   int64
	validationFailures int64

	bytesReceived   int64
	framesTotal     int64
	framesByKind    map[string]int64
	framesPlainText int64

	archiveWriteSuccess int64
	archiveWriteFailure int64

	adapterPublishSuccess int64
	adapterPublishFailure int64

	framing        string
	storageBackend string
	adapter        string
}

// NewCollector creates a Collector with dimension labels.
// storageBackend and adapter are empty when the feature is disabled.
func NewCollector(framing, storageBackend, adapter string) *Collector {
	return &Collector{
		framesByKind:   make(map[string]int64),
		framing:        framing,
		storageBackend: storageBackend,
		adapter:        adapter,
	}
}

func (c *Collector) inc(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// --- Session lifecycle ---

// IncSessionStarted records an accepted submission.
func (c *Collector) IncSessionStarted() {
	if c == nil {
		return
	}
	c.inc(&c.sessionsStarted)
}

// IncSessionCompleted records a session whose body ended cleanly.
func (c *Collector) IncSessionCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.sessionsCompleted)
}

// IncSessionFailed records a session ended by a transport failure.
func (c *Collector) IncSessionFailed() {
	if c == nil {
		return
	}
	c.inc(&c.sessionsFailed)
}

// IncSessionRejected records a submission refused because another
// session was live.
func (c *Collector) IncSessionRejected() {
	if c == nil {
		return
	}
	c.inc(&c.sessionsRejected)
}

// IncValidationFailure records a submission refused client-side.
func (c *Collector) IncValidationFailure() {
	if c == nil {
		return
	}
	c.inc(&c.validationFailures)
}

// --- Stream ---

// AddBytesReceived adds n body bytes.
func (c *Collector) AddBytesReceived(n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.mu.Lock()
	c.bytesReceived += n
	c.mu.Unlock()
}

// IncFrame records one classified frame of the given message kind.
// Frames classified as plain text also count as decode fallbacks.
func (c *Collector) IncFrame(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.framesTotal++
	c.framesByKind[kind]++
	if kind == "plain_text" {
		c.framesPlainText++
	}
	c.mu.Unlock()
}

// --- Archive ---
// Archive counters are per-call. One session archived is one write.

// IncArchiveWriteSuccess records a successful archive write.
func (c *Collector) IncArchiveWriteSuccess() {
	if c == nil {
		return
	}
	c.inc(&c.archiveWriteSuccess)
}

// IncArchiveWriteFailure records a failed archive write.
func (c *Collector) IncArchiveWriteFailure() {
	if c == nil {
		return
	}
	c.inc(&c.archiveWriteFailure)
}

// --- Adapter ---

// IncAdapterPublishSuccess records a delivered completion event.
func (c *Collector) IncAdapterPublishSuccess() {
	if c == nil {
		return
	}
	c.inc(&c.adapterPublishSuccess)
}

// IncAdapterPublishFailure records a completion event that could not be
// delivered.
func (c *Collector) IncAdapterPublishFailure() {
	if c == nil {
		return
	}
	c.inc(&c.adapterPublishFailure)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.framesByKind))
	for k, v := range c.framesByKind {
		byKind[k] = v
	}

	return Snapshot{
		SessionsStarted:    c.sessionsStarted,
		SessionsCompleted:  c.sessionsCompleted,
		SessionsFailed:     c.sessionsFailed,
		SessionsRejected:   c.sessionsRejected,
		ValidationFailures: c.validationFailures,

		BytesReceived:   c.bytesReceived,
		FramesTotal:     c.framesTotal,
		FramesByKind:    byKind,
		FramesPlainText: c.framesPlainText,

		ArchiveWriteSuccess: c.archiveWriteSuccess,
		ArchiveWriteFailure: c.archiveWriteFailure,

		AdapterPublishSuccess: c.adapterPublishSuccess,
		AdapterPublishFailure: c.adapterPublishFailure,

		Framing:        c.framing,
		StorageBackend: c.storageBackend,
		Adapter:        c.adapter,
	}
}
