// Package adapter defines the completion-notification boundary.
//
// Adapters publish a SessionCompletedEvent to a downstream system after
// each session ends. The client owns adapter lifecycle; users provide
// configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/corpus/types"
)

// EventTypeSessionCompleted is the event_type of every published event.
const EventTypeSessionCompleted = "session_completed"

// SessionCompletedEvent is the payload published when a session ends.
type SessionCompletedEvent struct {
	Version    string `json:"version"`
	EventType  string `json:"event_type"` // always "session_completed"
	SessionID  string `json:"session_id"`
	Kind       string `json:"kind"` // chat or upload
	Endpoint   string `json:"endpoint"`
	Outcome    string `json:"outcome"` // complete, service_error, transport_error
	Error      string `json:"error,omitempty"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Chapters   int    `json:"chapters"`
	Characters int    `json:"characters"`
	Entries    int    `json:"entries"`
	FrameCount int64  `json:"frame_count"`
	ByteCount  int64  `json:"byte_count"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"` // ISO 8601, end of session
}

// NewSessionCompletedEvent builds the event for a finished session.
func NewSessionCompletedEvent(s *types.SessionSummary) *SessionCompletedEvent {
	return &SessionCompletedEvent{
		Version:    types.Version,
		EventType:  EventTypeSessionCompleted,
		SessionID:  s.Info.ID,
		Kind:       s.Info.Kind,
		Endpoint:   s.Info.Endpoint,
		Outcome:    string(s.Outcome),
		Error:      s.Error,
		Status:     string(s.State.Status),
		Progress:   s.State.Progress,
		Chapters:   len(s.State.Chapters),
		Characters: len(s.State.Characters),
		Entries:    len(s.Entries),
		FrameCount: s.Frames,
		ByteCount:  s.Bytes,
		DurationMs: s.Elapsed.Milliseconds(),
		Timestamp:  s.EndedAt.UTC().Format(time.RFC3339),
	}
}

// Adapter publishes session completion events to a downstream system.
type Adapter interface {
	// Publish sends a session completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *SessionCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Notifier announces finished sessions through an Adapter.
type Notifier struct {
	adapter Adapter
}

// NewNotifier wraps a.
func NewNotifier(a Adapter) *Notifier {
	return &Notifier{adapter: a}
}

// NotifySession publishes the completion event for s.
func (n *Notifier) NotifySession(ctx context.Context, s *types.SessionSummary) error {
	return n.adapter.Publish(ctx, NewSessionCompletedEvent(s))
}

// Close closes the underlying adapter.
func (n *Notifier) Close() error {
	return n.adapter.Close()
}
