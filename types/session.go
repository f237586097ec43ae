package types

import "time"

// Outcome classifies how a session ended.
type Outcome string

const (
	// OutcomeComplete means the body ended cleanly and the service did
	// not report an error.
	OutcomeComplete Outcome = "complete"
	// OutcomeServiceError means the body ended cleanly but the service
	// reported an error status.
	OutcomeServiceError Outcome = "service_error"
	// OutcomeTransportError means the request or the body failed.
	OutcomeTransportError Outcome = "transport_error"
)

// SessionInfo identifies one accepted submission.
type SessionInfo struct {
	ID        string    `json:"session_id" msgpack:"session_id" yaml:"session_id"`
	Kind      string    `json:"kind" msgpack:"kind" yaml:"kind"`
	Endpoint  string    `json:"endpoint" msgpack:"endpoint" yaml:"endpoint"`
	Framing   string    `json:"framing" msgpack:"framing" yaml:"framing"`
	StartedAt time.Time `json:"started_at" msgpack:"started_at" yaml:"started_at"`
	// Document is the base name of the uploaded file. Empty for chat.
	Document string `json:"document,omitempty" msgpack:"document,omitempty" yaml:"document,omitempty"`
}

// SessionSummary is the record of a finished session handed to
// downstream consumers.
type SessionSummary struct {
	Info    SessionInfo   `json:"info" yaml:"info"`
	Outcome Outcome       `json:"outcome" yaml:"outcome"`
	Error   string        `json:"error,omitempty" yaml:"error,omitempty"`
	EndedAt time.Time     `json:"ended_at" yaml:"ended_at"`
	Elapsed time.Duration `json:"duration_ns" yaml:"duration"`
	Frames  int64         `json:"frames" yaml:"frames"`
	Bytes   int64         `json:"bytes" yaml:"bytes"`
	// Entries are the transcript lines this session appended.
	Entries []string `json:"entries" yaml:"entries"`
	// State is the UI state when the session ended.
	State UIState `json:"state" yaml:"state"`
}
