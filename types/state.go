package types

// Status is the coarse session status label shown to the user.
type Status string

// Status constants.
const (
	StatusIdle       Status = "idle"
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Progress values assigned by the reducer on status messages.
const (
	ProgressStarting   = 10
	ProgressProcessing = 50
	ProgressComplete   = 100
)

// ErrorPrefix is prepended to transcript entries produced by Error messages.
const ErrorPrefix = "Error: "

// FileSelectedPrefix starts the transcript entry that opens an upload.
const FileSelectedPrefix = "File selected: "

// UIState is everything the presentation layer renders.
//
// Values are treated as immutable once published: the reducer never
// mutates the slices of a state it was handed.
type UIState struct {
	// Transcript is append-only display text, in arrival order.
	Transcript []string `json:"transcript" yaml:"transcript"`
	// Chapters is the latest chapter snapshot.
	Chapters []Chapter `json:"chapters" yaml:"chapters"`
	// Characters is the latest character snapshot.
	Characters []Character `json:"characters" yaml:"characters"`
	// Progress is a percentage in [0,100].
	Progress int `json:"progress" yaml:"progress"`
	// Status is the current status label.
	Status Status `json:"status" yaml:"status"`
	// Live is true while a session is in flight.
	Live bool `json:"live" yaml:"live"`
	// LocalError holds a client-side validation failure, if any.
	LocalError string `json:"local_error,omitempty" yaml:"local_error,omitempty"`
	// SessionID identifies the most recent session.
	SessionID string `json:"session_id,omitempty" yaml:"session_id,omitempty"`
}

// NewUIState returns the initial idle state.
func NewUIState() UIState {
	return UIState{Status: StatusIdle}
}
