// Package types defines the shared data model: classified messages,
// book content snapshots and the UI-visible session state.
package types

// MessageKind names a Message variant. Used for logging, metrics
// dimensions and recordings; never used for dispatch.
type MessageKind string

// Message kind constants, one per variant.
const (
	KindStarting         MessageKind = "starting"
	KindProcessing       MessageKind = "processing"
	KindComplete         MessageKind = "complete"
	KindError            MessageKind = "error"
	KindStructuredUpdate MessageKind = "structured_update"
	KindPlainText        MessageKind = "plain_text"
)

// Message is the classified interpretation of one frame.
//
// The variant set is closed: only types in this package implement it,
// so a type switch over the six variants below is exhaustive.
type Message interface {
	Kind() MessageKind
	message()
}

// Starting reports that the service accepted the submission.
type Starting struct {
	Text string
}

// Processing reports intermediate service progress.
type Processing struct {
	Text string
}

// Complete reports that the service finished the submission.
type Complete struct {
	Text string
}

// Error reports a service-side failure, or a transport failure
// synthesized by the session guard.
type Error struct {
	Text string
}

// StructuredUpdate carries full-replace snapshots of the derived
// book content. A nil collection means the frame did not carry that
// field; an empty non-nil collection clears it.
type StructuredUpdate struct {
	Chapters   []Chapter
	Characters []Character
}

// PlainText is display text appended to the transcript verbatim.
type PlainText struct {
	Text string
}

func (Starting) Kind() MessageKind         { return KindStarting }
func (Processing) Kind() MessageKind       { return KindProcessing }
func (Complete) Kind() MessageKind         { return KindComplete }
func (Error) Kind() MessageKind            { return KindError }
func (StructuredUpdate) Kind() MessageKind { return KindStructuredUpdate }
func (PlainText) Kind() MessageKind        { return KindPlainText }

func (Starting) message()         {}
func (Processing) message()       {}
func (Complete) message()         {}
func (Error) message()            {}
func (StructuredUpdate) message() {}
func (PlainText) message()        {}
