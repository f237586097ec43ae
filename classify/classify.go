// Package classify maps decoded frames to typed messages.
//
// Classification is total: every frame yields exactly one Message.
// A frame that is not JSON is display text, not an error.
package classify

import (
	"bytes"
	"encoding/json"

	"github.com/pithecene-io/corpus/types"
)

// Status values recognised in the "status" field.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusError      = "error"
)

// Default texts used when a status frame carries no message.
const (
	DefaultStartingText   = "Starting upload..."
	DefaultProcessingText = "Processing..."
	DefaultCompleteText   = "Processing complete"
	DefaultErrorText      = "An error occurred"
)

// statusProbe peeks at the fields that drive classification.
// RawMessage lets absent, null and non-string values be told apart.
type statusProbe struct {
	Status     json.RawMessage `json:"status"`
	Message    json.RawMessage `json:"message"`
	Chapters   json.RawMessage `json:"chapters"`
	Characters json.RawMessage `json:"characters"`
}

// Classify returns the Message for one complete frame. It never fails.
func Classify(frame string) types.Message {
	raw := []byte(frame)
	if !json.Valid(raw) {
		return types.PlainText{Text: frame}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		// Numbers, strings, arrays, booleans and null are valid JSON
		// but carry nothing to dispatch on.
		return types.PlainText{Text: compact(raw, frame)}
	}

	var probe statusProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return types.PlainText{Text: frame}
	}

	if present(probe.Status) {
		return classifyStatus(probe, raw, frame)
	}

	if len(probe.Chapters) > 0 || len(probe.Characters) > 0 {
		return classifyStructured(probe, raw, frame)
	}

	return types.PlainText{Text: compact(raw, frame)}
}

// classifyStatus handles a frame whose status field is set.
func classifyStatus(probe statusProbe, raw []byte, frame string) types.Message {
	var status string
	if err := json.Unmarshal(probe.Status, &status); err != nil {
		// Non-string status: nothing to switch on.
		return types.PlainText{Text: compact(raw, frame)}
	}

	text := messageText(probe.Message)

	switch status {
	case StatusStarting:
		return types.Starting{Text: orDefault(text, DefaultStartingText)}
	case StatusProcessing:
		return types.Processing{Text: orDefault(text, DefaultProcessingText)}
	case StatusComplete:
		return types.Complete{Text: orDefault(text, DefaultCompleteText)}
	case StatusError:
		return types.Error{Text: orDefault(text, DefaultErrorText)}
	default:
		return types.PlainText{Text: compact(raw, frame)}
	}
}

// classifyStructured decodes chapter and character snapshots. A field
// that is present but malformed downgrades the whole frame to text.
func classifyStructured(probe statusProbe, raw []byte, frame string) types.Message {
	var update types.StructuredUpdate

	if present(probe.Chapters) {
		chapters := []types.Chapter{}
		if err := json.Unmarshal(probe.Chapters, &chapters); err != nil {
			return types.PlainText{Text: compact(raw, frame)}
		}
		update.Chapters = chapters
	}

	if present(probe.Characters) {
		characters := []types.Character{}
		if err := json.Unmarshal(probe.Characters, &characters); err != nil {
			return types.PlainText{Text: compact(raw, frame)}
		}
		update.Characters = characters
	}

	if update.Chapters == nil && update.Characters == nil {
		// Both fields were null.
		return types.PlainText{Text: compact(raw, frame)}
	}

	return update
}

// present reports whether a raw field was set to something other than
// null or the empty string.
func present(field json.RawMessage) bool {
	if len(field) == 0 {
		return false
	}
	switch string(bytes.TrimSpace(field)) {
	case "null", `""`:
		return false
	}
	return true
}

// messageText extracts the message field when it is a string.
func messageText(field json.RawMessage) string {
	if len(field) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(field, &text); err != nil {
		return ""
	}
	return text
}

func orDefault(text, fallback string) string {
	if text == "" {
		return fallback
	}
	return text
}

// compact re-serializes a JSON frame without insignificant whitespace,
// preserving key order. Falls back to the raw frame.
func compact(raw []byte, frame string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return frame
	}
	return buf.String()
}
