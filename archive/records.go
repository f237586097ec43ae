package archive

import (
	"encoding/json"
	"fmt"

	"github.com/pithecene-io/corpus/types"
)

// Record kind discriminators. Also the record_kind partition value.
const (
	RecordKindTranscriptEntry = "transcript_entry"
	RecordKindSessionSummary  = "session_summary"
)

// dayFormat is the layout of the day partition key.
const dayFormat = "2006-01-02"

// timeFormat is fixed-width so timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// TranscriptEntryRecord is one transcript line appended by a session.
type TranscriptEntryRecord struct {
	RecordKind string `json:"record_kind"`
	Version    string `json:"version"`
	SessionID  string `json:"session_id"`
	Day        string `json:"day"`
	Seq        int    `json:"seq"`
	Text       string `json:"text"`
}

// SessionSummaryRecord is the final state and outcome of a session.
type SessionSummaryRecord struct {
	RecordKind string            `json:"record_kind"`
	Version    string            `json:"version"`
	SessionID  string            `json:"session_id"`
	Day        string            `json:"day"`
	Kind       string            `json:"kind"`
	Endpoint   string            `json:"endpoint"`
	Framing    string            `json:"framing"`
	Document   string            `json:"document,omitempty"`
	StartedAt  string            `json:"started_at"`
	EndedAt    string            `json:"ended_at"`
	DurationMs int64             `json:"duration_ms"`
	Outcome    string            `json:"outcome"`
	Error      string            `json:"error,omitempty"`
	Status     string            `json:"status"`
	Progress   int               `json:"progress"`
	Frames     int64             `json:"frames"`
	Bytes      int64             `json:"bytes"`
	Entries    int               `json:"entries"`
	Chapters   []types.Chapter   `json:"chapters"`
	Characters []types.Character `json:"characters"`
}

// sessionDay returns the day partition for a session.
func sessionDay(info types.SessionInfo) string {
	return info.StartedAt.UTC().Format(dayFormat)
}

// toRecordMaps converts a summary into the records of one snapshot.
// Lode HiveLayout requires records as map[string]any.
func toRecordMaps(s *types.SessionSummary) []any {
	day := sessionDay(s.Info)
	records := make([]any, 0, len(s.Entries)+1)

	for i, text := range s.Entries {
		records = append(records, map[string]any{
			"record_kind": RecordKindTranscriptEntry,
			"version":     types.Version,
			"session_id":  s.Info.ID,
			"day":         day,
			"seq":         i + 1,
			"text":        text,
		})
	}

	chapters := s.State.Chapters
	if chapters == nil {
		chapters = []types.Chapter{}
	}
	characters := s.State.Characters
	if characters == nil {
		characters = []types.Character{}
	}

	summary := map[string]any{
		"record_kind": RecordKindSessionSummary,
		"version":     types.Version,
		"session_id":  s.Info.ID,
		"day":         day,
		"kind":        s.Info.Kind,
		"endpoint":    s.Info.Endpoint,
		"framing":     s.Info.Framing,
		"started_at":  s.Info.StartedAt.UTC().Format(timeFormat),
		"ended_at":    s.EndedAt.UTC().Format(timeFormat),
		"duration_ms": s.Elapsed.Milliseconds(),
		"outcome":     string(s.Outcome),
		"status":      string(s.State.Status),
		"progress":    s.State.Progress,
		"frames":      s.Frames,
		"bytes":       s.Bytes,
		"entries":     len(s.Entries),
		"chapters":    chapters,
		"characters":  characters,
	}
	if s.Error != "" {
		summary["error"] = s.Error
	}
	if s.Info.Document != "" {
		summary["document"] = s.Info.Document
	}
	records = append(records, summary)

	return records
}

// decodeRecord converts a raw record read back from the dataset into v.
func decodeRecord(raw map[string]any, v any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("re-encode record: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %v record: %w", raw["record_kind"], err)
	}
	return nil
}
