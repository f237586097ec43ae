// Package state folds classified messages into UI-visible state.
//
// Reduce is pure. Store is the single container that holds cumulative
// state for one client and publishes snapshots to subscribers.
package state

import (
	"fmt"

	"github.com/pithecene-io/corpus/types"
)

// Reduce returns the state that results from applying msg to s.
//
// The returned state never shares backing arrays with s, so a state
// handed to a subscriber stays valid after later reductions.
func Reduce(s types.UIState, msg types.Message) types.UIState {
	next := s

	switch m := msg.(type) {
	case types.Starting:
		next.Status = types.StatusStarting
		next.Progress = types.ProgressStarting
		next.Transcript = appendEntry(s.Transcript, m.Text)
	case types.Processing:
		next.Status = types.StatusProcessing
		next.Progress = types.ProgressProcessing
		next.Transcript = appendEntry(s.Transcript, m.Text)
	case types.Complete:
		next.Status = types.StatusComplete
		next.Progress = types.ProgressComplete
		next.Transcript = appendEntry(s.Transcript, m.Text)
	case types.Error:
		next.Status = types.StatusError
		next.Transcript = appendEntry(s.Transcript, types.ErrorPrefix+m.Text)
	case types.StructuredUpdate:
		if m.Chapters != nil {
			next.Chapters = append([]types.Chapter(nil), m.Chapters...)
			if next.Chapters == nil {
				next.Chapters = []types.Chapter{}
			}
		}
		if m.Characters != nil {
			next.Characters = append([]types.Character(nil), m.Characters...)
			if next.Characters == nil {
				next.Characters = []types.Character{}
			}
		}
	case types.PlainText:
		next.Transcript = appendEntry(s.Transcript, m.Text)
	default:
		panic(fmt.Sprintf("state: unhandled message type %T", msg))
	}

	return next
}

// Finalize marks a stream that ended cleanly as complete unless the
// service already reported an error. No transcript entry is added.
func Finalize(s types.UIState) types.UIState {
	if s.Status == types.StatusError {
		return s
	}
	s.Status = types.StatusComplete
	s.Progress = types.ProgressComplete
	return s
}

// appendEntry copies the transcript before appending so the input's
// backing array is never written.
func appendEntry(transcript []string, entry string) []string {
	out := make([]string, len(transcript), len(transcript)+1)
	copy(out, transcript)
	return append(out, entry)
}
