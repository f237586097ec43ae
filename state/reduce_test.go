package state

import (
	"reflect"
	"testing"

	"github.com/pithecene-io/corpus/classify"
	"github.com/pithecene-io/corpus/types"
)

func reduceFrames(s types.UIState, frames ...string) types.UIState {
	for _, f := range frames {
		s = Reduce(s, classify.Classify(f))
	}
	return s
}

func TestReduce_StatusSequence(t *testing.T) {
	s := reduceFrames(types.NewUIState(),
		`{"status":"starting","message":"A"}`,
		`{"status":"processing","message":"B"}`,
		`{"status":"complete","message":"C"}`,
	)

	if s.Progress != 100 {
		t.Errorf("Progress = %d, want 100", s.Progress)
	}
	if s.Status != types.StatusComplete {
		t.Errorf("Status = %q, want %q", s.Status, types.StatusComplete)
	}
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(s.Transcript, want) {
		t.Errorf("Transcript = %v, want %v", s.Transcript, want)
	}
}

func TestReduce_ProgressPerStatus(t *testing.T) {
	tests := []struct {
		msg          types.Message
		wantProgress int
		wantStatus   types.Status
	}{
		{types.Starting{Text: "s"}, 10, types.StatusStarting},
		{types.Processing{Text: "p"}, 50, types.StatusProcessing},
		{types.Complete{Text: "c"}, 100, types.StatusComplete},
	}
	for _, tt := range tests {
		t.Run(string(tt.msg.Kind()), func(t *testing.T) {
			got := Reduce(types.NewUIState(), tt.msg)
			if got.Progress != tt.wantProgress || got.Status != tt.wantStatus {
				t.Errorf("got progress=%d status=%q, want %d %q",
					got.Progress, got.Status, tt.wantProgress, tt.wantStatus)
			}
		})
	}
}

func TestReduce_PlainText(t *testing.T) {
	start := types.NewUIState()
	start.Progress = 50
	start.Status = types.StatusProcessing

	got := reduceFrames(start, "not json at all")

	if !reflect.DeepEqual(got.Transcript, []string{"not json at all"}) {
		t.Errorf("Transcript = %v", got.Transcript)
	}
	if got.Status != types.StatusProcessing || got.Progress != 50 {
		t.Errorf("status/progress changed: %q %d", got.Status, got.Progress)
	}
}

func TestReduce_ErrorKeepsProgress(t *testing.T) {
	start := types.NewUIState()
	start.Progress = 50

	got := Reduce(start, types.Error{Text: "boom"})

	if got.Status != types.StatusError {
		t.Errorf("Status = %q, want error", got.Status)
	}
	if got.Progress != 50 {
		t.Errorf("Progress = %d, want 50", got.Progress)
	}
	if !reflect.DeepEqual(got.Transcript, []string{"Error: boom"}) {
		t.Errorf("Transcript = %v", got.Transcript)
	}
}

func TestReduce_ChaptersReplace(t *testing.T) {
	start := types.NewUIState()
	start.Chapters = []types.Chapter{{ID: 9, Name: "Old"}, {ID: 10, Name: "Older"}}
	start.Characters = []types.Character{{Name: "Kept"}}

	got := reduceFrames(start, `{"chapters":[{"id":1,"name":"One","summary":"s"}]}`)

	wantChapters := []types.Chapter{{ID: 1, Name: "One", Summary: "s"}}
	if !reflect.DeepEqual(got.Chapters, wantChapters) {
		t.Errorf("Chapters = %v, want %v", got.Chapters, wantChapters)
	}
	if !reflect.DeepEqual(got.Characters, start.Characters) {
		t.Errorf("Characters = %v, want unchanged", got.Characters)
	}
	if len(got.Transcript) != 0 {
		t.Errorf("Transcript = %v, want empty", got.Transcript)
	}
}

func TestReduce_EmptyCollectionClears(t *testing.T) {
	start := types.NewUIState()
	start.Chapters = []types.Chapter{{ID: 1}}

	got := Reduce(start, types.StructuredUpdate{Chapters: []types.Chapter{}})

	if got.Chapters == nil || len(got.Chapters) != 0 {
		t.Errorf("Chapters = %#v, want empty non-nil", got.Chapters)
	}
}

func TestReduce_DoesNotAlias(t *testing.T) {
	base := types.NewUIState()
	base.Transcript = make([]string, 1, 8)
	base.Transcript[0] = "first"

	a := Reduce(base, types.PlainText{Text: "a"})
	b := Reduce(base, types.PlainText{Text: "b"})

	if a.Transcript[1] != "a" || b.Transcript[1] != "b" {
		t.Errorf("transcripts share storage: a=%v b=%v", a.Transcript, b.Transcript)
	}
	if len(base.Transcript) != 1 {
		t.Errorf("input mutated: %v", base.Transcript)
	}

	chapters := []types.Chapter{{ID: 1, Name: "x"}}
	c := Reduce(base, types.StructuredUpdate{Chapters: chapters})
	chapters[0].Name = "mutated"
	if c.Chapters[0].Name != "x" {
		t.Errorf("state aliases message chapters")
	}
}

func TestReduce_Deterministic(t *testing.T) {
	frames := []string{
		`{"status":"starting"}`,
		"plain line",
		`{"chapters":[{"id":1,"name":"One","summary":""}]}`,
		`{"characters":[{"name":"Ann","arc":"","physical_desc":"","psychological_desc":""}]}`,
		`{"status":"processing","message":"half"}`,
		`{"status":"error","message":"oops"}`,
		`[1,2,3]`,
		`{"status":"complete"}`,
	}

	first := reduceFrames(types.NewUIState(), frames...)
	second := reduceFrames(types.NewUIState(), frames...)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("replays differ:\n%#v\n%#v", first, second)
	}
}

func TestFinalize(t *testing.T) {
	s := types.NewUIState()
	s.Status = types.StatusProcessing
	s.Progress = 50
	s.Transcript = []string{"x"}

	got := Finalize(s)
	if got.Status != types.StatusComplete || got.Progress != 100 {
		t.Errorf("got %q %d, want complete 100", got.Status, got.Progress)
	}
	if len(got.Transcript) != 1 {
		t.Errorf("Finalize added transcript entries: %v", got.Transcript)
	}

	s.Status = types.StatusError
	got = Finalize(s)
	if got.Status != types.StatusError || got.Progress != 50 {
		t.Errorf("Finalize overrode error state: %q %d", got.Status, got.Progress)
	}
}
