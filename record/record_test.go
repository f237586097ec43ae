package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/corpus/classify"
	"github.com/pithecene-io/corpus/state"
	"github.com/pithecene-io/corpus/types"
)

func sessionInfo(id, kind string) types.SessionInfo {
	return types.SessionInfo{
		ID:        id,
		Kind:      kind,
		Endpoint:  "send_input",
		Framing:   "line",
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func writeSession(t *testing.T, w *Writer, info types.SessionInfo, outcome types.Outcome, cause error, frames ...string) {
	t.Helper()
	if err := w.Begin(info); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, f := range frames {
		if err := w.Frame(f); err != nil {
			t.Fatalf("Frame: %v", err)
		}
	}
	if err := w.End(outcome, cause); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func TestWriterReader_Sessions(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	writeSession(t, w, sessionInfo("s1", "chat"), types.OutcomeComplete, nil,
		`{"status":"starting","message":"A"}`, "plain")
	writeSession(t, w, sessionInfo("s2", "upload"), types.OutcomeTransportError, errors.New("connection reset"),
		`{"status":"processing"}`)

	sessions, err := ReadSessions(&buf)
	if err != nil {
		t.Fatalf("ReadSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}

	first := sessions[0]
	if first.Header.Session.ID != "s1" || first.Header.Version != types.RecordingVersion {
		t.Errorf("header = %+v", first.Header)
	}
	if !first.Header.Session.StartedAt.Equal(sessionInfo("", "").StartedAt) {
		t.Errorf("StartedAt = %v", first.Header.Session.StartedAt)
	}
	if !reflect.DeepEqual(first.Frames, []string{`{"status":"starting","message":"A"}`, "plain"}) {
		t.Errorf("frames = %v", first.Frames)
	}
	if first.End == nil || first.End.Outcome != types.OutcomeComplete || first.End.Frames != 2 {
		t.Errorf("end = %+v", first.End)
	}

	second := sessions[1]
	if second.End == nil || second.End.Error != "connection reset" {
		t.Errorf("end = %+v", second.End)
	}
}

func TestWriter_Misuse(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	if err := w.Frame("x"); err == nil {
		t.Error("Frame before Begin succeeded")
	}
	if err := w.End(types.OutcomeComplete, nil); err == nil {
		t.Error("End before Begin succeeded")
	}
	if err := w.Begin(sessionInfo("a", "chat")); err != nil {
		t.Fatal(err)
	}
	if err := w.Begin(sessionInfo("b", "chat")); err == nil {
		t.Error("nested Begin succeeded")
	}
}

func TestReadSessions_Truncated(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Begin(sessionInfo("s1", "chat")); err != nil {
		t.Fatal(err)
	}
	if err := w.Frame("one"); err != nil {
		t.Fatal(err)
	}
	if err := w.Frame("two"); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()[:buf.Len()-2]
	sessions, err := ReadSessions(bytes.NewReader(data))
	if !IsPartial(err) {
		t.Fatalf("err = %v, want partial", err)
	}
	if len(sessions) != 1 || !reflect.DeepEqual(sessions[0].Frames, []string{"one"}) {
		t.Errorf("sessions = %+v", sessions)
	}
	if sessions[0].End != nil {
		t.Error("End set on unterminated session")
	}
}

func TestDecoder_TooLarge(t *testing.T) {
	var prefix [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], MaxPayloadSize+1)

	_, err := NewDecoder(bytes.NewReader(prefix[:])).ReadRecord()

	var fe *FrameError
	if !errors.As(err, &fe) || fe.Kind != FrameErrorTooLarge {
		t.Fatalf("err = %v, want too large", err)
	}
}

func TestDecode_UnknownType(t *testing.T) {
	payload, err := msgpack.Marshal(map[string]any{"type": "bogus"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Decode(payload)

	var fe *FrameError
	if !errors.As(err, &fe) || fe.Kind != FrameErrorDecode {
		t.Fatalf("err = %v, want decode error", err)
	}
}

func TestReadSessions_FrameOutsideSession(t *testing.T) {
	rec, err := encodeRecord(&Frame{Type: TypeFrame, Seq: 1, Text: "orphan"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = ReadSessions(bytes.NewReader(rec))

	var fe *FrameError
	if !errors.As(err, &fe) || fe.Kind != FrameErrorSequence {
		t.Fatalf("err = %v, want sequence error", err)
	}
}

func TestReadSessions_VersionMismatch(t *testing.T) {
	rec, err := encodeRecord(&Header{Type: TypeHeader, Version: "99", Session: sessionInfo("s", "chat")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSessions(bytes.NewReader(rec)); err == nil {
		t.Error("want error for unsupported version")
	}
}

func TestReplay_MatchesLiveReduction(t *testing.T) {
	frames := []string{
		`{"status":"starting","message":"A"}`,
		`{"status":"processing","message":"B"}`,
		`{"chapters":[{"id":1,"name":"One","summary":"s"}]}`,
		"not json at all",
	}

	live := types.NewUIState()
	for _, f := range frames {
		live = state.Reduce(live, classify.Classify(f))
	}
	live = state.Finalize(live)

	sess := Session{
		Header: Header{Type: TypeHeader, Version: types.RecordingVersion, Session: sessionInfo("s1", "upload")},
		Frames: frames,
		End:    &End{Type: TypeEnd, Outcome: types.OutcomeComplete, Frames: int64(len(frames))},
	}
	got := Replay(types.NewUIState(), sess)
	live.SessionID = "s1"

	if !reflect.DeepEqual(got, live) {
		t.Errorf("replay = %+v\nlive   = %+v", got, live)
	}
	if Replay(types.NewUIState(), sess).Progress != 100 {
		t.Error("upload replay not finalized")
	}
}

func TestReplay_TransportError(t *testing.T) {
	sess := Session{
		Header: Header{Session: sessionInfo("s1", "chat")},
		Frames: []string{`{"status":"processing"}`},
		End:    &End{Outcome: types.OutcomeTransportError, Error: "unexpected EOF"},
	}

	got := Replay(types.NewUIState(), sess)

	want := []string{"Processing...", "Error: unexpected EOF"}
	if !reflect.DeepEqual(got.Transcript, want) {
		t.Errorf("Transcript = %v, want %v", got.Transcript, want)
	}
	if got.Status != types.StatusError {
		t.Errorf("Status = %q", got.Status)
	}
}

func TestReplay_StatusRestartsAfterError(t *testing.T) {
	failed := Session{
		Header: Header{Session: sessionInfo("s1", "chat")},
		Frames: []string{`{"status":"error","message":"bad"}`},
		End:    &End{Outcome: types.OutcomeServiceError},
	}
	clean := Session{
		Header: Header{Session: sessionInfo("s2", "upload")},
		Frames: []string{"all good"},
		End:    &End{Outcome: types.OutcomeComplete},
	}

	got := Replay(Replay(types.NewUIState(), failed), clean)

	if got.Status != types.StatusComplete || got.Progress != 100 {
		t.Errorf("state = %q %d, want complete 100", got.Status, got.Progress)
	}
}

func TestReplay_UploadOpensWithFileSelected(t *testing.T) {
	info := sessionInfo("s1", "upload")
	info.Document = "moby.txt"
	sess := Session{
		Header: Header{Session: info},
		Frames: []string{`{"status":"starting","message":"Reading"}`},
		End:    &End{Outcome: types.OutcomeComplete},
	}

	got := Replay(types.NewUIState(), sess)

	want := []string{"File selected: moby.txt", "Reading"}
	if !reflect.DeepEqual(got.Transcript, want) {
		t.Errorf("Transcript = %v, want %v", got.Transcript, want)
	}
}
