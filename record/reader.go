package record

import (
	"errors"
	"fmt"
	"io"

	"github.com/pithecene-io/corpus/classify"
	"github.com/pithecene-io/corpus/state"
	"github.com/pithecene-io/corpus/transport"
	"github.com/pithecene-io/corpus/types"
)

// Session is one recorded session.
type Session struct {
	Header Header
	Frames []string
	// End is nil when the recording stops before the session closed.
	End *End
}

// ReadSessions decodes every session in r.
//
// A truncated final record returns the sessions decoded so far together
// with a partial *FrameError, so a recording cut off mid-write still
// replays up to the break.
func ReadSessions(r io.Reader) ([]Session, error) {
	dec := NewDecoder(r)
	var sessions []Session
	var cur *Session

	for {
		payload, err := dec.ReadRecord()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return sessions, err
		}

		rec, err := Decode(payload)
		if err != nil {
			return sessions, err
		}

		switch v := rec.(type) {
		case *Header:
			if v.Version != types.RecordingVersion {
				return sessions, &FrameError{
					Kind: FrameErrorDecode,
					Msg:  fmt.Sprintf("unsupported recording version %q", v.Version),
				}
			}
			sessions = append(sessions, Session{Header: *v})
			cur = &sessions[len(sessions)-1]
		case *Frame:
			if cur == nil || cur.End != nil {
				return sessions, &FrameError{Kind: FrameErrorSequence, Msg: "frame record outside session"}
			}
			if want := int64(len(cur.Frames) + 1); v.Seq != want {
				return sessions, &FrameError{
					Kind: FrameErrorSequence,
					Msg:  fmt.Sprintf("frame seq %d, want %d", v.Seq, want),
				}
			}
			cur.Frames = append(cur.Frames, v.Text)
		case *End:
			if cur == nil || cur.End != nil {
				return sessions, &FrameError{Kind: FrameErrorSequence, Msg: "end record outside session"}
			}
			cur.End = v
		}
	}

	return sessions, nil
}

// Replay folds the recorded frames of sess into s, as the live session
// did. A transport failure is replayed as its error entry; upload
// sessions that ended cleanly are finalized.
func Replay(s types.UIState, sess Session) types.UIState {
	s.SessionID = sess.Header.Session.ID
	s.Status = types.StatusIdle
	s.Progress = 0
	s.LocalError = ""
	if doc := sess.Header.Session.Document; doc != "" {
		s = state.Reduce(s, types.PlainText{Text: types.FileSelectedPrefix + doc})
	}

	for _, f := range sess.Frames {
		s = state.Reduce(s, classify.Classify(f))
	}

	if sess.End == nil {
		return s
	}
	if sess.End.Outcome == types.OutcomeTransportError {
		return state.Reduce(s, types.Error{Text: sess.End.Error})
	}
	if sess.Header.Session.Kind == string(transport.KindUpload) {
		s = state.Finalize(s)
	}
	return s
}
