package record

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pithecene-io/corpus/types"
)

// Writer appends sessions to a recording. Safe for use by one session
// at a time; the mutex guards against a reader of Frames().
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	open   bool
	frames int64
}

// NewWriter creates a writer that appends records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Begin writes the session header.
func (w *Writer) Begin(info types.SessionInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.open {
		return errors.New("record: session already open")
	}
	if err := w.write(&Header{Type: TypeHeader, Version: types.RecordingVersion, Session: info}); err != nil {
		return err
	}
	w.open = true
	w.frames = 0
	return nil
}

// Frame writes one raw frame.
func (w *Writer) Frame(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.open {
		return errors.New("record: frame outside session")
	}
	w.frames++
	return w.write(&Frame{Type: TypeFrame, Seq: w.frames, Text: text})
}

// End writes the end record and closes the session. cause is the
// error that ended the session early, or nil.
func (w *Writer) End(outcome types.Outcome, cause error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.open {
		return errors.New("record: end outside session")
	}
	w.open = false
	end := &End{Type: TypeEnd, Outcome: outcome, Frames: w.frames}
	if cause != nil {
		end.Error = cause.Error()
	}
	return w.write(end)
}

// Frames returns the number of frames written in the open session.
func (w *Writer) Frames() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

func (w *Writer) write(v any) error {
	buf, err := encodeRecord(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(buf); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
