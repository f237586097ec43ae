package frame

import (
	"errors"
	"fmt"
	"io"
)

// Size limits for the pull loop.
const (
	// DefaultChunkSize is the read buffer size used per body read.
	DefaultChunkSize = 32 * 1024
	// MaxFrameSize bounds a single frame (16 MiB). A partial frame that
	// grows past this without a newline is a stream error.
	MaxFrameSize = 16 * 1024 * 1024
)

// FrameErrorKind classifies frame reading errors.
type FrameErrorKind int

const (
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge FrameErrorKind = iota
	// FrameErrorRead indicates the underlying body read failed.
	FrameErrorRead
)

// FrameError represents a frame reading error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsTooLarge returns true if err is an oversized frame error.
func IsTooLarge(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.Kind == FrameErrorTooLarge
	}
	return false
}

// Reader pulls chunks from a body and yields complete frames in order.
// Each call to Next suspends only while reading the next chunk.
type Reader struct {
	src      io.Reader
	buf      []byte
	decoder  *Decoder
	splitter *Splitter

	queue []string
	err   error // deferred until queued frames are drained
	done  bool

	bytesRead int64
	chunks    int64
}

// NewReader creates a frame reader over r using the given framing mode.
func NewReader(r io.Reader, framing Framing) *Reader {
	return &Reader{
		src:      r,
		buf:      make([]byte, DefaultChunkSize),
		decoder:  NewDecoder(),
		splitter: NewSplitter(framing),
	}
}

// Next returns the next frame.
//
// Errors:
//   - io.EOF: body exhausted and every frame, including the final
//     unterminated one, has been returned
//   - *FrameError with Kind=FrameErrorRead: the body read failed
//   - *FrameError with Kind=FrameErrorTooLarge: a frame exceeded MaxFrameSize
//
// Frames decoded before a read error are returned before the error.
func (r *Reader) Next() (string, error) {
	for len(r.queue) == 0 {
		if r.err != nil {
			return "", r.err
		}
		if r.done {
			return "", io.EOF
		}
		r.fill()
	}

	frame := r.queue[0]
	r.queue = r.queue[1:]
	return frame, nil
}

// BytesRead returns the number of body bytes consumed so far.
func (r *Reader) BytesRead() int64 {
	return r.bytesRead
}

// Chunks returns the number of non-empty body reads so far.
func (r *Reader) Chunks() int64 {
	return r.chunks
}

// fill performs one body read and queues the frames it completes.
func (r *Reader) fill() {
	n, err := r.src.Read(r.buf)
	if n > 0 {
		r.bytesRead += int64(n)
		r.chunks++
		text := r.decoder.Decode(r.buf[:n])
		r.queue = append(r.queue, r.splitter.Split(text)...)

		if r.splitter.Pending() > MaxFrameSize {
			r.err = &FrameError{
				Kind: FrameErrorTooLarge,
				Msg:  fmt.Sprintf("partial frame of %d bytes exceeds maximum %d", r.splitter.Pending(), MaxFrameSize),
			}
			return
		}
	}

	switch {
	case err == nil:
		return
	case errors.Is(err, io.EOF):
		r.queue = append(r.queue, r.splitter.Split(r.decoder.Flush())...)
		r.queue = append(r.queue, r.splitter.Flush()...)
		r.done = true
	default:
		r.err = &FrameError{
			Kind: FrameErrorRead,
			Msg:  "failed to read response body",
			Err:  err,
		}
	}
}
