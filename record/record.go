// Package record persists the raw frames of sessions for later replay.
//
// A recording is a sequence of length-prefixed msgpack records
// (4-byte big-endian length, then payload). Each session contributes a
// header record, one frame record per classified frame and an end
// record. Several sessions may share one recording.
package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/corpus/types"
)

// Record size constants.
const (
	// MaxRecordSize is the maximum record size (16 MiB), including length prefix.
	MaxRecordSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxRecordSize - 4 bytes).
	MaxPayloadSize = MaxRecordSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// Record type discriminants.
const (
	TypeHeader = "header"
	TypeFrame  = "frame"
	TypeEnd    = "end"
)

// Header opens a session in a recording.
type Header struct {
	Type    string            `msgpack:"type"`
	Version string            `msgpack:"version"`
	Session types.SessionInfo `msgpack:"session"`
}

// Frame is one raw frame, in arrival order.
type Frame struct {
	Type string `msgpack:"type"`
	Seq  int64  `msgpack:"seq"`
	Text string `msgpack:"text"`
}

// End closes a session in a recording.
type End struct {
	Type    string        `msgpack:"type"`
	Outcome types.Outcome `msgpack:"outcome"`
	Frames  int64         `msgpack:"frames"`
	Error   string        `msgpack:"error,omitempty"`
}

// FrameErrorKind classifies recording decode errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete record.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a record exceeding MaxRecordSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error.
	FrameErrorDecode
	// FrameErrorSequence indicates records out of session order.
	FrameErrorSequence
)

// FrameError represents a recording decode error.
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

// IsPartial reports whether err is a truncated record. A recording cut
// off by a crash ends this way; every record before it is intact.
func IsPartial(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.Kind == FrameErrorPartial
	}
	return false
}

// encodeRecord marshals v and prepends the length prefix.
func encodeRecord(v any) ([]byte, error) {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}
	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	return buf, nil
}

// Decoder reads length-prefixed records from a stream.
type Decoder struct {
	reader io.Reader
}

// NewDecoder creates a new record decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: r}
}

// ReadRecord reads a single raw record payload.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more records)
//   - *FrameError with Kind=FrameErrorPartial: incomplete record
//   - *FrameError with Kind=FrameErrorTooLarge: record exceeds limit
func (d *Decoder) ReadRecord() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	_, err = io.ReadFull(d.reader, payload)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return payload, nil
}

// typeProbe peeks at the type field without a full decode.
type typeProbe struct {
	Type string `msgpack:"type"`
}

// Decode decodes a payload into *Header, *Frame or *End.
func Decode(payload []byte) (any, error) {
	var probe typeProbe
	if err := msgpack.Unmarshal(payload, &probe); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode record type",
			Err:  err,
		}
	}

	var target any
	switch probe.Type {
	case TypeHeader:
		target = &Header{}
	case TypeFrame:
		target = &Frame{}
	case TypeEnd:
		target = &End{}
	default:
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("unknown record type %q", probe.Type),
		}
	}

	if err := msgpack.Unmarshal(payload, target); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("failed to decode %s record", probe.Type),
			Err:  err,
		}
	}
	return target, nil
}
