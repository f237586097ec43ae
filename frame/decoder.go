// Package frame turns a raw chunked response body into discrete text frames.
//
// Three stages, each stateless apart from its carried-forward remainder:
//   - Decoder: bytes to UTF-8 text, carrying split multi-byte sequences
//   - Splitter: text to newline-delimited frames, carrying the partial line
//   - Reader: pulls chunks from an io.Reader and yields frames one at a time
package frame

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder decodes a UTF-8 byte stream chunk by chunk.
//
// A multi-byte sequence split across two chunks is held back as carry
// state and completed by the next chunk, so it never decodes to U+FFFD.
// Genuinely invalid bytes are replaced with U+FFFD rather than failing.
type Decoder struct {
	t     transform.Transformer
	carry []byte
}

// NewDecoder creates a decoder with empty carry state.
func NewDecoder() *Decoder {
	return &Decoder{t: unicode.UTF8.NewDecoder()}
}

// Decode decodes chunk, prefixed by any carry from the previous call.
// An incomplete trailing sequence is retained as carry.
func (d *Decoder) Decode(chunk []byte) string {
	return d.decode(chunk, false)
}

// Flush decodes whatever carry remains, treating it as the end of the
// stream. A truncated trailing sequence becomes U+FFFD.
func (d *Decoder) Flush() string {
	if len(d.carry) == 0 {
		return ""
	}
	return d.decode(nil, true)
}

// Pending returns the number of carried bytes awaiting completion.
func (d *Decoder) Pending() int {
	return len(d.carry)
}

// Reset discards carry state so the decoder can serve a new stream.
func (d *Decoder) Reset() {
	d.carry = nil
	d.t.Reset()
}

func (d *Decoder) decode(chunk []byte, atEOF bool) string {
	src := make([]byte, 0, len(d.carry)+len(chunk))
	src = append(src, d.carry...)
	src = append(src, chunk...)
	d.carry = nil

	if len(src) == 0 {
		return ""
	}

	var out strings.Builder
	// Worst case every byte is invalid and expands to a 3-byte U+FFFD.
	dst := make([]byte, 3*len(src)+utf8.UTFMax)

	for {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out.Write(dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			return out.String()
		case errors.Is(err, transform.ErrShortSrc):
			d.carry = append([]byte(nil), src...)
			return out.String()
		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				dst = make([]byte, 2*len(dst))
			}
		default:
			// The UTF-8 decoder only reports short buffers; anything else
			// is passed through undecoded so no byte is lost.
			out.Write(src)
			return out.String()
		}
	}
}
