package frame

import (
	"fmt"
	"strings"
)

// Framing selects how chunk boundaries relate to frame boundaries.
type Framing string

const (
	// FramingLine carries a partial trailing line forward into the next
	// chunk. Frames may straddle chunk boundaries. This is the default.
	FramingLine Framing = "line"
	// FramingChunk splits every chunk independently and emits its
	// trailing partial line at once. Only correct for services that
	// write exactly one complete frame group per chunk.
	FramingChunk Framing = "chunk"
)

// ParseFraming parses a framing name. Empty selects FramingLine.
func ParseFraming(s string) (Framing, error) {
	switch Framing(strings.ToLower(s)) {
	case FramingLine, "":
		return FramingLine, nil
	case FramingChunk:
		return FramingChunk, nil
	default:
		return "", fmt.Errorf("invalid framing: %q (must be line or chunk)", s)
	}
}

// Splitter splits decoded text into newline-delimited frames.
type Splitter struct {
	framing Framing
	pending strings.Builder
}

// NewSplitter creates a splitter for the given framing mode.
func NewSplitter(framing Framing) *Splitter {
	if framing == "" {
		framing = FramingLine
	}
	return &Splitter{framing: framing}
}

// Split returns the complete frames found in text. Under FramingLine the
// final unterminated element becomes the pending remainder and is not
// returned. Blank frames are dropped.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	if s.framing == FramingChunk {
		return appendFrames(nil, strings.Split(text, "\n"))
	}

	s.pending.WriteString(text)
	if strings.IndexByte(text, '\n') < 0 {
		return nil
	}

	buffered := s.pending.String()
	last := strings.LastIndexByte(buffered, '\n')
	s.pending.Reset()
	s.pending.WriteString(buffered[last+1:])

	return appendFrames(nil, strings.Split(buffered[:last], "\n"))
}

// Flush returns the pending remainder as a final frame, if it is not
// blank, and clears it. Called once the body is exhausted.
func (s *Splitter) Flush() []string {
	rest := s.pending.String()
	s.pending.Reset()
	return appendFrames(nil, []string{rest})
}

// Pending returns the number of bytes held as the partial frame.
func (s *Splitter) Pending() int {
	return s.pending.Len()
}

// Reset discards the pending remainder.
func (s *Splitter) Reset() {
	s.pending.Reset()
}

func appendFrames(dst []string, lines []string) []string {
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		dst = append(dst, line)
	}
	return dst
}
