package frame

import (
	"reflect"
	"testing"
)

func TestSplitter_CompleteLines(t *testing.T) {
	s := NewSplitter(FramingLine)
	got := s.Split("one\ntwo\n")
	want := []string{"one", "two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %q, want %q", got, want)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", s.Pending())
	}
}

func TestSplitter_CarriesRemainder(t *testing.T) {
	s := NewSplitter(FramingLine)

	if got := s.Split(`{"status":"sta`); len(got) != 0 {
		t.Fatalf("Split partial = %q, want no frames", got)
	}
	got := s.Split("rting\",\"message\":\"A\"}\nnext")
	want := []string{`{"status":"starting","message":"A"}`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %q, want %q", got, want)
	}

	if flushed := s.Flush(); !reflect.DeepEqual(flushed, []string{"next"}) {
		t.Errorf("Flush = %q, want [next]", flushed)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending after Flush = %d, want 0", s.Pending())
	}
}

func TestSplitter_DropsBlankFrames(t *testing.T) {
	s := NewSplitter(FramingLine)
	got := s.Split("a\n\n   \n\tb\n")
	want := []string{"a", "\tb"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %q, want %q", got, want)
	}
}

func TestSplitter_StripsCarriageReturn(t *testing.T) {
	s := NewSplitter(FramingLine)
	got := s.Split("a\r\nb\r\n")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %q, want %q", got, want)
	}
}

func TestSplitter_FlushBlankRemainder(t *testing.T) {
	s := NewSplitter(FramingLine)
	s.Split("a\n  ")
	if got := s.Flush(); len(got) != 0 {
		t.Errorf("Flush = %q, want no frames", got)
	}
}

func TestSplitter_ChunkFraming(t *testing.T) {
	s := NewSplitter(FramingChunk)

	// Each chunk stands alone: the unterminated tail is emitted at once.
	got := s.Split("Processing chunk 1/2")
	if !reflect.DeepEqual(got, []string{"Processing chunk 1/2"}) {
		t.Errorf("Split = %q", got)
	}
	got = s.Split("x\ny")
	if !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Split = %q", got)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending = %d, want 0 in chunk framing", s.Pending())
	}
	if flushed := s.Flush(); len(flushed) != 0 {
		t.Errorf("Flush = %q, want none", flushed)
	}
}

func TestSplitter_Reset(t *testing.T) {
	s := NewSplitter(FramingLine)
	s.Split("partial")
	s.Reset()
	if got := s.Flush(); len(got) != 0 {
		t.Errorf("Flush after Reset = %q, want none", got)
	}
}

func TestParseFraming(t *testing.T) {
	tests := []struct {
		input   string
		want    Framing
		wantErr bool
	}{
		{"", FramingLine, false},
		{"line", FramingLine, false},
		{"LINE", FramingLine, false},
		{"chunk", FramingChunk, false},
		{"sse", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFraming(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFraming(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFraming(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
