package iox

import (
	"errors"
	"testing"
)

type spyCloser struct {
	closed bool
	err    error
	order  *[]string
	name   string
}

func (s *spyCloser) Close() error {
	s.closed = true
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	return s.err
}

func TestDiscardClose(t *testing.T) {
	s := &spyCloser{err: errors.New("ignored")}
	DiscardClose(s)
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseFunc(t *testing.T) {
	s := &spyCloser{}
	fn := CloseFunc(s)
	if s.closed {
		t.Fatal("Close called before invoking returned func")
	}
	fn()
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestDiscardErr(t *testing.T) {
	called := false
	DiscardErr(func() error {
		called = true
		return errors.New("ignored")
	})
	if !called {
		t.Fatal("fn was not called")
	}
}

func TestStack_ClosesInReverse(t *testing.T) {
	var order []string
	var s Stack
	s.Push(&spyCloser{order: &order, name: "client"})
	s.Push(nil)
	s.Push(&spyCloser{order: &order, name: "file"})
	s.Push(&spyCloser{order: &order, name: "notifier"})

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3 (nil skipped)", s.Len())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := []string{"notifier", "file", "client"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("close order = %v, want %v", order, want)
		}
	}
	if s.Len() != 0 {
		t.Errorf("stack should be empty after Close")
	}
}

func TestStack_JoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	ok := &spyCloser{}

	var s Stack
	s.Push(&spyCloser{err: errA})
	s.Push(ok)
	s.Push(&spyCloser{err: errB})

	err := s.Close()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("Close error = %v, want both a and b", err)
	}
	if !ok.closed {
		t.Error("a failing closer must not stop the rest")
	}
}
