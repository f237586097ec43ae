// Package iox holds small io helpers for releasing streams, clients and
// files.
package iox

import (
	"errors"
	"io"
)

// DiscardClose closes c and ignores the error. For defers where a close
// failure changes nothing:
//
//	defer iox.DiscardClose(resp.Body)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc adapts c for t.Cleanup:
//
//	t.Cleanup(iox.CloseFunc(client))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr runs fn and ignores its error (e.g. logger Sync on exit).
func DiscardErr(fn func() error) { _ = fn() }

// Stack closes resources in reverse order of Push. The zero value is
// ready to use.
type Stack struct {
	closers []io.Closer
}

// Push adds c to the stack. Nil closers are skipped.
func (s *Stack) Push(c io.Closer) {
	if c != nil {
		s.closers = append(s.closers, c)
	}
}

// Len returns the number of resources still held.
func (s *Stack) Len() int {
	return len(s.closers)
}

// Close closes every resource, last pushed first, and empties the
// stack. All close errors are joined.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
