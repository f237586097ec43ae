package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("line", "fs", "webhook")

	c.IncSessionStarted()
	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionFailed()
	c.IncSessionRejected()
	c.IncValidationFailure()
	c.IncValidationFailure()
	c.AddBytesReceived(100)
	c.AddBytesReceived(-5)
	c.IncFrame("starting")
	c.IncFrame("plain_text")
	c.IncFrame("plain_text")
	c.IncArchiveWriteSuccess()
	c.IncArchiveWriteFailure()
	c.IncAdapterPublishSuccess()
	c.IncAdapterPublishFailure()
	c.IncAdapterPublishFailure()

	s := c.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"SessionsStarted", s.SessionsStarted, 2},
		{"SessionsCompleted", s.SessionsCompleted, 1},
		{"SessionsFailed", s.SessionsFailed, 1},
		{"SessionsRejected", s.SessionsRejected, 1},
		{"ValidationFailures", s.ValidationFailures, 2},
		{"BytesReceived", s.BytesReceived, 100},
		{"FramesTotal", s.FramesTotal, 3},
		{"FramesPlainText", s.FramesPlainText, 2},
		{"FramesByKind[starting]", s.FramesByKind["starting"], 1},
		{"FramesByKind[plain_text]", s.FramesByKind["plain_text"], 2},
		{"ArchiveWriteSuccess", s.ArchiveWriteSuccess, 1},
		{"ArchiveWriteFailure", s.ArchiveWriteFailure, 1},
		{"AdapterPublishSuccess", s.AdapterPublishSuccess, 1},
		{"AdapterPublishFailure", s.AdapterPublishFailure, 2},
	}
	for _, ck := range checks {
		if ck.got != ck.want {
			t.Errorf("%s = %d, want %d", ck.name, ck.got, ck.want)
		}
	}

	if s.Framing != "line" || s.StorageBackend != "fs" || s.Adapter != "webhook" {
		t.Errorf("dimensions = %q/%q/%q", s.Framing, s.StorageBackend, s.Adapter)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	c.IncSessionStarted()
	c.IncSessionCompleted()
	c.IncSessionFailed()
	c.IncSessionRejected()
	c.IncValidationFailure()
	c.AddBytesReceived(1)
	c.IncFrame("error")
	c.IncArchiveWriteSuccess()
	c.IncArchiveWriteFailure()
	c.IncAdapterPublishSuccess()
	c.IncAdapterPublishFailure()

	if s := c.Snapshot(); s.SessionsStarted != 0 || s.FramesByKind != nil {
		t.Errorf("nil collector snapshot = %+v", s)
	}
}

func TestCollector_SnapshotIsolation(t *testing.T) {
	c := NewCollector("line", "", "")
	c.IncFrame("complete")

	s := c.Snapshot()
	s.FramesByKind["complete"] = 99

	c.IncFrame("complete")
	if got := c.Snapshot().FramesByKind["complete"]; got != 2 {
		t.Errorf("FramesByKind[complete] = %d, want 2", got)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector("line", "", "")
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncFrame("processing")
				c.AddBytesReceived(2)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.FramesTotal != 1000 {
		t.Errorf("FramesTotal = %d, want 1000", s.FramesTotal)
	}
	if s.BytesReceived != 2000 {
		t.Errorf("BytesReceived = %d, want 2000", s.BytesReceived)
	}
}
