package notify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct{ refreshes atomic.Int64 }

func (c *countingSink) Refresh(ctx context.Context) { c.refreshes.Add(1) }

func TestMarkDirtyCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()
	sink := &countingSink{}
	d.Register(sink)

	for i := 0; i < 10; i++ {
		d.MarkDirty()
	}

	deadline := time.Now().Add(time.Second)
	for sink.refreshes.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// A burst of marks inside the window fires exactly once.
	time.Sleep(50 * time.Millisecond)
	if got := sink.refreshes.Load(); got != 1 {
		t.Fatalf("refreshes = %d, want 1", got)
	}
}

func TestMarkDirtyFiresAgainAfterWindow(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	defer d.Stop()
	sink := &countingSink{}
	d.Register(sink)

	d.MarkDirty()
	time.Sleep(50 * time.Millisecond)
	d.MarkDirty()
	time.Sleep(50 * time.Millisecond)

	if got := sink.refreshes.Load(); got != 2 {
		t.Fatalf("refreshes = %d, want 2", got)
	}
}

func TestFlushRunsPendingRefresh(t *testing.T) {
	d := NewDebouncer(time.Hour)
	defer d.Stop()
	sink := &countingSink{}
	d.Register(sink)

	d.MarkDirty()
	d.Flush()
	if got := sink.refreshes.Load(); got != 1 {
		t.Fatalf("refreshes after flush = %d, want 1", got)
	}

	// Nothing pending: flush is a no-op.
	d.Flush()
	if got := sink.refreshes.Load(); got != 1 {
		t.Fatalf("refreshes after empty flush = %d, want 1", got)
	}
}

func TestStopDropsMarks(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)
	sink := &countingSink{}
	d.Register(sink)

	d.Stop()
	d.MarkDirty()
	time.Sleep(30 * time.Millisecond)
	if got := sink.refreshes.Load(); got != 0 {
		t.Fatalf("stopped debouncer fired %d times", got)
	}
}
