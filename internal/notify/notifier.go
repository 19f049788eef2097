// Package notify implements the debounced recompute pass: mutations mark
// the ledger dirty, and one coalesced refresh fans out to the registered
// sinks after a short delay. Persistence is never debounced; only derived
// views ride this path.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sink receives one refresh per coalesced burst of mutations.
type Sink interface {
	Refresh(ctx context.Context)
}

// Debouncer coalesces MarkDirty calls: any number of marks inside the
// delay window produce exactly one refresh. Marks never block.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	sinks   []Sink
	pending *time.Timer
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Register adds a sink. Not safe to call concurrently with MarkDirty
// firing; register everything at startup.
func (d *Debouncer) Register(sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
}

// MarkDirty schedules a refresh. A refresh already pending absorbs the
// mark, so rapid mutations cost one recompute.
func (d *Debouncer) MarkDirty() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || d.pending != nil {
		return
	}
	d.pending = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.pending = nil
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.Unlock()

	ctx := context.Background()
	for _, sink := range sinks {
		sink.Refresh(ctx)
	}
	slog.DebugContext(ctx, "Refresh pass completed", "sinks", len(sinks))
}

// Flush runs any pending refresh immediately. Used on shutdown so a final
// mutation is not left unrendered.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()
	if pending != nil && pending.Stop() {
		d.fire()
	}
}

// Stop cancels any pending refresh and refuses new marks.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
