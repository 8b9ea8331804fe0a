// Package history keeps the bounded rolling window behind the uptime
// strip: one slot per fixed-width time bucket inside the current clock
// hour, latest observation per slot wins.
package history

import (
	"sync"
	"time"

	"github.com/telescope-ops/telescope/internal/domain/health"
)

const (
	DefaultSlotWidth = 2 * time.Minute
	DefaultSlotCount = 30
)

// Entry is one probe outcome placed on the strip.
type Entry struct {
	Timestamp time.Time     `json:"timestamp"`
	Status    health.Status `json:"status"`
	IsUp      bool          `json:"isUp"`
}

// Window is a fixed-size ring keyed by time slot. Safe for concurrent
// use by the poller and the HTTP handlers.
type Window struct {
	mu        sync.Mutex
	slotWidth time.Duration
	slotCount int
	start     time.Time
	slots     []*Entry

	now func() time.Time
}

func NewWindow(slotWidth time.Duration, slotCount int) *Window {
	if slotWidth <= 0 {
		slotWidth = DefaultSlotWidth
	}
	if slotCount <= 0 {
		slotCount = DefaultSlotCount
	}
	return &Window{
		slotWidth: slotWidth,
		slotCount: slotCount,
		slots:     make([]*Entry, slotCount),
		now:       time.Now,
	}
}

// WithClock overrides the wall clock; tests use it to force rollovers.
func (w *Window) WithClock(now func() time.Time) *Window {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
	return w
}

// Append places e into its slot of the current window. Entries outside
// the window are dropped; an occupied slot is replaced.
func (w *Window) Append(e Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roll()

	slot := int(e.Timestamp.Sub(w.start) / w.slotWidth)
	if slot < 0 || slot >= w.slotCount {
		return
	}
	cp := e
	w.slots[slot] = &cp
}

// Snapshot returns the occupied slots in time order.
func (w *Window) Snapshot() []Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roll()

	out := make([]Entry, 0, w.slotCount)
	for _, e := range w.slots {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// Start reports the beginning of the current window.
func (w *Window) Start() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roll()
	return w.start
}

func (w *Window) SlotCount() int { return w.slotCount }

func (w *Window) SlotWidth() time.Duration { return w.slotWidth }

// roll resets the ring when the clock crosses into a new window. Stale
// entries are never carried over. Callers hold w.mu.
func (w *Window) roll() {
	span := w.slotWidth * time.Duration(w.slotCount)
	ws := w.now().UTC().Truncate(span)
	if ws.Equal(w.start) {
		return
	}
	w.start = ws
	for i := range w.slots {
		w.slots[i] = nil
	}
}
