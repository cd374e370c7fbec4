package workspace

import (
	"sync"
	"time"
)

// DefaultDebounce is the delay between the last edit of a document and its
// re-indexing.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs a per-key action after the key has been quiet for the
// configured delay. Scheduling a key again restarts its timer.
type Debouncer struct {
	delay   time.Duration
	pending map[string]*time.Timer
	stopped bool
	mu      sync.Mutex
}

// NewDebouncer creates a debouncer. A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*time.Timer),
	}
}

// Delay returns the configured quiet period.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

// SetDelay changes the quiet period for actions scheduled from now on.
func (d *Debouncer) SetDelay(delay time.Duration) {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Schedule arranges for fn to run once key has been quiet for the delay,
// replacing any action already pending for key.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[key]; ok {
		existing.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped || d.pending[key] != timer {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()

		fn()
	})
	d.pending[key] = timer
}

// Cancel drops the action pending for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.pending[key]; ok {
		timer.Stop()
		delete(d.pending, key)
	}
}

// Pending reports whether an action is scheduled for key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.pending[key]
	return ok
}

// Stop cancels every pending action. Later calls to Schedule are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, timer := range d.pending {
		timer.Stop()
		delete(d.pending, key)
	}
}
