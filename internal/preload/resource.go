package preload

import (
	"sync"
	"time"

	"github.com/desertthunder/reelx/internal/media"
)

// Outcome records which signal settled a preload.
type Outcome string

const (
	OutcomePending        Outcome = "pending"
	OutcomeCanPlayThrough Outcome = "can_play_through"
	OutcomeBuffered       Outcome = "buffered"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeError          Outcome = "error"
	OutcomeReleased       Outcome = "released"
)

// Resource is one media resource being warmed. Callers hold it as a read-only, borrowed reference;
// teardown goes through [Manager.Release] or [Manager.ClearAll].
type Resource struct {
	url       string
	posterURL string
	handle    media.Handle
	startedAt time.Time

	mu       sync.RWMutex
	ready    bool
	buffered float64
	outcome  Outcome
	err      error

	settleOnce sync.Once
	done       chan struct{}
	stopOnce   sync.Once
	stop       chan struct{}
}

func newResource(url, posterURL string, h media.Handle) *Resource {
	return &Resource{
		url:       url,
		posterURL: posterURL,
		handle:    h,
		startedAt: time.Now(),
		outcome:   OutcomePending,
		done:      make(chan struct{}),
		stop:      make(chan struct{}),
	}
}

// URL returns the source URL the entry is keyed by.
func (r *Resource) URL() string { return r.url }

// PosterURL returns the placeholder image URL, if any.
func (r *Resource) PosterURL() string { return r.posterURL }

// HandleID identifies the underlying handle, for log correlation.
func (r *Resource) HandleID() string { return r.handle.ID() }

// Ready reports whether playback can be attempted. Once true it stays true.
func (r *Resource) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// Buffered reports contiguous seconds buffered from the start.
func (r *Resource) Buffered() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buffered
}

// Outcome reports which signal settled the preload, or [OutcomePending].
func (r *Resource) Outcome() Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outcome
}

// Err returns the load error when the outcome is [OutcomeError].
func (r *Resource) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Done is closed once the preload has settled.
func (r *Resource) Done() <-chan struct{} { return r.done }

// observe folds a buffered reading in. Buffered never decreases.
func (r *Resource) observe(buffered float64, ready bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if buffered > r.buffered {
		r.buffered = buffered
	}
	if ready {
		r.ready = true
	}
}

// settle records the winning signal and wakes waiters. Only the first call has any effect.
func (r *Resource) settle(outcome Outcome, ready bool, err error) bool {
	settled := false
	r.settleOnce.Do(func() {
		r.mu.Lock()
		r.outcome = outcome
		r.err = err
		if ready {
			r.ready = true
		}
		r.mu.Unlock()
		close(r.done)
		settled = true
	})
	return settled
}

func (r *Resource) halt() {
	r.stopOnce.Do(func() { close(r.stop) })
}
