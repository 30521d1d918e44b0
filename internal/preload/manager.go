package preload

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/media"
	"github.com/desertthunder/reelx/internal/shared"
)

const (
	DefaultMaxResident    = 3
	DefaultReadyTimeout   = 3000 * time.Millisecond
	DefaultReadyThreshold = 0.5
)

// ErrEmptySource is returned by [Manager.Preload] for an empty URL.
var ErrEmptySource = fmt.Errorf("%w: empty source url", shared.ErrInvalidInput)

// Recorder receives one call per settled preload.
type Recorder interface {
	Record(sourceURL, outcome string, buffered float64, elapsed time.Duration) error
}

// Manager owns the pool of warmed resources. All mutation goes through its methods.
//
// Construct one per feed session and call [Manager.ClearAll] when the session ends.
type Manager struct {
	factory        media.Factory
	maxResident    int
	readyTimeout   time.Duration
	readyThreshold float64
	logger         *log.Logger
	recorder       Recorder

	mu      sync.Mutex
	entries map[string]*Resource
	order   []string
}

// Option configures a [Manager].
type Option func(*Manager)

// WithMaxResident sets how many entries survive a [Manager.Cleanup] pass.
func WithMaxResident(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxResident = n
		}
	}
}

// WithReadyTimeout sets how long a preload may wait before it is forced ready.
func WithReadyTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.readyTimeout = d
		}
	}
}

// WithReadyThreshold sets the buffered seconds that count as ready.
func WithReadyThreshold(seconds float64) Option {
	return func(m *Manager) {
		if seconds >= 0 {
			m.readyThreshold = seconds
		}
	}
}

// WithLogger sets the logger for preload, release and teardown messages.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRecorder reports every settled preload to r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// FromConfig translates the [preload] config section into options.
func FromConfig(cfg shared.PreloadConfig) []Option {
	return []Option{
		WithMaxResident(cfg.MaxResident),
		WithReadyTimeout(cfg.ReadyTimeout()),
		WithReadyThreshold(cfg.ReadyThresholdSeconds),
	}
}

// NewManager creates an empty manager that builds handles with factory.
func NewManager(factory media.Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:        factory,
		maxResident:    DefaultMaxResident,
		readyTimeout:   DefaultReadyTimeout,
		readyThreshold: DefaultReadyThreshold,
		logger:         log.New(io.Discard),
		entries:        make(map[string]*Resource),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MaxResident returns the residency bound enforced by [Manager.Cleanup].
func (m *Manager) MaxResident() int { return m.maxResident }

// Preload returns the entry for url, creating and loading it on first use.
//
// A new entry is awaited until it settles; an existing one is returned immediately, loading or not.
// Load failures settle the entry without an error. The only errors are [ErrEmptySource] and
// ctx ending before a new entry settles, in which case the entry stays and keeps loading.
func (m *Manager) Preload(ctx context.Context, url, posterURL string) (*Resource, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptySource
	}

	m.mu.Lock()
	if r, ok := m.entries[url]; ok {
		m.mu.Unlock()
		return r, nil
	}

	h := m.factory.NewHandle(media.Options{Muted: true, PlaysInline: true, CrossOrigin: true})
	r := newResource(url, posterURL, h)
	m.entries[url] = r
	m.order = append(m.order, url)
	m.mu.Unlock()

	m.logger.Debug("preloading", "url", url, "handle", h.ID())

	if posterURL != "" {
		h.SetPoster(posterURL)
	}
	h.SetSource(url)
	go m.watch(r)
	h.Load(context.Background())

	select {
	case <-r.done:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the live entry for url, or nil. It has no side effects.
func (m *Manager) Get(url string) *Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[url]
}

// Len returns the number of live entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Resident returns live URLs oldest first.
func (m *Manager) Resident() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// Release tears down the entry for url. Unknown URLs are ignored.
func (m *Manager) Release(url string) {
	m.mu.Lock()
	r, ok := m.entries[url]
	if ok {
		delete(m.entries, url)
		m.order = slices.DeleteFunc(m.order, func(u string) bool { return u == url })
	}
	m.mu.Unlock()

	if ok {
		m.teardown(r)
	}
}

// Cleanup evicts the oldest entries until at most MaxResident remain.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	excess := len(m.order) - m.maxResident
	if excess <= 0 {
		m.mu.Unlock()
		return
	}

	victims := make([]*Resource, 0, excess)
	for _, url := range m.order[:excess] {
		victims = append(victims, m.entries[url])
		delete(m.entries, url)
	}
	m.order = slices.Clone(m.order[excess:])
	m.mu.Unlock()

	for _, r := range victims {
		m.logger.Debug("evicting", "url", r.url)
		m.teardown(r)
	}
}

// ClearAll releases every entry.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	victims := make([]*Resource, 0, len(m.order))
	for _, url := range m.order {
		victims = append(victims, m.entries[url])
	}
	m.entries = make(map[string]*Resource)
	m.order = nil
	m.mu.Unlock()

	for _, r := range victims {
		m.teardown(r)
	}
}

// watch races readiness signals for r and keeps folding progress in until the handle goes away.
func (m *Manager) watch(r *Resource) {
	timer := time.NewTimer(m.readyTimeout)
	defer timer.Stop()

	timeout := timer.C
	events := r.handle.Events()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				m.settle(r, OutcomeReleased, false, nil)
				return
			}
			m.handleEvent(r, ev)
		case <-timeout:
			timeout = nil
			m.settle(r, OutcomeTimeout, true, nil)
		case <-r.stop:
			m.settle(r, OutcomeReleased, false, nil)
			return
		}
	}
}

func (m *Manager) handleEvent(r *Resource, ev media.Event) {
	switch ev.Kind {
	case media.Progress:
		reached := ev.Buffered >= m.readyThreshold
		r.observe(ev.Buffered, reached)
		if reached {
			m.settle(r, OutcomeBuffered, true, nil)
		}
	case media.CanPlayThrough:
		r.observe(ev.Buffered, true)
		m.settle(r, OutcomeCanPlayThrough, true, nil)
	case media.Error:
		r.observe(ev.Buffered, false)
		if m.settle(r, OutcomeError, false, ev.Err) {
			m.logger.Warn("preload failed", "url", r.url, "err", ev.Err)
		}
	}
}

func (m *Manager) settle(r *Resource, outcome Outcome, ready bool, err error) bool {
	if !r.settle(outcome, ready, err) {
		return false
	}

	elapsed := time.Since(r.startedAt)
	m.logger.Debug("preload settled", "url", r.url, "outcome", outcome, "buffered", r.Buffered(), "elapsed", elapsed)

	if m.recorder != nil {
		if err := m.recorder.Record(r.url, string(outcome), r.Buffered(), elapsed); err != nil {
			m.logger.Warn("failed to record preload", "url", r.url, "err", err)
		}
	}
	return true
}

// teardown pauses, detaches, flushes and closes r's handle. Each step runs even if an earlier one fails.
func (m *Manager) teardown(r *Resource) {
	r.halt()

	h := r.handle
	steps := []struct {
		name string
		fn   func() error
	}{
		{"pause", func() error { h.Pause(); return nil }},
		{"detach", func() error { h.SetSource(""); return nil }},
		{"flush", func() error { h.Flush(); return nil }},
		{"close", h.Close},
	}

	for _, step := range steps {
		if err := safely(step.fn); err != nil {
			m.logger.Warn("teardown step failed", "url", r.url, "step", step.name, "err", err)
		}
	}
}

// safely runs fn, converting a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}
