package preload

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/samber/lo"
)

const (
	DefaultLookahead  = 3 // current item plus two after it
	DefaultLookbehind = 1
)

// Item is one feed entry as the window sees it.
type Item struct {
	ID        string `json:"id"`
	SourceURL string `json:"source_url"`
	PosterURL string `json:"poster_url,omitempty"`
}

// State is an item's position in the absent -> loading -> ready lifecycle.
type State int

const (
	Absent State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "absent"
	}
}

// Preloader is the part of [Manager] the window drives.
type Preloader interface {
	Preload(ctx context.Context, url, posterURL string) (*Resource, error)
	Get(url string) *Resource
	Release(url string)
	Cleanup()
	ClearAll()
	Resident() []string
}

var _ Preloader = (*Manager)(nil)

// Snapshot is the window's state after a pass.
type Snapshot struct {
	Index    int             `json:"index"`
	Total    int             `json:"total"`
	Status   map[string]bool `json:"status"`
	Resident []string        `json:"resident"`
}

// Window drives a [Preloader] from a position in an ordered feed.
type Window struct {
	manager    Preloader
	lookahead  int
	lookbehind int
	logger     *log.Logger

	pass sync.Mutex // held for the whole of a pass

	mu        sync.RWMutex
	items     []Item
	index     int
	states    map[string]State
	listeners []func(Snapshot)
}

// WindowOption configures a [Window].
type WindowOption func(*Window)

// WithLookahead sets how many items from the cursor forward are preloaded.
func WithLookahead(n int) WindowOption {
	return func(w *Window) {
		if n > 0 {
			w.lookahead = n
		}
	}
}

// WithLookbehind sets how many items behind the cursor are kept but not preloaded.
func WithLookbehind(n int) WindowOption {
	return func(w *Window) {
		if n >= 0 {
			w.lookbehind = n
		}
	}
}

// WithWindowLogger sets the logger for pass and preload failure messages.
func WithWindowLogger(l *log.Logger) WindowOption {
	return func(w *Window) {
		if l != nil {
			w.logger = l
		}
	}
}

// WindowFromConfig translates the [preload] config section into window options.
func WindowFromConfig(cfg shared.PreloadConfig) []WindowOption {
	return []WindowOption{WithLookahead(cfg.Lookahead), WithLookbehind(cfg.Lookbehind)}
}

// NewWindow creates a window over manager positioned before the first item.
func NewWindow(manager Preloader, opts ...WindowOption) *Window {
	w := &Window{
		manager:    manager,
		lookahead:  DefaultLookahead,
		lookbehind: DefaultLookbehind,
		logger:     log.New(io.Discard),
		states:     make(map[string]State),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnPass registers fn to receive a [Snapshot] after every pass.
func (w *Window) OnPass(fn func(Snapshot)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Update runs one pass for items at index.
//
// Preloads run one at a time in priority order; a failed preload is logged and skipped. Cleanup follows the
// batch, and release of items outside the keep range follows cleanup. A cancelled ctx stops the batch early
// but cleanup and release still run.
func (w *Window) Update(ctx context.Context, items []Item, index int) error {
	if len(items) > 0 && (index < 0 || index >= len(items)) {
		return fmt.Errorf("%w: %d not in [0, %d)", shared.ErrIndexOutOfRange, index, len(items))
	}

	w.pass.Lock()
	defer w.pass.Unlock()

	previous := w.swap(items, index)

	var batchErr error
	for _, i := range w.preloadIndices(index, len(items)) {
		if err := ctx.Err(); err != nil {
			batchErr = err
			break
		}

		item := items[i]
		w.setState(item.ID, Loading)

		if _, err := w.manager.Preload(ctx, item.SourceURL, item.PosterURL); err != nil {
			w.logger.Warn("preload failed", "id", item.ID, "url", item.SourceURL, "err", err)
			w.clearState(item.ID)
			continue
		}
		w.setState(item.ID, Ready)
	}

	w.manager.Cleanup()
	w.release(items, previous, index)

	snap := w.Snapshot()
	w.logger.Debug("window pass", "index", index, "resident", len(snap.Resident))
	w.notify(snap)

	return batchErr
}

// Move runs a pass at index over the current items.
func (w *Window) Move(ctx context.Context, index int) error {
	return w.Update(ctx, w.Items(), index)
}

// Refresh runs a pass over a new item list at the current index, clamped into range.
func (w *Window) Refresh(ctx context.Context, items []Item) error {
	index := min(w.Index(), max(len(items)-1, 0))
	return w.Update(ctx, items, index)
}

// Run performs a pass for every index received on positions and closes the window when positions is
// closed or ctx ends.
func (w *Window) Run(ctx context.Context, positions <-chan int) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case index, ok := <-positions:
			if !ok {
				return nil
			}
			if err := w.Move(ctx, index); err != nil {
				w.logger.Warn("window pass failed", "index", index, "err", err)
			}
		}
	}
}

// Close releases everything the window warmed.
func (w *Window) Close() {
	w.pass.Lock()
	defer w.pass.Unlock()

	w.manager.ClearAll()

	w.mu.Lock()
	w.states = make(map[string]State)
	w.mu.Unlock()
}

// Index returns the current position.
func (w *Window) Index() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.index
}

// Items returns a copy of the current item list.
func (w *Window) Items() []Item {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.items)
}

// States returns each tracked item's state. Items the manager has since evicted read [Absent] and are omitted.
func (w *Window) States() map[string]State {
	w.mu.RLock()
	items := w.items
	states := maps.Clone(w.states)
	w.mu.RUnlock()

	out := make(map[string]State, len(states))
	for _, item := range items {
		st, ok := states[item.ID]
		if !ok || st == Absent {
			continue
		}
		if st == Ready && w.manager.Get(item.SourceURL) == nil {
			continue
		}
		out[item.ID] = st
	}
	return out
}

// Status returns item id -> preloaded for every item that has completed a preload and is still resident.
func (w *Window) Status() map[string]bool {
	status := make(map[string]bool)
	for id, st := range w.States() {
		if st == Ready {
			status[id] = true
		}
	}
	return status
}

// Snapshot captures index, status and residency.
func (w *Window) Snapshot() Snapshot {
	w.mu.RLock()
	index, total := w.index, len(w.items)
	w.mu.RUnlock()

	return Snapshot{
		Index:    index,
		Total:    total,
		Status:   w.Status(),
		Resident: w.manager.Resident(),
	}
}

func (w *Window) preloadIndices(index, n int) []int {
	return inBounds(lo.RangeFrom(index, w.lookahead), n)
}

func (w *Window) keepIndices(index, n int) []int {
	return inBounds(lo.RangeFrom(index-w.lookbehind, w.lookbehind+w.lookahead), n)
}

func inBounds(indices []int, n int) []int {
	return lo.Filter(indices, func(i int, _ int) bool { return i >= 0 && i < n })
}

// release drops every item outside the keep range, plus items that vanished from the list since the last pass.
// A URL shared with a kept item is never released.
func (w *Window) release(items, previous []Item, index int) {
	keep := lo.Map(w.keepIndices(index, len(items)), func(i int, _ int) Item { return items[i] })
	keepIDs := lo.SliceToMap(keep, func(it Item) (string, bool) { return it.ID, true })
	keepURLs := lo.SliceToMap(keep, func(it Item) (string, bool) { return it.SourceURL, true })

	current := lo.SliceToMap(items, func(it Item) (string, bool) { return it.ID, true })
	vanished := lo.Filter(previous, func(it Item, _ int) bool { return !current[it.ID] })

	outside := lo.Reject(items, func(it Item, _ int) bool { return keepIDs[it.ID] })
	for _, item := range append(outside, vanished...) {
		if !keepURLs[item.SourceURL] {
			w.manager.Release(item.SourceURL)
		}
		w.clearState(item.ID)
	}
}

func (w *Window) swap(items []Item, index int) []Item {
	w.mu.Lock()
	defer w.mu.Unlock()
	previous := w.items
	w.items = slices.Clone(items)
	w.index = index
	return previous
}

func (w *Window) setState(id string, st State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.states[id] = st
}

func (w *Window) clearState(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.states, id)
}

func (w *Window) notify(snap Snapshot) {
	w.mu.RLock()
	listeners := slices.Clone(w.listeners)
	w.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// ItemsFromFeed converts stored feed items into window items, preserving order.
func ItemsFromFeed(feed []models.FeedItem) []Item {
	return lo.Map(feed, func(f models.FeedItem, _ int) Item {
		return Item{ID: f.ID, SourceURL: f.SourceURL, PosterURL: f.PosterURL}
	})
}
