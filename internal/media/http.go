package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/shared"
	"golang.org/x/time/rate"
)

const readChunk = 32 * 1024

// HTTPFactory builds [HTTPHandle]s that share one HTTP client and one bandwidth budget.
type HTTPFactory struct {
	client         *http.Client
	limiter        *rate.Limiter
	prefetchBytes  int64
	bytesPerSecond float64
	userAgent      string
	logger         *log.Logger
}

var _ Factory = (*HTTPFactory)(nil)

// NewHTTPFactory creates a factory from the [media] config section.
//
// A nil client uses [http.DefaultClient] with the configured request timeout; a nil logger discards output.
func NewHTTPFactory(cfg shared.MediaConfig, client *http.Client, logger *log.Logger) *HTTPFactory {
	if client == nil {
		client = &http.Client{Timeout: cfg.RequestTimeout()}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var limiter *rate.Limiter
	if cfg.RateLimitKbps > 0 {
		bps := float64(cfg.RateLimitKbps) * 1000 / 8
		limiter = rate.NewLimiter(rate.Limit(bps), max(readChunk, int(bps)))
	}

	return &HTTPFactory{
		client:         client,
		limiter:        limiter,
		prefetchBytes:  cfg.PrefetchBytes,
		bytesPerSecond: float64(cfg.AssumedBitrateKbps) * 1000 / 8,
		userAgent:      cfg.UserAgent,
		logger:         logger,
	}
}

// NewHandle implements [Factory].
func (f *HTTPFactory) NewHandle(opts Options) Handle {
	id := shared.GenerateID()
	return &HTTPHandle{
		id:             id,
		opts:           opts,
		client:         f.client,
		limiter:        f.limiter,
		prefetchBytes:  f.prefetchBytes,
		bytesPerSecond: f.bytesPerSecond,
		userAgent:      f.userAgent,
		logger:         f.logger.With("handle", id[:8]),
		events:         make(chan Event, 8),
		closing:        make(chan struct{}),
	}
}

// HTTPHandle warms a progressive video by fetching its first PrefetchBytes into memory.
type HTTPHandle struct {
	id             string
	opts           Options
	client         *http.Client
	limiter        *rate.Limiter
	prefetchBytes  int64
	bytesPerSecond float64
	userAgent      string
	logger         *log.Logger

	events  chan Event
	closing chan struct{}

	mu       sync.Mutex
	source   string
	poster   string
	buf      bytes.Buffer
	playing  bool
	closed   bool
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

var _ Handle = (*HTTPHandle)(nil)

func (h *HTTPHandle) ID() string       { return h.id }
func (h *HTTPHandle) Options() Options { return h.opts }

func (h *HTTPHandle) SetSource(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = url
}

func (h *HTTPHandle) SetPoster(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.poster = url
}

// Poster returns the placeholder image URL.
func (h *HTTPHandle) Poster() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.poster
}

// Load aborts any fetch in flight, drops its data and starts fetching the current source.
//
// The fetch outlives ctx only until ctx is done; pass [context.Background] to tie it to the handle alone.
func (h *HTTPHandle) Load(ctx context.Context) {
	h.abort()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.buf.Reset()
	source := h.source
	fetchCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.inflight.Add(1)

	go func() {
		defer h.inflight.Done()
		defer cancel()
		h.fetch(fetchCtx, source)
	}()
}

func (h *HTTPHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("handle %s is closed", h.id)
	}
	if h.source == "" {
		return fmt.Errorf("%w: no source", shared.ErrInvalidInput)
	}
	h.playing = true
	return nil
}

func (h *HTTPHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = false
}

// Playing reports whether Play was called since the last Pause.
func (h *HTTPHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *HTTPHandle) Buffered() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bufferedLocked()
}

// BufferedBytes reports how many leading bytes are held in memory.
func (h *HTTPHandle) BufferedBytes() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int64(h.buf.Len())
}

func (h *HTTPHandle) Events() <-chan Event { return h.events }

// Flush aborts the fetch and releases the buffer's memory.
func (h *HTTPHandle) Flush() {
	h.abort()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = bytes.Buffer{}
}

// Close flushes the handle and closes its event channel. Calling Close twice is a no-op.
func (h *HTTPHandle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.closing)
	h.mu.Unlock()

	h.Flush()
	close(h.events)
	return nil
}

// abort cancels the running fetch, if any, and waits for it to exit.
func (h *HTTPHandle) abort() {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	h.inflight.Wait()
}

func (h *HTTPHandle) bufferedLocked() float64 {
	if h.bytesPerSecond <= 0 {
		return 0
	}
	return float64(h.buf.Len()) / h.bytesPerSecond
}

func (h *HTTPHandle) fetch(ctx context.Context, source string) {
	if source == "" {
		h.emit(ctx, Event{Kind: Error, Err: fmt.Errorf("%w: no source", shared.ErrInvalidInput)})
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		h.emit(ctx, Event{Kind: Error, Err: fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)})
		return
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", h.prefetchBytes-1))
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			h.emit(ctx, Event{Kind: Error, Err: fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)})
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		h.emit(ctx, Event{Kind: Error, Err: fmt.Errorf("%w: unexpected status %d", shared.ErrFetchFailed, resp.StatusCode)})
		return
	}

	h.logger.Debug("fetching", "url", source, "status", resp.StatusCode)

	body := io.LimitReader(resp.Body, h.prefetchBytes)
	chunk := make([]byte, readChunk)
	for {
		if h.limiter != nil {
			if err := h.limiter.WaitN(ctx, len(chunk)); err != nil {
				return
			}
		}

		n, err := body.Read(chunk)
		if n > 0 {
			h.mu.Lock()
			h.buf.Write(chunk[:n])
			buffered := h.bufferedLocked()
			full := int64(h.buf.Len()) >= h.prefetchBytes
			h.mu.Unlock()

			h.emit(ctx, Event{Kind: Progress, Buffered: buffered})
			if full {
				h.emit(ctx, Event{Kind: CanPlayThrough, Buffered: buffered})
				return
			}
		}

		if errors.Is(err, io.EOF) {
			h.emit(ctx, Event{Kind: CanPlayThrough, Buffered: h.Buffered()})
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				h.emit(ctx, Event{Kind: Error, Buffered: h.Buffered(), Err: fmt.Errorf("%w: %v", shared.ErrFetchFailed, err)})
			}
			return
		}
	}
}

// emit delivers ev unless the fetch was aborted or the handle is closing.
func (h *HTTPHandle) emit(ctx context.Context, ev Event) {
	select {
	case h.events <- ev:
	case <-ctx.Done():
	case <-h.closing:
	}
}
