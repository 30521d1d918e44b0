// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/reelx/internal/media"
	"github.com/desertthunder/reelx/internal/shared"
)

// FakeHandle is a [media.Handle] driven by the test. It records every call and emits only what the test
// (or the factory's OnLoad hook) sends.
type FakeHandle struct {
	id     string
	opts   media.Options
	onLoad func(*FakeHandle)

	PanicOnClose bool

	mu       sync.Mutex
	calls    []string
	source   string
	poster   string
	buffered float64
	playing  bool
	closed   bool
	events   chan media.Event
}

func NewFakeHandle(opts media.Options) *FakeHandle {
	return &FakeHandle{id: shared.GenerateID(), opts: opts, events: make(chan media.Event, 16)}
}

func (h *FakeHandle) ID() string             { return h.id }
func (h *FakeHandle) Options() media.Options { return h.opts }

func (h *FakeHandle) SetSource(url string) {
	h.record("source:" + url)
	h.mu.Lock()
	h.source = url
	h.mu.Unlock()
}

func (h *FakeHandle) SetPoster(url string) {
	h.record("poster:" + url)
	h.mu.Lock()
	h.poster = url
	h.mu.Unlock()
}

func (h *FakeHandle) Load(context.Context) {
	h.record("load")
	if h.onLoad != nil {
		h.onLoad(h)
	}
}

func (h *FakeHandle) Play() error {
	h.record("play")
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.New("handle closed")
	}
	h.playing = true
	return nil
}

func (h *FakeHandle) Pause() {
	h.record("pause")
	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()
}

func (h *FakeHandle) Buffered() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buffered
}

func (h *FakeHandle) Events() <-chan media.Event { return h.events }

func (h *FakeHandle) Flush() {
	h.record("flush")
	h.mu.Lock()
	h.buffered = 0
	h.mu.Unlock()
}

func (h *FakeHandle) Close() error {
	h.record("close")
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.events)
	}
	h.mu.Unlock()

	if h.PanicOnClose {
		panic("fake handle: close exploded")
	}
	return nil
}

// Emit delivers ev to the handle's listener. Events after Close, or beyond the channel buffer, are dropped.
func (h *FakeHandle) Emit(ev media.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if ev.Buffered > h.buffered {
		h.buffered = ev.Buffered
	}
	select {
	case h.events <- ev:
	default:
	}
}

// Calls returns the recorded method calls in order, e.g. "source:<url>", "load", "pause".
func (h *FakeHandle) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *FakeHandle) Source() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.source
}

func (h *FakeHandle) Poster() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.poster
}

func (h *FakeHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *FakeHandle) record(call string) {
	h.mu.Lock()
	h.calls = append(h.calls, call)
	h.mu.Unlock()
}

// FakeFactory hands out [FakeHandle]s and remembers each one.
//
// OnLoad runs inside every handle's Load; use it to emit readiness events.
type FakeFactory struct {
	OnLoad       func(*FakeHandle)
	PanicOnClose bool

	mu      sync.Mutex
	handles []*FakeHandle
}

func (f *FakeFactory) NewHandle(opts media.Options) media.Handle {
	h := NewFakeHandle(opts)
	h.onLoad = f.OnLoad
	h.PanicOnClose = f.PanicOnClose

	f.mu.Lock()
	f.handles = append(f.handles, h)
	f.mu.Unlock()
	return h
}

// Created returns how many handles were made.
func (f *FakeFactory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handles)
}

func (f *FakeFactory) Handles() []*FakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeHandle(nil), f.handles...)
}

// Loaded returns the source URL of each handle in creation order.
func (f *FakeFactory) Loaded() []string {
	var urls []string
	for _, h := range f.Handles() {
		for _, c := range h.Calls() {
			if url, ok := strings.CutPrefix(c, "source:"); ok && url != "" {
				urls = append(urls, url)
				break
			}
		}
	}
	return urls
}

// CanPlayThrough is an OnLoad hook that makes every preload ready at once.
func CanPlayThrough(h *FakeHandle) {
	h.Emit(media.Event{Kind: media.CanPlayThrough, Buffered: 1.5})
}

// FailLoad is an OnLoad hook that fails every preload.
func FailLoad(h *FakeHandle) {
	h.Emit(media.Event{Kind: media.Error, Err: errors.New("fake: load failed")})
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
