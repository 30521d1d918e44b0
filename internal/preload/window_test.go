package preload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/shared"
	tu "github.com/desertthunder/reelx/internal/testing"
)

func feed(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{ID: fmt.Sprintf("v%d", i), SourceURL: fmt.Sprintf("https://cdn.test/v%d.mp4", i)}
	}
	return items
}

// spyPreloader records calls in order and fails preloads for urls in fail.
type spyPreloader struct {
	mu       sync.Mutex
	calls    []string
	resident map[string]bool
	fail     map[string]bool
}

func newSpy(fail ...string) *spyPreloader {
	s := &spyPreloader{resident: make(map[string]bool), fail: make(map[string]bool)}
	for _, url := range fail {
		s.fail[url] = true
	}
	return s
}

func (s *spyPreloader) Preload(_ context.Context, url, _ string) (*Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "preload:"+url)
	if s.fail[url] {
		return nil, errors.New("spy: failed")
	}
	s.resident[url] = true
	return &Resource{url: url}, nil
}

func (s *spyPreloader) Get(url string) *Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resident[url] {
		return nil
	}
	return &Resource{url: url}
}

func (s *spyPreloader) Release(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "release:"+url)
	delete(s.resident, url)
}

func (s *spyPreloader) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "cleanup")
}

func (s *spyPreloader) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "clearall")
	s.resident = make(map[string]bool)
}

func (s *spyPreloader) Resident() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.resident))
}

func (s *spyPreloader) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func TestWindowUpdate(t *testing.T) {
	t.Run("pass order is preload, cleanup, release", func(t *testing.T) {
		spy := newSpy()
		w := NewWindow(spy)
		items := feed(6)

		if err := w.Update(context.Background(), items, 0); err != nil {
			t.Fatalf("Update(0) error: %v", err)
		}
		want := []string{
			"preload:https://cdn.test/v0.mp4",
			"preload:https://cdn.test/v1.mp4",
			"preload:https://cdn.test/v2.mp4",
			"cleanup",
			"release:https://cdn.test/v3.mp4",
			"release:https://cdn.test/v4.mp4",
			"release:https://cdn.test/v5.mp4",
		}
		if got := spy.Calls(); !slices.Equal(got, want) {
			t.Errorf("calls =\n%v\nwant\n%v", got, want)
		}
	})

	t.Run("clips preload set at the end", func(t *testing.T) {
		spy := newSpy()
		w := NewWindow(spy)

		if err := w.Update(context.Background(), feed(3), 2); err != nil {
			t.Fatal(err)
		}
		got := slices.DeleteFunc(spy.Calls(), func(c string) bool { return !strings.HasPrefix(c, "preload:") })
		if !slices.Equal(got, []string{"preload:https://cdn.test/v2.mp4"}) {
			t.Errorf("preloads = %v", got)
		}
	})

	t.Run("failed preload does not stop the pass", func(t *testing.T) {
		spy := newSpy("https://cdn.test/v1.mp4")
		w := NewWindow(spy)

		if err := w.Update(context.Background(), feed(4), 0); err != nil {
			t.Fatal(err)
		}

		status := w.Status()
		if !status["v0"] || status["v1"] || !status["v2"] {
			t.Errorf("Status() = %v", status)
		}
		if !slices.Contains(spy.Calls(), "preload:https://cdn.test/v2.mp4") {
			t.Error("pass stopped after a failed preload")
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		w := NewWindow(newSpy())
		for _, index := range []int{-1, 3, 10} {
			err := w.Update(context.Background(), feed(3), index)
			if !errors.Is(err, shared.ErrIndexOutOfRange) {
				t.Errorf("Update(%d) error = %v, want ErrIndexOutOfRange", index, err)
			}
		}
	})

	t.Run("out of range position leaves the window untouched", func(t *testing.T) {
		spy := newSpy()
		w := NewWindow(spy)
		if err := w.Update(context.Background(), feed(5), 1); err != nil {
			t.Fatal(err)
		}
		calls := slices.Clone(spy.calls)
		status := w.Status()

		if err := w.Update(context.Background(), feed(5), 9); !errors.Is(err, shared.ErrIndexOutOfRange) {
			t.Fatalf("Update(9) error = %v, want ErrIndexOutOfRange", err)
		}

		if !slices.Equal(spy.calls, calls) {
			t.Errorf("rejected pass touched the manager: %v", spy.calls[len(calls):])
		}
		if w.Index() != 1 {
			t.Errorf("Index() = %d, want 1", w.Index())
		}
		if !maps.Equal(w.Status(), status) {
			t.Errorf("Status() = %v, want %v", w.Status(), status)
		}
	})

	t.Run("empty list releases everything previously tracked", func(t *testing.T) {
		spy := newSpy()
		w := NewWindow(spy)

		if err := w.Update(context.Background(), feed(3), 0); err != nil {
			t.Fatal(err)
		}
		if err := w.Update(context.Background(), nil, 0); err != nil {
			t.Fatal(err)
		}
		if len(spy.Resident()) != 0 {
			t.Errorf("Resident() = %v, want empty", spy.Resident())
		}
		if len(w.Status()) != 0 {
			t.Errorf("Status() = %v, want empty", w.Status())
		}
	})

	t.Run("shared url stays while a kept item uses it", func(t *testing.T) {
		spy := newSpy()
		w := NewWindow(spy)
		items := feed(8)
		items[7].SourceURL = items[1].SourceURL

		if err := w.Update(context.Background(), items, 0); err != nil {
			t.Fatal(err)
		}
		if spy.Get(items[1].SourceURL) == nil {
			t.Error("url shared with a kept item was released")
		}
	})

	t.Run("cancelled context stops preloading but still cleans up", func(t *testing.T) {
		spy := newSpy()
		w := NewWindow(spy)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := w.Update(ctx, feed(5), 0)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		calls := spy.Calls()
		if len(calls) == 0 || calls[0] != "cleanup" {
			t.Errorf("calls = %v, want cleanup first", calls)
		}
	})
}

func TestWindowWithManager(t *testing.T) {
	t.Run("index 5 of 10 keeps 4 through 7", func(t *testing.T) {
		f := &tu.FakeFactory{OnLoad: tu.CanPlayThrough}
		m := newTestManager(t, f, WithMaxResident(10))
		items := feed(10)

		for _, item := range items {
			mustPreload(t, m, item.SourceURL)
		}

		w := NewWindow(m)
		if err := w.Update(context.Background(), items, 5); err != nil {
			t.Fatal(err)
		}

		for i, item := range items {
			kept := i >= 4 && i <= 7
			if (m.Get(item.SourceURL) != nil) != kept {
				t.Errorf("%s resident = %v, want %v", item.ID, m.Get(item.SourceURL) != nil, kept)
			}
		}
	})

	t.Run("moving from 0 to 3", func(t *testing.T) {
		f := &tu.FakeFactory{OnLoad: tu.CanPlayThrough}
		m := newTestManager(t, f, WithMaxResident(4))
		items := feed(10)
		w := NewWindow(m)

		if err := w.Update(context.Background(), items, 0); err != nil {
			t.Fatal(err)
		}
		if err := w.Move(context.Background(), 3); err != nil {
			t.Fatal(err)
		}

		want := []string{
			"https://cdn.test/v0.mp4", "https://cdn.test/v1.mp4", "https://cdn.test/v2.mp4",
			"https://cdn.test/v3.mp4", "https://cdn.test/v4.mp4", "https://cdn.test/v5.mp4",
		}
		if got := f.Loaded(); !slices.Equal(got, want) {
			t.Errorf("load order = %v, want %v", got, want)
		}
		for _, item := range items[:2] {
			if m.Get(item.SourceURL) != nil {
				t.Errorf("%s should be released", item.ID)
			}
		}
		if m.Get(items[2].SourceURL) == nil {
			t.Error("v2 should remain resident")
		}

		status := w.Status()
		wantStatus := map[string]bool{"v2": true, "v3": true, "v4": true, "v5": true}
		if !maps.Equal(status, wantStatus) {
			t.Errorf("Status() = %v, want %v", status, wantStatus)
		}
	})

	t.Run("evicted item reads absent", func(t *testing.T) {
		m := newTestManager(t, &tu.FakeFactory{OnLoad: tu.CanPlayThrough})
		items := feed(10)
		w := NewWindow(m)

		if err := w.Update(context.Background(), items, 0); err != nil {
			t.Fatal(err)
		}
		if err := w.Move(context.Background(), 3); err != nil {
			t.Fatal(err)
		}

		if m.Len() > m.MaxResident() {
			t.Errorf("Len() = %d beyond bound", m.Len())
		}
		if _, ok := w.States()["v2"]; ok {
			t.Error("evicted v2 should read absent")
		}
	})

	t.Run("status is a copy", func(t *testing.T) {
		m := newTestManager(t, &tu.FakeFactory{OnLoad: tu.CanPlayThrough})
		w := NewWindow(m)
		if err := w.Update(context.Background(), feed(3), 0); err != nil {
			t.Fatal(err)
		}

		status := w.Status()
		status["v0"] = false
		delete(status, "v1")

		if again := w.Status(); !again["v0"] || !again["v1"] {
			t.Errorf("Status() was mutated through a returned map: %v", again)
		}
	})
}

func TestWindowRefresh(t *testing.T) {
	spy := newSpy()
	w := NewWindow(spy)

	if err := w.Update(context.Background(), feed(10), 8); err != nil {
		t.Fatal(err)
	}
	if err := w.Refresh(context.Background(), feed(4)); err != nil {
		t.Fatal(err)
	}
	if w.Index() != 3 {
		t.Errorf("Index() = %d, want clamped to 3", w.Index())
	}
	if len(w.Items()) != 4 {
		t.Errorf("Items() has %d entries, want 4", len(w.Items()))
	}
}

func TestWindowOptions(t *testing.T) {
	spy := newSpy()
	cfg := shared.DefaultConfig().Preload
	cfg.Lookahead = 1
	cfg.Lookbehind = 0
	w := NewWindow(spy, WindowFromConfig(cfg)...)

	if err := w.Update(context.Background(), feed(5), 2); err != nil {
		t.Fatal(err)
	}
	if got := spy.Resident(); !slices.Equal(got, []string{"https://cdn.test/v2.mp4"}) {
		t.Errorf("Resident() = %v", got)
	}
}

func TestWindowLogger(t *testing.T) {
	var buf bytes.Buffer
	w := NewWindow(newSpy("https://cdn.test/v1.mp4"), WithWindowLogger(log.New(&buf)))

	if err := w.Update(context.Background(), feed(3), 0); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "preload failed") || !strings.Contains(out, "v1") {
		t.Errorf("log output = %q", out)
	}
}

func TestWindowOnPass(t *testing.T) {
	w := NewWindow(newSpy())

	var snaps []Snapshot
	w.OnPass(func(s Snapshot) { snaps = append(snaps, s) })

	for _, i := range []int{0, 1} {
		if err := w.Update(context.Background(), feed(5), i); err != nil {
			t.Fatal(err)
		}
	}

	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	last := snaps[1]
	if last.Index != 1 || last.Total != 5 {
		t.Errorf("snapshot = %+v", last)
	}
	if !last.Status["v1"] || !last.Status["v3"] {
		t.Errorf("snapshot status = %v", last.Status)
	}
}

func TestWindowRun(t *testing.T) {
	t.Run("drives passes and closes when positions close", func(t *testing.T) {
		spy := newSpy()
		w := NewWindow(spy)
		if err := w.Update(context.Background(), feed(6), 0); err != nil {
			t.Fatal(err)
		}

		positions := make(chan int)
		errc := make(chan error, 1)
		go func() { errc <- w.Run(context.Background(), positions) }()

		positions <- 1
		positions <- 2
		close(positions)

		select {
		case err := <-errc:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Run did not return")
		}

		if w.Index() != 2 {
			t.Errorf("Index() = %d, want 2", w.Index())
		}
		calls := spy.Calls()
		if calls[len(calls)-1] != "clearall" {
			t.Errorf("last call = %q, want clearall", calls[len(calls)-1])
		}
	})

	t.Run("stops on context end", func(t *testing.T) {
		spy := newSpy()
		w := NewWindow(spy)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := w.Run(ctx, make(chan int)); !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v", err)
		}
		if !slices.Contains(spy.Calls(), "clearall") {
			t.Error("expected ClearAll on exit")
		}
	})

	t.Run("bad position is logged and skipped", func(t *testing.T) {
		w := NewWindow(newSpy())
		if err := w.Update(context.Background(), feed(3), 0); err != nil {
			t.Fatal(err)
		}

		positions := make(chan int, 2)
		positions <- 9
		positions <- 1
		close(positions)

		if err := w.Run(context.Background(), positions); err != nil {
			t.Fatal(err)
		}
		if w.Index() != 1 {
			t.Errorf("Index() = %d, want 1", w.Index())
		}
	})
}

func TestWindowClose(t *testing.T) {
	spy := newSpy()
	w := NewWindow(spy)
	if err := w.Update(context.Background(), feed(3), 0); err != nil {
		t.Fatal(err)
	}

	w.Close()
	w.Close()

	if len(spy.Resident()) != 0 {
		t.Errorf("Resident() = %v after Close", spy.Resident())
	}
	if len(w.Status()) != 0 {
		t.Errorf("Status() = %v after Close", w.Status())
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{Absent: "absent", Loading: "loading", Ready: "ready"}
	for st, want := range tests {
		if st.String() != want {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), want)
		}
	}
}
