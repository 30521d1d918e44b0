package media_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/reelx/internal/media"
	"github.com/desertthunder/reelx/internal/shared"
	tu "github.com/desertthunder/reelx/internal/testing"
)

// firstTerminal waits for a CanPlayThrough or Error event.
func firstTerminal(t *testing.T, h media.Handle) media.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-h.Events():
			if ev.Kind != media.Progress {
				return ev
			}
		case <-timeout:
			t.Fatal("no terminal event")
		}
	}
}

func TestHTTPHandleTransport(t *testing.T) {
	tests := []struct {
		name     string
		response *http.Response
		err      error
		want     media.EventKind
	}{
		{
			name: "transport error",
			err:  errors.New("connection refused"),
			want: media.Error,
		},
		{
			name:     "body read failure",
			response: &http.Response{StatusCode: http.StatusPartialContent, Body: &tu.FCloser{}},
			want:     media.Error,
		},
		{
			name:     "short body plays through",
			response: &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("tiny"))},
			want:     media.CanPlayThrough,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(tt.response, tt.err)}
			factory := media.NewHTTPFactory(shared.DefaultConfig().Media, client, nil)

			h := factory.NewHandle(media.Options{Muted: true})
			defer h.Close()

			h.SetSource("https://cdn.test/clip.mp4")
			h.Load(context.Background())

			ev := firstTerminal(t, h)
			if ev.Kind != tt.want {
				t.Fatalf("event = %v, want %v", ev.Kind, tt.want)
			}
			if ev.Kind == media.Error && !errors.Is(ev.Err, shared.ErrFetchFailed) {
				t.Errorf("error = %v, want ErrFetchFailed", ev.Err)
			}
		})
	}
}
