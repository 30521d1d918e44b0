package media

import (
	"context"
	"fmt"
)

// EventKind enumerates the signals a [Handle] emits while loading.
type EventKind int

const (
	Progress EventKind = iota
	CanPlayThrough
	Error
)

func (k EventKind) String() string {
	switch k {
	case Progress:
		return "progress"
	case CanPlayThrough:
		return "canplaythrough"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one load signal.
type Event struct {
	Kind     EventKind
	Buffered float64 // Contiguous seconds buffered from the start when the event fired
	Err      error   // Set for [Error]
}

// Options mirror the attributes a feed sets on a background media element.
type Options struct {
	Muted       bool
	PlaysInline bool
	CrossOrigin bool
}

// Handle is an owned, playback-capable resource.
type Handle interface {
	ID() string               // ID identifies the handle in logs
	Options() Options         // Options returns the attributes the handle was created with
	SetSource(url string)     // SetSource assigns the media URL; an empty string detaches it
	SetPoster(url string)     // SetPoster assigns the placeholder image URL
	Load(ctx context.Context) // Load starts (or restarts) fetching the current source and returns immediately
	Play() error              // Play starts playback of buffered data
	Pause()                   // Pause stops playback
	Buffered() float64        // Buffered reports contiguous seconds buffered from the start
	Events() <-chan Event     // Events delivers load signals until Close
	Flush()                   // Flush aborts any fetch and drops buffered data
	Close() error             // Close releases the handle and closes the event channel
}

// Factory creates handles for the preload manager.
type Factory interface {
	NewHandle(opts Options) Handle
}

// FactoryFunc adapts a plain function to [Factory].
type FactoryFunc func(opts Options) Handle

func (f FactoryFunc) NewHandle(opts Options) Handle { return f(opts) }
