package models

import (
	"fmt"
	"time"
)

// PreloadEvent records how a single preload attempt settled.
type PreloadEvent struct {
	id              string
	sourceURL       string
	outcome         string
	bufferedSeconds float64
	elapsed         time.Duration
	createdAt       time.Time
}

var _ Model = (*PreloadEvent)(nil)

// NewPreloadEvent creates an event stamped with the current time.
func NewPreloadEvent(sourceURL, outcome string, buffered float64, elapsed time.Duration) *PreloadEvent {
	return &PreloadEvent{
		sourceURL:       sourceURL,
		outcome:         outcome,
		bufferedSeconds: buffered,
		elapsed:         elapsed,
		createdAt:       time.Now(),
	}
}

func (e *PreloadEvent) ID() string               { return e.id }
func (e *PreloadEvent) SourceURL() string        { return e.sourceURL }
func (e *PreloadEvent) Outcome() string          { return e.outcome }
func (e *PreloadEvent) BufferedSeconds() float64 { return e.bufferedSeconds }
func (e *PreloadEvent) Elapsed() time.Duration   { return e.elapsed }
func (e *PreloadEvent) CreatedAt() time.Time     { return e.createdAt }

// UpdatedAt equals CreatedAt; events are append-only.
func (e *PreloadEvent) UpdatedAt() time.Time { return e.createdAt }

func (e *PreloadEvent) SetID(id string)          { e.id = id }
func (e *PreloadEvent) SetCreatedAt(t time.Time) { e.createdAt = t }

func (e *PreloadEvent) Validate() error {
	if e.id == "" {
		return fmt.Errorf("preload event id is required")
	}
	if e.sourceURL == "" {
		return fmt.Errorf("preload event source url is required")
	}
	if e.outcome == "" {
		return fmt.Errorf("preload event outcome is required")
	}
	return nil
}
