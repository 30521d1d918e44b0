// Package preload keeps a short run of feed videos warm ahead of the viewer.
//
// # Manager
//
// [Manager] owns a bounded pool of [Resource]s keyed by source URL. [Manager.Preload] is idempotent per URL:
// the first call creates a muted, inline, cross-origin [media.Handle], starts loading it and waits for
// readiness; later calls return the same entry without waiting. Readiness is the first of three signals:
//
//  1. the handle reports it can play through
//  2. a progress event reports at least the ready threshold (0.5s by default) buffered
//  3. the ready timeout (3s by default) elapses, which marks the entry ready regardless of buffer
//
// A load error settles the call without marking the entry ready. Load failures are never returned as errors;
// an entry may be ready and still stall on play.
//
// [Manager.Cleanup] evicts the oldest entries by insertion order until at most MaxResident remain.
// Re-accessing an entry does not refresh its position.
//
// # Window
//
// [Window] maps a position in an ordered feed onto manager calls. Each pass preloads the current item and the
// two after it one at a time, runs cleanup, then releases every item outside one-behind/two-ahead.
// Passes on the same window never interleave. [Window.Close] clears the manager.
package preload
