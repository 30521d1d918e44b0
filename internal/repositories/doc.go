// Package repositories implements SQLite persistence for the feed data source.
//
// Key Implementations:
//   - [FeedItemRepository] : Feed items in scroll order with soft deletes and source URL lookups
//   - [PreloadEventRepository] : Append-only log of how preload attempts settled
//   - [EventRecorder] : Adapts [PreloadEventRepository] to the preload manager's settle hook
//
// Feed order comes from per-table sequence counters; [NextSequence] increments them atomically.
package repositories
