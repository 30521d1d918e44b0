// Package models defines the feed entities reelx persists and hands to the preload window.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs passed between layers
//   - [FeedItem] : One video in the scroll order with its source and poster URLs
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [PersistedFeedItem] : A feed item with sequence, timestamps and soft delete
//   - [PreloadEvent] : The outcome of one preload attempt
//
// All persistent entities implement the Model interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
