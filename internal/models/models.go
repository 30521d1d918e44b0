// Package models holds the feed items and preload history records reelx stores in SQLite.
package models

import (
	"time"
)

// Model is what every stored record exposes to its repository: an ID, timestamps and a validity check.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error // checked by repositories before a write
}

// Repository is the storage contract for one record type.
//
// Get on a missing or soft-deleted ID returns an error. List takes
// type-specific criteria keys such as "limit"; unknown keys are ignored.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}
