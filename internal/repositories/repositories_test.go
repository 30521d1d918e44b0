package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newItem(n int) *models.PersistedFeedItem {
	return models.NewPersistedFeedItem(0, models.FeedItem{
		SourceURL: fmt.Sprintf("https://cdn.example.com/v%d.mp4", n),
		PosterURL: fmt.Sprintf("https://cdn.example.com/v%d.jpg", n),
		Title:     fmt.Sprintf("video %d", n),
		Author:    "reel",
	})
}

func TestNextSequence(t *testing.T) {
	t.Run("increments", func(t *testing.T) {
		db := setupTestDB(t)

		for want := 1; want <= 3; want++ {
			got, err := NextSequence(db, "feed_items")
			if err != nil {
				t.Fatalf("NextSequence failed: %v", err)
			}
			if got != want {
				t.Errorf("expected sequence %d, got %d", want, got)
			}
		}
	})

	t.Run("rejects unknown table", func(t *testing.T) {
		db := setupTestDB(t)
		if _, err := NextSequence(db, "users; DROP TABLE feed_items"); err == nil {
			t.Error("expected error for unknown table")
		}
	})
}

func TestFeedItemRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewFeedItemRepository(setupTestDB(t))
		item := newItem(0)

		if err := repo.Create(item); err != nil {
			t.Fatalf("failed to create feed item: %v", err)
		}
		if item.ID() == "" {
			t.Error("feed item ID should be set after creation")
		}
		if item.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", item.Sequence())
		}
	})

	t.Run("Create rejects invalid", func(t *testing.T) {
		repo := NewFeedItemRepository(setupTestDB(t))
		item := models.NewPersistedFeedItem(0, models.FeedItem{SourceURL: "not a url"})

		err := repo.Create(item)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Create rejects duplicate live source", func(t *testing.T) {
		repo := NewFeedItemRepository(setupTestDB(t))

		if err := repo.Create(newItem(1)); err != nil {
			t.Fatalf("failed to create feed item: %v", err)
		}
		err := repo.Create(newItem(1))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for duplicate, got %v", err)
		}
	})

	t.Run("Create allows re-adding a deleted source", func(t *testing.T) {
		repo := NewFeedItemRepository(setupTestDB(t))
		first := newItem(1)

		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create feed item: %v", err)
		}
		if err := repo.Delete(first.ID()); err != nil {
			t.Fatalf("failed to delete feed item: %v", err)
		}
		if err := repo.Create(newItem(1)); err != nil {
			t.Errorf("expected re-add after delete to succeed: %v", err)
		}
	})

	t.Run("Get and GetBySourceURL", func(t *testing.T) {
		repo := NewFeedItemRepository(setupTestDB(t))
		item := newItem(2)
		if err := repo.Create(item); err != nil {
			t.Fatalf("failed to create feed item: %v", err)
		}

		byID, err := repo.Get(item.ID())
		if err != nil {
			t.Fatalf("failed to get feed item: %v", err)
		}
		if byID.SourceURL() != item.SourceURL() {
			t.Errorf("expected source %s, got %s", item.SourceURL(), byID.SourceURL())
		}

		bySource, err := repo.GetBySourceURL(item.SourceURL())
		if err != nil {
			t.Fatalf("failed to get by source: %v", err)
		}
		if bySource.ID() != item.ID() {
			t.Errorf("expected ID %s, got %s", item.ID(), bySource.ID())
		}

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrFeedItemNotFound) {
			t.Errorf("expected ErrFeedItemNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewFeedItemRepository(setupTestDB(t))
		item := newItem(3)
		if err := repo.Create(item); err != nil {
			t.Fatalf("failed to create feed item: %v", err)
		}

		item.SetTitle("renamed")
		if err := repo.Update(item); err != nil {
			t.Fatalf("failed to update feed item: %v", err)
		}

		got, err := repo.Get(item.ID())
		if err != nil {
			t.Fatalf("failed to get feed item: %v", err)
		}
		if got.Title() != "renamed" {
			t.Errorf("expected title renamed, got %s", got.Title())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewFeedItemRepository(setupTestDB(t))
		item := newItem(4)
		if err := repo.Create(item); err != nil {
			t.Fatalf("failed to create feed item: %v", err)
		}

		if err := repo.Delete(item.ID()); err != nil {
			t.Fatalf("failed to delete feed item: %v", err)
		}
		if _, err := repo.Get(item.ID()); err == nil {
			t.Error("expected error when getting deleted feed item")
		}
		if err := repo.Delete(item.ID()); !errors.Is(err, shared.ErrFeedItemNotFound) {
			t.Errorf("expected ErrFeedItemNotFound on second delete, got %v", err)
		}
	})

	t.Run("List and Feed keep scroll order", func(t *testing.T) {
		repo := NewFeedItemRepository(setupTestDB(t))
		for i := range 5 {
			if err := repo.Create(newItem(i)); err != nil {
				t.Fatalf("failed to create feed item %d: %v", i, err)
			}
		}

		feed, err := repo.Feed()
		if err != nil {
			t.Fatalf("failed to load feed: %v", err)
		}
		if len(feed) != 5 {
			t.Fatalf("expected 5 items, got %d", len(feed))
		}
		for i, item := range feed {
			want := fmt.Sprintf("https://cdn.example.com/v%d.mp4", i)
			if item.SourceURL != want {
				t.Errorf("position %d: expected %s, got %s", i, want, item.SourceURL)
			}
		}

		page, err := repo.List(map[string]any{"limit": 2, "offset": 1})
		if err != nil {
			t.Fatalf("failed to list page: %v", err)
		}
		if len(page) != 2 || page[0].Sequence() != 2 {
			t.Errorf("unexpected page: %d items", len(page))
		}
	})
}

func TestPreloadEventRepository(t *testing.T) {
	t.Run("Record and List", func(t *testing.T) {
		repo := NewPreloadEventRepository(setupTestDB(t))
		recorder := NewEventRecorder(repo)

		if err := recorder.Record("https://cdn.example.com/a.mp4", "buffered", 0.6, 120*time.Millisecond); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if err := recorder.Record("https://cdn.example.com/b.mp4", "timeout", 0, 3*time.Second); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 events, got %d", len(all))
		}

		timeouts, err := repo.List(map[string]any{"outcome": "timeout"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(timeouts) != 1 || timeouts[0].Elapsed() != 3*time.Second {
			t.Errorf("unexpected timeout events: %+v", timeouts)
		}

		got, err := repo.Get(timeouts[0].ID())
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got.SourceURL() != "https://cdn.example.com/b.mp4" {
			t.Errorf("unexpected source %s", got.SourceURL())
		}
	})

	t.Run("Update is unsupported", func(t *testing.T) {
		repo := NewPreloadEventRepository(setupTestDB(t))
		if err := repo.Update(models.NewPreloadEvent("u", "o", 0, 0)); !errors.Is(err, shared.ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewPreloadEventRepository(setupTestDB(t))
		ev := models.NewPreloadEvent("https://cdn.example.com/a.mp4", "error", 0, time.Second)
		if err := repo.Create(ev); err != nil {
			t.Fatalf("failed to create: %v", err)
		}
		if err := repo.Delete(ev.ID()); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := repo.Delete(ev.ID()); err == nil {
			t.Error("expected error on second delete")
		}
	})
}
