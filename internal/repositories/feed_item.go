package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

const feedItemColumns = `id, sequence, source_url, poster_url, title, author, created_at, updated_at, deleted_at`

// FeedItemRepository implements models.Repository[*models.PersistedFeedItem] over the feed_items table.
//
// It is the feed data source for the preload window: [FeedItemRepository.Feed] returns live items in scroll order.
type FeedItemRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.PersistedFeedItem] = (*FeedItemRepository)(nil)

// NewFeedItemRepository creates a new FeedItemRepository with the given database connection
func NewFeedItemRepository(db *sql.DB) *FeedItemRepository {
	return &FeedItemRepository{db: db}
}

// Create inserts item at the end of the feed with a generated ID and sequence.
//
// A live item with the same source URL yields [shared.ErrInvalidInput].
func (r *FeedItemRepository) Create(item *models.PersistedFeedItem) error {
	if item.ID() == "" {
		item.SetID(shared.GenerateID())
	}

	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "feed_items")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	item.SetSequence(sequence)

	query := `
		INSERT INTO feed_items (id, sequence, source_url, poster_url, title, author, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		item.ID(),
		item.Sequence(),
		item.SourceURL(),
		item.PosterURL(),
		item.Title(),
		item.Author(),
		item.CreatedAt(),
		item.UpdatedAt(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("%w: source url already in feed: %s", shared.ErrInvalidInput, item.SourceURL())
		}
		return fmt.Errorf("failed to insert feed item: %w", err)
	}

	return nil
}

// Get retrieves a feed item by ID, excluding soft-deleted items
func (r *FeedItemRepository) Get(id string) (*models.PersistedFeedItem, error) {
	query := `SELECT ` + feedItemColumns + ` FROM feed_items WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySourceURL retrieves the live feed item for a source URL
func (r *FeedItemRepository) GetBySourceURL(sourceURL string) (*models.PersistedFeedItem, error) {
	query := `SELECT ` + feedItemColumns + ` FROM feed_items WHERE source_url = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, strings.TrimSpace(sourceURL)))
}

// Update modifies the poster, title and author of an existing item. Source URL and order are immutable.
func (r *FeedItemRepository) Update(item *models.PersistedFeedItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	item.SetUpdatedAt(now)

	query := `
		UPDATE feed_items
		SET poster_url = ?, title = ?, author = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, item.PosterURL(), item.Title(), item.Author(), now, item.ID())
	if err != nil {
		return fmt.Errorf("failed to update feed item: %w", err)
	}

	return expectOneRow(result, item.ID())
}

// Delete soft-deletes a feed item by ID
func (r *FeedItemRepository) Delete(id string) error {
	query := `UPDATE feed_items SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete feed item: %w", err)
	}

	return expectOneRow(result, id)
}

// List retrieves live feed items in scroll order.
//
// Supported criteria: "author" (string), "limit" (int), "offset" (int).
func (r *FeedItemRepository) List(criteria map[string]any) ([]*models.PersistedFeedItem, error) {
	query := `SELECT ` + feedItemColumns + ` FROM feed_items WHERE deleted_at IS NULL`
	args := []any{}

	if author, ok := criteria["author"].(string); ok && author != "" {
		query += " AND author = ?"
		args = append(args, author)
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
		if offset, ok := criteria["offset"].(int); ok && offset > 0 {
			query += " OFFSET ?"
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed items: %w", err)
	}
	defer rows.Close()

	var items []*models.PersistedFeedItem
	for rows.Next() {
		item, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// Feed returns every live item as DTOs in scroll order.
func (r *FeedItemRepository) Feed() ([]models.FeedItem, error) {
	items, err := r.List(map[string]any{})
	if err != nil {
		return nil, err
	}

	feed := make([]models.FeedItem, len(items))
	for i, item := range items {
		feed[i] = item.DTO()
	}
	return feed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scan reads one feed_items row from a [sql.Row] or [sql.Rows]
func (r *FeedItemRepository) scan(row rowScanner) (*models.PersistedFeedItem, error) {
	var (
		id        string
		sequence  int
		sourceURL string
		posterURL string
		title     string
		author    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &sourceURL, &posterURL, &title, &author, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrFeedItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan feed item: %w", err)
	}

	item := models.NewPersistedFeedItem(sequence, models.FeedItem{
		ID:        id,
		SourceURL: sourceURL,
		PosterURL: posterURL,
		Title:     title,
		Author:    author,
	})
	item.SetCreatedAt(createdAt)
	item.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		item.SetDeletedAt(&deletedAt.Time)
	}

	return item, nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrFeedItemNotFound, id)
	}
	return nil
}
