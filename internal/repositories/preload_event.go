package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
)

// PreloadEventRepository stores [models.PreloadEvent] rows. Events are append-only.
type PreloadEventRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.PreloadEvent] = (*PreloadEventRepository)(nil)

// NewPreloadEventRepository creates a new PreloadEventRepository with the given database connection
func NewPreloadEventRepository(db *sql.DB) *PreloadEventRepository {
	return &PreloadEventRepository{db: db}
}

// Create inserts ev with a generated ID.
func (r *PreloadEventRepository) Create(ev *models.PreloadEvent) error {
	ev.SetID(shared.GenerateID())

	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	_, err := r.db.Exec(`
		INSERT INTO preload_events (id, source_url, outcome, buffered_seconds, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ID(), ev.SourceURL(), ev.Outcome(), ev.BufferedSeconds(), ev.Elapsed().Milliseconds(), ev.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert preload event: %w", err)
	}
	return nil
}

// Get retrieves a single event by ID
func (r *PreloadEventRepository) Get(id string) (*models.PreloadEvent, error) {
	row := r.db.QueryRow(`
		SELECT id, source_url, outcome, buffered_seconds, elapsed_ms, created_at
		FROM preload_events WHERE id = ?
	`, id)

	ev, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preload event not found: %s", id)
	}
	return ev, err
}

// Update is not supported; events are immutable once written.
func (r *PreloadEventRepository) Update(*models.PreloadEvent) error {
	return fmt.Errorf("%w: preload events are append-only", shared.ErrNotImplemented)
}

// Delete removes an event by ID
func (r *PreloadEventRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM preload_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete preload event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("preload event not found: %s", id)
	}
	return nil
}

// List returns events newest first.
//
// Supported criteria: "source_url" (string), "outcome" (string), "limit" (int).
func (r *PreloadEventRepository) List(criteria map[string]any) ([]*models.PreloadEvent, error) {
	query := `SELECT id, source_url, outcome, buffered_seconds, elapsed_ms, created_at FROM preload_events WHERE 1 = 1`
	args := []any{}

	if u, ok := criteria["source_url"].(string); ok && u != "" {
		query += " AND source_url = ?"
		args = append(args, u)
	}
	if outcome, ok := criteria["outcome"].(string); ok && outcome != "" {
		query += " AND outcome = ?"
		args = append(args, outcome)
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query preload events: %w", err)
	}
	defer rows.Close()

	var events []*models.PreloadEvent
	for rows.Next() {
		ev, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preload event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *PreloadEventRepository) scan(row rowScanner) (*models.PreloadEvent, error) {
	var (
		id        string
		sourceURL string
		outcome   string
		buffered  float64
		elapsedMS int64
		createdAt time.Time
	)
	if err := row.Scan(&id, &sourceURL, &outcome, &buffered, &elapsedMS, &createdAt); err != nil {
		return nil, err
	}

	ev := models.NewPreloadEvent(sourceURL, outcome, buffered, time.Duration(elapsedMS)*time.Millisecond)
	ev.SetID(id)
	ev.SetCreatedAt(createdAt)
	return ev, nil
}

// EventRecorder adapts [PreloadEventRepository] to the preload manager's settle hook.
//
// Write failures are returned to the caller, which logs them; they never affect preloading.
type EventRecorder struct {
	repo *PreloadEventRepository
}

// NewEventRecorder creates a new EventRecorder with the given repository
func NewEventRecorder(repo *PreloadEventRepository) *EventRecorder {
	return &EventRecorder{repo: repo}
}

// Record persists one settled preload.
func (a *EventRecorder) Record(sourceURL, outcome string, buffered float64, elapsed time.Duration) error {
	if err := a.repo.Create(models.NewPreloadEvent(sourceURL, outcome, buffered, elapsed)); err != nil {
		return fmt.Errorf("failed to record preload event: %w", err)
	}
	return nil
}
