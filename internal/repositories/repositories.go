// package repositories provides SQLite persistence for the feed and preload history.
package repositories

import (
	"database/sql"
	"fmt"
)

// sequenced lists the tables that carry a companion <table>_sequence counter.
var sequenced = map[string]bool{
	"feed_items": true,
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers define scroll order in the feed; they are never reused, so a deleted item leaves a gap.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("table %q has no sequence", table)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1 RETURNING value", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}
