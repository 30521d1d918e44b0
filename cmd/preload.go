package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/reelx/internal/formatter"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/preload"
	"github.com/urfave/cli/v3"
)

// PreloadRun runs a single window pass and prints the resulting item states.
func (r *Runner) PreloadRun(ctx context.Context, cmd *cli.Command) error {
	items, err := r.loadItems()
	if err != nil {
		return err
	}

	_, window := r.session()
	defer window.Close()

	index := cmd.Int("index")
	start := time.Now()
	if err := window.Update(ctx, items, index); err != nil {
		return fmt.Errorf("preload pass failed: %w", err)
	}
	r.logger.Info("pass complete", "index", index, "elapsed", time.Since(start).Round(time.Millisecond))

	snap := window.Snapshot()
	if cmd.Bool("json") {
		return r.writeJSON(snap, true)
	}

	r.writePlainHeader(fmt.Sprintf("Window at %d of %d", index, len(items)))
	r.writePlain("%s", formatter.StatusTable(items, snap, window.States()))
	return nil
}

// PreloadWalk moves the window one position at a time between --from and --to, in either direction.
func (r *Runner) PreloadWalk(ctx context.Context, cmd *cli.Command) error {
	items, err := r.loadItems()
	if err != nil {
		return err
	}

	from, to := cmd.Int("from"), cmd.Int("to")
	dwell := cmd.Duration("dwell")

	_, window := r.session()
	defer window.Close()

	var snaps []preload.Snapshot
	window.OnPass(func(s preload.Snapshot) { snaps = append(snaps, s) })

	positions := make(chan int)
	done := make(chan error, 1)
	go func() { done <- window.Run(ctx, positions) }()

	step := 1
	if to < from {
		step = -1
	}

	// The first pass also hands the window its item list.
	if err := window.Update(ctx, items, from); err != nil {
		close(positions)
		<-done
		return fmt.Errorf("preload pass failed: %w", err)
	}
	r.reportPass(cmd, window.Snapshot())

send:
	for i := from + step; i != to+step; i += step {
		if dwell > 0 {
			select {
			case <-time.After(dwell):
			case <-ctx.Done():
				break send
			}
		}

		select {
		case positions <- i:
		case <-ctx.Done():
			break send
		}
	}
	close(positions)

	if err := <-done; err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(snaps, true)
	}
	for _, snap := range snaps[1:] {
		r.reportPass(cmd, snap)
	}
	return nil
}

func (r *Runner) reportPass(cmd *cli.Command, snap preload.Snapshot) {
	if cmd.Bool("json") {
		return
	}
	r.writePlain("index %-4d warm %-3d resident %d\n", snap.Index, len(snap.Status), len(snap.Resident))
}

// PreloadHistory lists recorded preload outcomes, newest first.
func (r *Runner) PreloadHistory(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	events, err := r.events.List(map[string]any{
		"limit":      cmd.Int("limit"),
		"outcome":    cmd.String("outcome"),
		"source_url": cmd.String("url"),
	})
	if err != nil {
		return fmt.Errorf("failed to load preload history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(historyJSON(events), true)
	}

	r.writePlainHeader("Preload history")
	r.writePlain("%s", formatter.HistoryTable(events))
	if len(events) > 0 {
		r.writePlainln("%v", formatter.OutcomeCounts(events))
	}
	return nil
}

type historyEntry struct {
	ID              string    `json:"id"`
	SourceURL       string    `json:"source_url"`
	Outcome         string    `json:"outcome"`
	BufferedSeconds float64   `json:"buffered_seconds"`
	ElapsedMS       int64     `json:"elapsed_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

func historyJSON(events []*models.PreloadEvent) []historyEntry {
	out := make([]historyEntry, len(events))
	for i, ev := range events {
		out[i] = historyEntry{
			ID:              ev.ID(),
			SourceURL:       ev.SourceURL(),
			Outcome:         ev.Outcome(),
			BufferedSeconds: ev.BufferedSeconds(),
			ElapsedMS:       ev.Elapsed().Milliseconds(),
			CreatedAt:       ev.CreatedAt(),
		}
	}
	return out
}
