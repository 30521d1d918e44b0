package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/desertthunder/reelx/internal/formatter"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

// FeedAdd appends one item to the end of the feed.
func (r *Runner) FeedAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	item := models.NewPersistedFeedItem(0, models.FeedItem{
		SourceURL: cmd.String("url"),
		PosterURL: cmd.String("poster"),
		Title:     cmd.String("title"),
		Author:    cmd.String("author"),
	})
	if err := r.feed.Create(item); err != nil {
		return fmt.Errorf("failed to add feed item: %w", err)
	}

	r.logger.Info("feed item added", "id", item.ID(), "sequence", item.Sequence(), "url", item.SourceURL())

	if cmd.Bool("json") {
		return r.writeJSON(item.DTO(), true)
	}
	r.writePlain("✓ Added %s (#%d)\n", item.ID(), item.Sequence())
	return nil
}

// FeedList prints live items in scroll order.
func (r *Runner) FeedList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	items, err := r.feed.List(map[string]any{
		"author": cmd.String("author"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to list feed: %w", err)
	}

	if cmd.Bool("json") {
		dtos := lo.Map(items, func(it *models.PersistedFeedItem, _ int) models.FeedItem { return it.DTO() })
		return r.writeJSON(dtos, cmd.Bool("pretty"))
	}

	if len(items) == 0 {
		r.writePlain("Feed is empty.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Feed (%d items)", len(items)))
	tw := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tID\tTITLE\tAUTHOR\tSOURCE")
	for i, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, it.ID(), it.Title(), it.Author(), it.SourceURL())
	}
	return tw.Flush()
}

// FeedRemove soft-deletes an item by ID.
func (r *Runner) FeedRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	id := cmd.String("id")
	if err := r.feed.Delete(id); err != nil {
		return fmt.Errorf("failed to remove feed item: %w", err)
	}

	r.logger.Info("feed item removed", "id", id)
	r.writePlain("✓ Removed %s\n", id)
	return nil
}

// FeedImport appends every item in a JSON array file. Duplicates within the file and items whose
// source URL is already in the feed are skipped.
func (r *Runner) FeedImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a JSON file", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	var incoming []models.FeedItem
	if err := json.Unmarshal(data, &incoming); err != nil {
		return fmt.Errorf("%w: %s is not a JSON array of feed items: %v", shared.ErrInvalidInput, path, err)
	}

	if err := r.openStore(); err != nil {
		return err
	}

	unique := lo.UniqBy(incoming, func(it models.FeedItem) string { return strings.TrimSpace(it.SourceURL) })

	var added, skipped int
	for _, dto := range unique {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := models.NewPersistedFeedItem(0, dto)
		if err := r.feed.Create(item); err != nil {
			if errors.Is(err, shared.ErrInvalidInput) {
				r.logger.Warn("skipping feed item", "url", dto.SourceURL, "err", err)
				skipped++
				continue
			}
			return fmt.Errorf("failed to import feed item: %w", err)
		}
		added++
	}

	skipped += len(incoming) - len(unique)
	r.logger.Info("feed import complete", "path", path, "added", added, "skipped", skipped)
	r.writePlain("✓ Imported %d items (%d skipped)\n", added, skipped)
	return nil
}

// FeedExport writes the feed to a file in the requested format.
func (r *Runner) FeedExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	items, err := r.feed.Feed()
	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}

	path, err := formatter.WriteExport(items, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("feed exported", "path", path, "items", len(items))
	r.writePlain("✓ Exported %d items to %s\n", len(items), path)
	return nil
}
