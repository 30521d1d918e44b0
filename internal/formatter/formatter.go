// package formatter renders feeds, window status and preload history as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/preload"
	"github.com/desertthunder/reelx/internal/shared"
)

// Format names accepted by [Export].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "txt"
	FormatJSON     = "json"
)

var formats = []string{FormatCSV, FormatMarkdown, FormatText, FormatJSON}

// FeedToCSV converts feed items to CSV with columns: ID, SourceURL, PosterURL, Title, Author
func FeedToCSV(items []models.FeedItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "SourceURL", "PosterURL", "Title", "Author"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{item.ID, item.SourceURL, item.PosterURL, item.Title, item.Author}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// FeedToMarkdown converts feed items to a numbered Markdown list of links
func FeedToMarkdown(items []models.FeedItem) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Feed\n\n")
	fmt.Fprintf(&buf, "**Items**: %d\n\n", len(items))

	for i, item := range items {
		byline := ""
		if item.Author != "" {
			byline = fmt.Sprintf(" by %s", item.Author)
		}
		fmt.Fprintf(&buf, "%d. [%s](%s)%s\n", i+1, title(item), item.SourceURL, byline)
	}

	return buf.Bytes(), nil
}

// FeedToText converts feed items to plain text, one per line
func FeedToText(items []models.FeedItem) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Feed: %d items\n\n", len(items))
	for i, item := range items {
		fmt.Fprintf(&buf, "%d. %s [%s]\n   %s\n", i+1, title(item), item.ID, item.SourceURL)
	}

	return buf.Bytes(), nil
}

// FeedToJSON converts feed items to indented JSON
func FeedToJSON(items []models.FeedItem) ([]byte, error) {
	if items == nil {
		items = []models.FeedItem{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feed: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders items in the named format.
func Export(items []models.FeedItem, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return FeedToCSV(items)
	case FormatMarkdown, "markdown":
		return FeedToMarkdown(items)
	case FormatText, "text":
		return FeedToText(items)
	case FormatJSON:
		return FeedToJSON(items)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(formats, ", "))
	}
}

// WriteExport renders items and writes them to path, creating parent directories.
//
// An empty path defaults to feed.{format}.
func WriteExport(items []models.FeedItem, format, path string) (string, error) {
	data, err := Export(items, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "feed." + strings.ToLower(format)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// StatusTable renders one row per item with its position, state and whether it is the cursor.
func StatusTable(items []preload.Item, snap preload.Snapshot, states map[string]preload.State) []byte {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "\tPOS\tID\tSTATE\tSOURCE")
	for i, item := range items {
		cursor := ""
		if i == snap.Index {
			cursor = "▶"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", cursor, i, item.ID, states[item.ID], item.SourceURL)
	}
	tw.Flush()

	fmt.Fprintf(&buf, "\nresident: %d  warm: %d\n", len(snap.Resident), len(snap.Status))
	return buf.Bytes()
}

// HistoryTable renders recorded preload outcomes, newest first.
func HistoryTable(events []*models.PreloadEvent) []byte {
	var buf bytes.Buffer
	if len(events) == 0 {
		buf.WriteString("No preloads recorded.\n")
		return buf.Bytes()
	}

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tOUTCOME\tBUFFERED\tELAPSED\tSOURCE")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%.2fs\t%s\t%s\n",
			ev.CreatedAt().Local().Format(time.DateTime),
			ev.Outcome(),
			ev.BufferedSeconds(),
			ev.Elapsed().Round(time.Millisecond),
			ev.SourceURL(),
		)
	}
	tw.Flush()

	return buf.Bytes()
}

// OutcomeCounts tallies events by outcome, sorted by outcome name.
func OutcomeCounts(events []*models.PreloadEvent) []string {
	counts := make(map[string]int)
	for _, ev := range events {
		counts[ev.Outcome()]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return lines
}

func title(item models.FeedItem) string {
	if item.Title != "" {
		return item.Title
	}
	return item.SourceURL
}
