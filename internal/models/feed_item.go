package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FeedItem is one video in the feed, in the shape the preload window and the CLI exchange.
type FeedItem struct {
	ID        string `json:"id"`
	SourceURL string `json:"source_url"`
	PosterURL string `json:"poster_url,omitempty"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
}

// PersistedFeedItem is a [FeedItem] stored in the feed_items table.
type PersistedFeedItem struct {
	id        string
	sequence  int
	sourceURL string
	posterURL string
	title     string
	author    string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

var _ Model = (*PersistedFeedItem)(nil)

// NewPersistedFeedItem wraps dto for persistence. The ID is assigned by the repository on create.
func NewPersistedFeedItem(sequence int, dto FeedItem) *PersistedFeedItem {
	now := time.Now()
	return &PersistedFeedItem{
		id:        dto.ID,
		sequence:  sequence,
		sourceURL: strings.TrimSpace(dto.SourceURL),
		posterURL: strings.TrimSpace(dto.PosterURL),
		title:     dto.Title,
		author:    dto.Author,
		createdAt: now,
		updatedAt: now,
	}
}

func (f *PersistedFeedItem) ID() string            { return f.id }
func (f *PersistedFeedItem) Sequence() int         { return f.sequence }
func (f *PersistedFeedItem) SourceURL() string     { return f.sourceURL }
func (f *PersistedFeedItem) PosterURL() string     { return f.posterURL }
func (f *PersistedFeedItem) Title() string         { return f.title }
func (f *PersistedFeedItem) Author() string        { return f.author }
func (f *PersistedFeedItem) CreatedAt() time.Time  { return f.createdAt }
func (f *PersistedFeedItem) UpdatedAt() time.Time  { return f.updatedAt }
func (f *PersistedFeedItem) DeletedAt() *time.Time { return f.deletedAt }

func (f *PersistedFeedItem) SetID(id string)           { f.id = id }
func (f *PersistedFeedItem) SetSequence(seq int)       { f.sequence = seq }
func (f *PersistedFeedItem) SetTitle(title string)     { f.title = title }
func (f *PersistedFeedItem) SetAuthor(author string)   { f.author = author }
func (f *PersistedFeedItem) SetPosterURL(u string)     { f.posterURL = strings.TrimSpace(u) }
func (f *PersistedFeedItem) SetCreatedAt(t time.Time)  { f.createdAt = t }
func (f *PersistedFeedItem) SetUpdatedAt(t time.Time)  { f.updatedAt = t }
func (f *PersistedFeedItem) SetDeletedAt(t *time.Time) { f.deletedAt = t }

// DTO converts back to the transfer shape handed to the preload window.
func (f *PersistedFeedItem) DTO() FeedItem {
	return FeedItem{
		ID:        f.id,
		SourceURL: f.sourceURL,
		PosterURL: f.posterURL,
		Title:     f.title,
		Author:    f.author,
	}
}

// Validate requires an ID and absolute http(s) source URL. The poster URL is optional but must parse when set.
func (f *PersistedFeedItem) Validate() error {
	if f.id == "" {
		return fmt.Errorf("feed item id is required")
	}
	if err := validateMediaURL(f.sourceURL); err != nil {
		return fmt.Errorf("source url: %w", err)
	}
	if f.posterURL != "" {
		if err := validateMediaURL(f.posterURL); err != nil {
			return fmt.Errorf("poster url: %w", err)
		}
	}
	return nil
}

func validateMediaURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
