package models

import (
	"testing"
	"time"
)

func TestPersistedFeedItemValidate(t *testing.T) {
	tt := []struct {
		name    string
		id      string
		dto     FeedItem
		wantErr bool
	}{
		{
			name: "valid with poster",
			id:   "a",
			dto:  FeedItem{SourceURL: "https://cdn.example.com/v0.mp4", PosterURL: "https://cdn.example.com/v0.jpg"},
		},
		{
			name: "valid without poster",
			id:   "a",
			dto:  FeedItem{SourceURL: "http://localhost:9000/v0.mp4"},
		},
		{
			name:    "missing id",
			dto:     FeedItem{SourceURL: "https://cdn.example.com/v0.mp4"},
			wantErr: true,
		},
		{
			name:    "empty source",
			id:      "a",
			dto:     FeedItem{SourceURL: "   "},
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			id:      "a",
			dto:     FeedItem{SourceURL: "ftp://cdn.example.com/v0.mp4"},
			wantErr: true,
		},
		{
			name:    "relative source",
			id:      "a",
			dto:     FeedItem{SourceURL: "/videos/v0.mp4"},
			wantErr: true,
		},
		{
			name:    "bad poster",
			id:      "a",
			dto:     FeedItem{SourceURL: "https://cdn.example.com/v0.mp4", PosterURL: "poster.jpg"},
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			item := NewPersistedFeedItem(1, tc.dto)
			item.SetID(tc.id)

			err := item.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestPersistedFeedItemDTO(t *testing.T) {
	item := NewPersistedFeedItem(7, FeedItem{
		SourceURL: " https://cdn.example.com/v7.mp4 ",
		PosterURL: "https://cdn.example.com/v7.jpg",
		Title:     "seven",
		Author:    "someone",
	})
	item.SetID("id-7")

	dto := item.DTO()
	if dto.ID != "id-7" || dto.SourceURL != "https://cdn.example.com/v7.mp4" || dto.Title != "seven" {
		t.Errorf("unexpected dto: %+v", dto)
	}
	if item.Sequence() != 7 {
		t.Errorf("expected sequence 7, got %d", item.Sequence())
	}
}

func TestPreloadEventValidate(t *testing.T) {
	ev := NewPreloadEvent("https://cdn.example.com/v.mp4", "timeout", 0, 3*time.Second)
	if err := ev.Validate(); err == nil {
		t.Error("expected error without id")
	}

	ev.SetID("e1")
	if err := ev.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !ev.UpdatedAt().Equal(ev.CreatedAt()) {
		t.Error("events should not diverge created/updated")
	}
}
