package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/preload"
)

var _ list.Item = feedItem{}

// feedItem wraps [models.FeedItem] with its preload state to implement [list.Item].
type feedItem struct {
	item  models.FeedItem
	state preload.State
}

func (i feedItem) FilterValue() string { return i.item.Title }

func (i feedItem) Title() string {
	if i.item.Title != "" {
		return i.item.Title
	}
	return i.item.SourceURL
}

func (i feedItem) Description() string {
	desc := styles.State(i.state)
	if i.item.Author != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.item.Author)
	}
	return desc
}

func listItems(items []models.FeedItem, states map[string]preload.State) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = feedItem{item: it, state: states[it.ID]}
	}
	return out
}
