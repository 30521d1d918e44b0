package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/preload"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgFeedLoaded MsgKind = iota
	MsgPassComplete
)

type feedLoaded struct {
	items []models.FeedItem
	err   error
}

type passComplete struct {
	index  int
	states map[string]preload.State
	err    error
}

// feedLoadedMsg is the constructor for [MsgFeedLoaded]
func feedLoadedMsg(items []models.FeedItem, err error) Msg {
	return Msg{kind: MsgFeedLoaded, data: feedLoaded{items, err}}
}

// passCompleteMsg is the constructor for [MsgPassComplete]
func passCompleteMsg(index int, states map[string]preload.State, err error) Msg {
	return Msg{kind: MsgPassComplete, data: passComplete{index, states, err}}
}
