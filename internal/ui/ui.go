package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/preload"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FeedView ViewState = iota
	DetailView
)

// FeedSource loads the ordered feed.
type FeedSource interface {
	Feed() ([]models.FeedItem, error)
}

// Window is the part of [preload.Window] the TUI drives.
type Window interface {
	Move(ctx context.Context, index int) error
	Refresh(ctx context.Context, items []preload.Item) error
	Index() int
	States() map[string]preload.State
	Close()
}

var _ Window = (*preload.Window)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	feed   FeedSource
	window Window
	width  int
	height int
	list   list.Model
	items  []models.FeedItem
	states map[string]preload.State
	// index is the position of the last completed pass; target is where the cursor wants it.
	index    int
	target   int
	inFlight bool
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, feed FeedSource, window Window) *Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Feed"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return &Model{
		ctx:    ctx,
		view:   FeedView,
		feed:   feed,
		window: window,
		list:   l,
		states: make(map[string]preload.State),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by loading the feed.
func (m *Model) Init() tea.Cmd {
	return m.loadFeed()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case FeedView:
			return m.handleFeedKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgFeedLoaded:
		data := msg.data.(feedLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.items = data.items
		m.target = min(m.target, max(len(m.items)-1, 0))
		m.list.Select(m.target)
		m.syncList()
		return m, m.refresh()

	case MsgPassComplete:
		data := msg.data.(passComplete)
		m.inFlight = false
		m.index = data.index
		m.states = data.states
		m.err = data.err
		m.syncList()

		if m.target != m.index && len(m.items) > 0 {
			return m, m.move(m.target)
		}
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to reload, q to quit", m.err))
	}

	switch m.view {
	case FeedView:
		return m.renderFeed()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

// Close releases everything the window warmed. Call it after the program exits.
func (m *Model) Close() {
	m.window.Close()
}

func (m *Model) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.loadFeed()
	case key.Matches(msg, m.keys.enter):
		if len(m.items) > 0 {
			m.view = DetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	if idx := m.list.Index(); idx != m.target && len(m.items) > 0 {
		m.target = idx
		if !m.inFlight {
			return m, tea.Batch(cmd, m.move(idx))
		}
	}
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = FeedView
	}
	return m, nil
}

// syncList rebuilds list items with the latest states, keeping the cursor.
func (m *Model) syncList() {
	cursor := m.list.Index()
	m.list.SetItems(listItems(m.items, m.states))
	m.list.Select(cursor)
}

func (m *Model) loadFeed() tea.Cmd {
	return func() tea.Msg {
		items, err := m.feed.Feed()
		return feedLoadedMsg(items, err)
	}
}

// refresh hands the window a new list and runs a pass at the current target.
func (m *Model) refresh() tea.Cmd {
	m.inFlight = true
	items := preload.ItemsFromFeed(m.items)
	target := m.target

	return func() tea.Msg {
		err := m.window.Refresh(m.ctx, items)
		if err == nil && len(items) > 0 && m.window.Index() != target {
			err = m.window.Move(m.ctx, target)
		}
		return passCompleteMsg(m.window.Index(), m.window.States(), err)
	}
}

func (m *Model) move(index int) tea.Cmd {
	m.inFlight = true

	return func() tea.Msg {
		err := m.window.Move(m.ctx, index)
		return passCompleteMsg(m.window.Index(), m.window.States(), err)
	}
}

func (m *Model) renderFeed() string {
	if len(m.items) == 0 {
		title := styles.title.Render("Feed")
		hint := styles.help.Render("The feed is empty. Add items with `reelx feed add`.")
		return fmt.Sprintf("%s\n%s\n\n%s", title, hint, m.help.ShortHelpView([]key.Binding{m.keys.refresh, m.keys.quit}))
	}

	status := fmt.Sprintf("%d/%d • %d warm", m.index+1, len(m.items), countReady(m.states))
	if m.inFlight {
		status += " • " + styles.warn.Render("preloading")
	}

	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.list.View(), styles.help.Render(status), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	selected, ok := m.list.SelectedItem().(feedItem)
	if !ok {
		return ""
	}
	it := selected.item

	var b strings.Builder
	b.WriteString(styles.title.Render(selected.Title()))
	b.WriteString("\n")

	rows := [][2]string{
		{"ID", it.ID},
		{"Source", it.SourceURL},
		{"Poster", it.PosterURL},
		{"Author", it.Author},
		{"State", styles.State(selected.state)},
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", styles.label.Render(row[0]), row[1])
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	return b.String()
}

func countReady(states map[string]preload.State) int {
	n := 0
	for _, st := range states {
		if st == preload.Ready {
			n++
		}
	}
	return n
}
