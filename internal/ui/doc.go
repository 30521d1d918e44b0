// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI lists the feed and drives a [preload.Window] from the cursor:
//  1. [FeedView] : Scroll the feed; each move runs a window pass in the background
//  2. [DetailView] : Inspect one item and its preload state
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Passes run as [tea.Cmd]s and report back with a snapshot of item states, so the list never blocks on the network.
// Moves made while a pass is in flight are coalesced into one pass for the latest position.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
