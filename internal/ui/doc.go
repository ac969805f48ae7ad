// Package ui implements an interactive terminal song browser using bubbletea's Elm architecture.
//
// The TUI moves between three views:
//  1. [SongListView] : Browse and filter the catalog
//  2. [DetailView] : Every field of one song, lyrics included
//  3. [ConfirmDeleteView] : Confirm removal of the selected song
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Catalog calls run as [tea.Cmd]s, so a slow backend never freezes rendering.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
