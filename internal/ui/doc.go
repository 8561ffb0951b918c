// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a small library browser:
//  1. [AlbumListView] : Browse one page of the server's albums
//  2. [TrackListView] : Songs of the selected album; p probes the selected song's format
//  3. [ConfirmView] : Confirm downloading the album
//  4. [DownloadView] : Monitor real-time progress updates
//  5. [ResultView] : Display downloaded and failed songs
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the LibraryEngine, providing non-blocking status reporting during downloads.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
