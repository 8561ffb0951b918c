package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/stream"
	"github.com/desertthunder/knuckles/internal/tasks"
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
	MsgAlbumsFetched MsgKind = iota
	MsgAlbumFetched
	MsgSongProbed
	MsgProgressUpdate
	MsgDownloadComplete
)

type albumsFetched struct {
	albums []models.AlbumListItem
	err    error
}

type albumFetched struct {
	album *models.Album
	err   error
}

type songProbed struct {
	song   models.Song
	result *stream.ProbeResult
	loaded int64
	err    error
}

type downloadComplete struct {
	result *tasks.BulkDownloadResult
	err    error
}

// albumsFetchedMsg is the constructor for [MsgAlbumsFetched]
func albumsFetchedMsg(albums []models.AlbumListItem, err error) Msg {
	return Msg{kind: MsgAlbumsFetched, data: albumsFetched{albums, err}}
}

// albumFetchedMsg is the constructor for [MsgAlbumFetched]
func albumFetchedMsg(album *models.Album, err error) Msg {
	return Msg{kind: MsgAlbumFetched, data: albumFetched{album, err}}
}

// songProbedMsg is the constructor for [MsgSongProbed]
func songProbedMsg(song models.Song, result *stream.ProbeResult, loaded int64, err error) Msg {
	return Msg{kind: MsgSongProbed, data: songProbed{song, result, loaded, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// downloadCompleteMsg is the constructor for [MsgDownloadComplete]
func downloadCompleteMsg(result *tasks.BulkDownloadResult, err error) Msg {
	return Msg{kind: MsgDownloadComplete, data: downloadComplete{result, err}}
}
