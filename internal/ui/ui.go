package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/services"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/desertthunder/knuckles/internal/stream"
	"github.com/desertthunder/knuckles/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AlbumListView ViewState = iota
	TrackListView
	ConfirmView
	DownloadView
	ResultView
)

// Options configure what the TUI lists and how it downloads.
type Options struct {
	Albums   services.AlbumListOptions
	Download tasks.DownloadOpts
}

// Model represents the TUI application state.
type Model struct {
	ctx           context.Context
	view          ViewState
	library       services.Library
	engine        *tasks.LibraryEngine
	opts          Options
	width         int
	height        int
	albumList     list.Model
	trackList     list.Model
	selectedAlbum *models.Album
	status        string
	progressChan  chan tasks.ProgressUpdate
	progress      tasks.ProgressUpdate
	result        *tasks.BulkDownloadResult
	runErr        error
	err           error
	help          help.Model
	keys          keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, library services.Library, engine *tasks.LibraryEngine, opts Options) *Model {
	return &Model{
		ctx:       ctx,
		view:      AlbumListView,
		library:   library,
		engine:    engine,
		opts:      opts,
		albumList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init initializes the TUI by fetching the album list.
func (m *Model) Init() tea.Cmd {
	return m.fetchAlbums()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case AlbumListView:
			return m.handleAlbumListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case DownloadView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

// resize fits both lists to the window, leaving room for the status and help lines.
func (m *Model) resize() {
	w, h := max(m.width-4, 0), max(m.height-8, 0)
	m.albumList.SetSize(w, h)
	m.trackList.SetSize(w, h)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAlbumsFetched:
		data := msg.data.(albumsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.albums))
		for i, a := range data.albums {
			items[i] = albumItem{album: a}
		}
		m.albumList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.albumList.Title = "Albums"
		m.resize()
		return m, nil

	case MsgAlbumFetched:
		data := msg.data.(albumFetched)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Failed to load album: %v", data.err))
			m.view = AlbumListView
			return m, nil
		}
		m.selectedAlbum = data.album
		items := make([]list.Item, len(data.album.Songs))
		for i, s := range data.album.Songs {
			items[i] = songItem{song: s}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("%s - %s", data.album.Artist, data.album.Name)
		m.resize()
		m.status = ""
		m.view = TrackListView
		return m, nil

	case MsgSongProbed:
		data := msg.data.(songProbed)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("%s: %v", data.song.Title, data.err))
			return m, nil
		}
		m.status = styles.ok.Render(fmt.Sprintf("%s: %s", data.song.Title, data.result.Format)) +
			styles.dim.Render(fmt.Sprintf(" (tag %s, %s buffered)", shared.FormatBytes(data.result.TagSize), shared.FormatBytes(data.loaded)))
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgDownloadComplete:
		data := msg.data.(downloadComplete)
		m.result = data.result
		m.runErr = data.err
		m.progressChan = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case AlbumListView:
		return m.renderAlbumList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleAlbumListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.albumList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.albumList.SelectedItem().(albumItem); ok {
				return m, m.fetchAlbum(item.album.ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.albumList, cmd = m.albumList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = AlbumListView
			m.status = ""
			return m, nil
		case key.Matches(msg, m.keys.probe):
			if item, ok := m.trackList.SelectedItem().(songItem); ok {
				m.status = styles.dim.Render(fmt.Sprintf("Probing %s...", item.song.Title))
				return m, m.probeSong(item.song)
			}
			return m, nil
		case key.Matches(msg, m.keys.download):
			if m.selectedAlbum != nil && len(m.selectedAlbum.Songs) > 0 {
				m.view = ConfirmView
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = DownloadView
		return m, m.startDownload()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = AlbumListView
		m.selectedAlbum = nil
		m.result = nil
		m.runErr = nil
		m.status = ""
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case AlbumListView:
		m.albumList, cmd = m.albumList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchAlbums() tea.Cmd {
	return func() tea.Msg {
		albums, err := m.library.Albums(m.ctx, m.opts.Albums)
		return albumsFetchedMsg(albums, err)
	}
}

func (m *Model) fetchAlbum(id string) tea.Cmd {
	return func() tea.Msg {
		album, err := m.library.Album(m.ctx, models.AlbumID(id))
		return albumFetchedMsg(album, err)
	}
}

// probeSong opens the song, sniffs its container and closes it again. Only the bytes
// the probe asks for are fetched.
func (m *Model) probeSong(song models.Song) tea.Cmd {
	return func() tea.Msg {
		s, err := m.library.Stream(m.ctx, models.SongID(song.ID), m.opts.Download.Stream)
		if err != nil {
			return songProbedMsg(song, nil, 0, err)
		}
		defer s.Close()

		res, err := stream.Probe(s)
		return songProbedMsg(song, res, s.Loaded(), err)
	}
}

func (m *Model) startDownload() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	m.progressChan = progress
	m.progress = tasks.ProgressUpdate{}

	songs := m.selectedAlbum.Songs
	opts := m.opts.Download
	if opts.OutputDir != "" {
		opts.OutputDir = filepath.Join(opts.OutputDir, shared.SafeFileName(m.selectedAlbum.Name))
	}

	done := make(chan Msg, 1)
	go func() {
		result, err := m.engine.Download(m.ctx, progress, songs, opts)
		done <- downloadCompleteMsg(result, err)
		close(progress)
	}()

	return tea.Batch(m.waitForProgress(), func() tea.Msg { return <-done })
}

// waitForProgress relays one progress update; it stops once the channel is closed.
func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderAlbumList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n%s", m.albumList.View(), m.status, helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.probe, m.keys.download, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n%s", m.trackList.View(), m.status, helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Download '%s'?", m.selectedAlbum.Name))
	info := fmt.Sprintf("\nArtist: %s\nSongs: %d\nDuration: %s\n",
		m.selectedAlbum.Artist,
		len(m.selectedAlbum.Songs),
		shared.FormatDuration(m.selectedAlbum.Duration),
	)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderDownload() string {
	title := styles.title.Render(fmt.Sprintf("Downloading %s", m.selectedAlbum.Name))

	phase := "Starting..."
	if m.progress.Total > 0 {
		phase = fmt.Sprintf("Songs (%d/%d)", m.progress.Step, m.progress.Total)
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.result == nil {
		msg := "No result available"
		if m.runErr != nil {
			msg = fmt.Sprintf("Download failed: %v", m.runErr)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	title := styles.ok.Render("✓ Download Complete!")
	if m.result.Failed > 0 {
		title = styles.warn.Render(fmt.Sprintf("Downloaded %d of %d songs", m.result.Succeeded, m.result.Total))
	}
	info := fmt.Sprintf("\nOutput: %s\nSongs: %d/%d", m.result.OutputDirectory, m.result.Succeeded, m.result.Total)

	var failed string
	for _, r := range m.result.Results {
		if !r.Success {
			failed += fmt.Sprintf("\n  • %s: %v", r.Title, r.Error)
		}
	}
	if failed != "" {
		failed = "\n\n" + styles.warn.Render("Failed:") + failed
	}
	if m.runErr != nil {
		failed += "\n\n" + styles.err.Render(m.runErr.Error())
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
