package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/services"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/desertthunder/knuckles/internal/stream"
	"github.com/desertthunder/knuckles/internal/tasks"
	th "github.com/desertthunder/knuckles/internal/testing"
)

func newTestModel(t *testing.T, fake *th.FakeSubsonic, outputDir string) *Model {
	t.Helper()

	rt := stream.NewRuntime(2)
	t.Cleanup(func() { rt.Close() })

	library, err := services.NewSubsonicClient(
		models.ServerURL(fake.URL),
		th.FakeUser,
		models.TokenInfo{Hash: th.FakeHash, Salt: th.FakeSalt},
		services.ClientOptions{Runtime: rt, ChunkSize: 16},
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	m := NewModel(context.Background(), library, tasks.NewLibraryEngine(library, nil, nil), Options{
		Download: tasks.DownloadOpts{OutputDir: outputDir, RateLimit: 100},
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into m, expanding batches.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			run(t, m, c)
		}
	case Msg:
		_, next := m.Update(msg)
		if msg.kind != MsgProgressUpdate {
			run(t, m, next)
		}
	}
}

func TestModel(t *testing.T) {
	t.Run("Lists Albums On Init", func(t *testing.T) {
		fake := th.NewFakeSubsonic(t, th.SampleAlbums()...)
		m := newTestModel(t, fake, t.TempDir())

		run(t, m, m.Init())

		if got := len(m.albumList.Items()); got != 2 {
			t.Fatalf("expected 2 albums, got %d", got)
		}
		if !strings.Contains(m.View(), "First Light") {
			t.Errorf("expected album list to render 'First Light', got %q", m.View())
		}
	})

	t.Run("Fetch Error Is Shown", func(t *testing.T) {
		m := NewModel(context.Background(), nil, nil, Options{})

		m.Update(albumsFetchedMsg(nil, shared.ErrAuthFailed))

		if !errors.Is(m.err, shared.ErrAuthFailed) {
			t.Fatalf("expected auth error, got %v", m.err)
		}
		if !strings.Contains(m.View(), "Error:") {
			t.Errorf("expected error view, got %q", m.View())
		}
	})

	t.Run("Enter Opens Track List And Esc Returns", func(t *testing.T) {
		fake := th.NewFakeSubsonic(t, th.SampleAlbums()...)
		m := newTestModel(t, fake, t.TempDir())
		run(t, m, m.Init())

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, m, cmd)

		if m.view != TrackListView {
			t.Fatalf("expected track list view, got %d", m.view)
		}
		if m.selectedAlbum == nil || m.selectedAlbum.ID != "al-1" {
			t.Fatalf("expected al-1 to be selected, got %+v", m.selectedAlbum)
		}
		if got := len(m.trackList.Items()); got != 2 {
			t.Errorf("expected 2 tracks, got %d", got)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != AlbumListView {
			t.Errorf("expected album list view after esc, got %d", m.view)
		}
	})

	t.Run("Probe Reports Format", func(t *testing.T) {
		fake := th.NewFakeSubsonic(t, th.SampleAlbums()...)
		fake.Audio["so-1"] = append([]byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 20}, make([]byte, 20)...)
		fake.Audio["so-1"] = append(fake.Audio["so-1"], bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, 64)...)
		m := newTestModel(t, fake, t.TempDir())
		run(t, m, m.Init())
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, m, cmd)

		_, cmd = m.Update(runes("p"))
		run(t, m, cmd)

		if !strings.Contains(m.status, "mp3") {
			t.Errorf("expected status to report mp3, got %q", m.status)
		}
	})

	t.Run("Probe Error Is Reported", func(t *testing.T) {
		fake := th.NewFakeSubsonic(t, th.SampleAlbums()...)
		m := newTestModel(t, fake, t.TempDir())
		run(t, m, m.Init())
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, m, cmd)

		_, cmd = m.Update(runes("p"))
		run(t, m, cmd)

		if !strings.Contains(m.status, "Opening") {
			t.Errorf("expected status to name the song, got %q", m.status)
		}
	})

	t.Run("Confirm Then Download", func(t *testing.T) {
		fake := th.NewFakeSubsonic(t, th.SampleAlbums()...)
		fake.Audio["so-1"] = bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, 32)
		fake.Audio["so-2"] = bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x64}, 32)
		dir := t.TempDir()
		m := newTestModel(t, fake, dir)
		run(t, m, m.Init())
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(t, m, cmd)

		m.Update(runes("d"))
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		if !strings.Contains(m.View(), "First Light") {
			t.Errorf("expected confirm view to name the album, got %q", m.View())
		}

		_, cmd = m.Update(runes("y"))
		if m.view != DownloadView {
			t.Fatalf("expected download view, got %d", m.view)
		}
		run(t, m, cmd)

		if m.view != ResultView {
			t.Fatalf("expected result view, got %d", m.view)
		}
		if m.result == nil || m.result.Succeeded != 2 {
			t.Fatalf("expected 2 downloaded songs, got %+v (err %v)", m.result, m.runErr)
		}
		if _, err := os.Stat(filepath.Join(dir, "First Light", "01 Opening.mp3")); err != nil {
			t.Errorf("expected downloaded file: %v", err)
		}

		m.Update(runes("r"))
		if m.view != AlbumListView || m.result != nil {
			t.Errorf("expected restart to reset the model")
		}
	})

	t.Run("Confirm Can Be Declined", func(t *testing.T) {
		m := NewModel(context.Background(), nil, nil, Options{})
		m.selectedAlbum = &th.SampleAlbums()[0]
		m.view = ConfirmView

		m.Update(runes("n"))

		if m.view != TrackListView {
			t.Errorf("expected track list view, got %d", m.view)
		}
	})

	t.Run("Result View Lists Failures", func(t *testing.T) {
		m := NewModel(context.Background(), nil, nil, Options{})
		m.view = ResultView
		m.result = &tasks.BulkDownloadResult{
			Total:     2,
			Succeeded: 1,
			Failed:    1,
			Results: []tasks.DownloadResult{
				{Title: "Opening", Success: true},
				{Title: "Second Wind", Error: shared.ErrSongNotFound},
			},
		}

		view := m.View()
		if !strings.Contains(view, "Downloaded 1 of 2") || !strings.Contains(view, "Second Wind") {
			t.Errorf("expected failures in result view, got %q", view)
		}
	})
}

func TestItems(t *testing.T) {
	t.Run("Album Item", func(t *testing.T) {
		item := albumItem{album: models.AlbumListItem{Name: "First Light", Artist: "The Knuckles", SongCount: 2, Year: 2021}}
		if got := item.Description(); got != "The Knuckles • 2 songs • 2021" {
			t.Errorf("unexpected description %q", got)
		}
	})

	t.Run("Song Item", func(t *testing.T) {
		item := songItem{song: models.Song{Title: "Opening", Artist: "The Knuckles", Track: 1, Duration: 200, Suffix: "mp3"}}
		if got := item.Title(); got != "01. Opening" {
			t.Errorf("unexpected title %q", got)
		}
		if got := item.Description(); got != "The Knuckles • "+shared.FormatDuration(200)+" • mp3" {
			t.Errorf("unexpected description %q", got)
		}
	})
}
