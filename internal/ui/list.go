package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
)

var (
	_ list.Item = albumItem{}
	_ list.Item = songItem{}
)

// albumItem wraps [models.AlbumListItem] to implement [list.Item].
type albumItem struct {
	album models.AlbumListItem
}

func (i albumItem) FilterValue() string { return i.album.Name + " " + i.album.Artist }
func (i albumItem) Title() string       { return i.album.Name }
func (i albumItem) Description() string {
	desc := fmt.Sprintf("%s • %d songs", i.album.Artist, i.album.SongCount)
	if i.album.Year > 0 {
		desc = fmt.Sprintf("%s • %d", desc, i.album.Year)
	}
	return desc
}

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.Title }
func (i songItem) Title() string {
	if i.song.Track > 0 {
		return fmt.Sprintf("%02d. %s", i.song.Track, i.song.Title)
	}
	return i.song.Title
}
func (i songItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.song.Artist, shared.FormatDuration(i.song.Duration))
	if i.song.Suffix != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Suffix)
	}
	return desc
}
