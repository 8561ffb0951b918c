package tasks

import (
	"fmt"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchAlbumList Phase = iota
	FetchAlbum
	CacheAlbum
	RecordSync
	DownloadSong
)

func (p Phase) String() string {
	switch p {
	case FetchAlbumList:
		return "fetch_album_list"
	case FetchAlbum:
		return "fetch_album"
	case CacheAlbum:
		return "cache_album"
	case RecordSync:
		return "record_sync"
	case DownloadSong:
		return "download_song"
	default:
		return ""
	}
}

func albumPageUpdate(page, found int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbumList,
		Step:    page,
		Message: fmt.Sprintf("Fetched album list page %d (%d albums so far)...", page, found),
	}
}

func fetchAlbumUpdate(step, total int, item models.AlbumListItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, item.Artist, item.Name),
	}
}

func cachedAlbumUpdate(step, total int, album *models.Album, songs int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d songs)", step, total, album.Name, songs),
		Data:    album,
	}
}

func albumFailedUpdate(step, total int, item models.AlbumListItem, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, item.Name, err),
	}
}

func recordSyncUpdate(albums, songs int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordSync,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Synced %d albums, %d songs", albums, songs),
	}
}

func downloadStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadSong,
		Total:   total,
		Message: fmt.Sprintf("Downloading %d songs...", total),
	}
}

func downloadedUpdate(step, total int, res DownloadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadSong,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%s)", step, total, res.Title, shared.FormatBytes(res.Bytes)),
		Data:    res,
	}
}

func downloadFailedUpdate(step, total int, res DownloadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadSong,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
		Data:    res,
	}
}
