package services

import (
	"context"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/stream"
)

// Library is the read side of a Subsonic server used by the CLI, relay, and sync tasks.
type Library interface {
	// Ping checks the server is reachable and accepts our credentials.
	Ping(ctx context.Context) (*ServerInfo, error)

	// Albums returns one page of the album list.
	Albums(ctx context.Context, opts AlbumListOptions) ([]models.AlbumListItem, error)

	// Album returns an album with its songs.
	Album(ctx context.Context, id models.AlbumID) (*models.Album, error)

	// Song returns a single song.
	Song(ctx context.Context, id models.SongID) (*models.Song, error)

	// Stream opens a song's audio as a lazily buffered, seekable stream.
	Stream(ctx context.Context, id models.SongID, opts StreamOptions) (*stream.SongStream, error)

	// CoverArtURL returns a URL for the given cover art ID.
	CoverArtURL(id string, size int) string

	// Server returns the server URL, used to key cached rows.
	Server() string
}
