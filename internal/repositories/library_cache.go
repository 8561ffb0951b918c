package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
)

// SyncState records the outcome of the last library sync against a server.
type SyncState struct {
	Server   string
	Albums   int
	Songs    int
	SyncedAt time.Time
}

// LibraryCacheAdapter implements tasks.LibraryCacher on top of the album and song repositories.
//
// Caching an album is an upsert keyed on (server, remote ID). Songs that disappeared from
// the album upstream are soft-deleted.
type LibraryCacheAdapter struct {
	db     *sql.DB
	albums *AlbumRepository
	songs  *SongRepository
}

// NewLibraryCacheAdapter creates a LibraryCacheAdapter over db
func NewLibraryCacheAdapter(db *sql.DB) *LibraryCacheAdapter {
	return &LibraryCacheAdapter{
		db:     db,
		albums: NewAlbumRepository(db),
		songs:  NewSongRepository(db),
	}
}

// Albums exposes the underlying album repository.
func (a *LibraryCacheAdapter) Albums() *AlbumRepository { return a.albums }

// Songs exposes the underlying song repository.
func (a *LibraryCacheAdapter) Songs() *SongRepository { return a.songs }

// CacheAlbum stores album and its songs, returning how many songs were written.
func (a *LibraryCacheAdapter) CacheAlbum(server string, album models.Album) (int, error) {
	persisted, err := a.albums.GetByRemoteID(server, album.ID)
	switch {
	case errors.Is(err, shared.ErrAlbumNotFound):
		persisted = models.NewPersistedAlbum(0, server, album.AlbumListItem)
		if err := a.albums.Create(persisted); err != nil {
			return 0, fmt.Errorf("failed to cache album %s: %w", album.ID, err)
		}
	case err != nil:
		return 0, err
	default:
		persisted.SetAlbum(album.AlbumListItem)
		if err := a.albums.Update(persisted); err != nil {
			return 0, fmt.Errorf("failed to refresh album %s: %w", album.ID, err)
		}
	}

	existing, err := a.songs.ListByAlbum(persisted.ID())
	if err != nil {
		return 0, err
	}
	stale := make(map[string]*models.PersistedSong, len(existing))
	for _, s := range existing {
		stale[s.RemoteID()] = s
	}

	written := 0
	for _, song := range album.Songs {
		if cached, ok := stale[song.ID]; ok {
			delete(stale, song.ID)
			cached.SetSong(song)
			if err := a.songs.Update(cached); err != nil {
				return written, fmt.Errorf("failed to refresh song %s: %w", song.ID, err)
			}
			written++
			continue
		}

		if err := a.cacheSong(server, persisted.ID(), song); err != nil {
			return written, err
		}
		written++
	}

	for _, s := range stale {
		if err := a.songs.Delete(s.ID()); err != nil {
			return written, fmt.Errorf("failed to drop song %s: %w", s.RemoteID(), err)
		}
	}
	return written, nil
}

// cacheSong creates a song row, or moves an existing row for the same remote song onto albumRef.
func (a *LibraryCacheAdapter) cacheSong(server, albumRef string, song models.Song) error {
	cached, err := a.songs.GetByRemoteID(server, song.ID)
	if errors.Is(err, shared.ErrSongNotFound) {
		if err := a.songs.Create(models.NewPersistedSong(0, server, albumRef, song)); err != nil {
			return fmt.Errorf("failed to cache song %s: %w", song.ID, err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	moved := models.RestorePersistedSong(cached.ID(), cached.Sequence(), server, albumRef, song, cached.CreatedAt(), cached.UpdatedAt(), nil)
	if err := a.songs.Update(moved); err != nil {
		return fmt.Errorf("failed to refresh song %s: %w", song.ID, err)
	}
	return nil
}

// CachedAlbums returns the cached albums of server, optionally limited.
func (a *LibraryCacheAdapter) CachedAlbums(server string, limit int) ([]models.AlbumListItem, error) {
	rows, err := a.albums.List(map[string]any{"server": server, "limit": limit})
	if err != nil {
		return nil, err
	}
	items := make([]models.AlbumListItem, len(rows))
	for i, r := range rows {
		items[i] = r.Album()
	}
	return items, nil
}

// CachedAlbum returns a cached album with its songs.
func (a *LibraryCacheAdapter) CachedAlbum(server, remoteID string) (*models.Album, error) {
	persisted, err := a.albums.GetByRemoteID(server, remoteID)
	if err != nil {
		return nil, err
	}
	rows, err := a.songs.ListByAlbum(persisted.ID())
	if err != nil {
		return nil, err
	}

	album := &models.Album{AlbumListItem: persisted.Album()}
	for _, r := range rows {
		s := r.Song()
		s.AlbumID = remoteID
		album.Songs = append(album.Songs, s)
	}
	return album, nil
}

// RecordSync stores the totals of a finished sync.
func (a *LibraryCacheAdapter) RecordSync(server string, albums, songs int) error {
	_, err := a.db.Exec(`
		INSERT INTO sync_state (server, albums, songs, synced_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(server) DO UPDATE SET albums = excluded.albums, songs = excluded.songs, synced_at = excluded.synced_at`,
		server, albums, songs, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// LastSync returns the last recorded sync for server, or nil if it was never synced.
func (a *LibraryCacheAdapter) LastSync(server string) (*SyncState, error) {
	st := SyncState{Server: server}
	err := a.db.QueryRow(`SELECT albums, songs, synced_at FROM sync_state WHERE server = ?`, server).
		Scan(&st.Albums, &st.Songs, &st.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sync state: %w", err)
	}
	return &st, nil
}
