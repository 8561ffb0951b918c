package models

import (
	"errors"
	"time"
)

var (
	_ Model = (*PersistedAlbum)(nil)
	_ Model = (*PersistedSong)(nil)
)

// PersistedAlbum is an album cached from a Subsonic server.
type PersistedAlbum struct {
	id        string
	sequence  int
	server    string
	album     AlbumListItem
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedAlbum creates a PersistedAlbum for album fetched from server.
func NewPersistedAlbum(sequence int, server string, album AlbumListItem) *PersistedAlbum {
	now := time.Now()
	return &PersistedAlbum{
		sequence:  sequence,
		server:    server,
		album:     album,
		createdAt: now,
		updatedAt: now,
	}
}

// RestorePersistedAlbum rebuilds a PersistedAlbum from stored columns.
func RestorePersistedAlbum(id string, sequence int, server string, album AlbumListItem, createdAt, updatedAt time.Time, deletedAt *time.Time) *PersistedAlbum {
	return &PersistedAlbum{
		id:        id,
		sequence:  sequence,
		server:    server,
		album:     album,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: deletedAt,
	}
}

func (a *PersistedAlbum) ID() string                { return a.id }
func (a *PersistedAlbum) SetID(id string)           { a.id = id }
func (a *PersistedAlbum) Sequence() int             { return a.sequence }
func (a *PersistedAlbum) SetSequence(seq int)       { a.sequence = seq }
func (a *PersistedAlbum) Server() string            { return a.server }
func (a *PersistedAlbum) RemoteID() string          { return a.album.ID }
func (a *PersistedAlbum) Album() AlbumListItem      { return a.album }
func (a *PersistedAlbum) SetAlbum(al AlbumListItem) { a.album = al }
func (a *PersistedAlbum) CreatedAt() time.Time      { return a.createdAt }
func (a *PersistedAlbum) UpdatedAt() time.Time      { return a.updatedAt }
func (a *PersistedAlbum) SetUpdatedAt(t time.Time)  { a.updatedAt = t }
func (a *PersistedAlbum) DeletedAt() *time.Time     { return a.deletedAt }

// Validate checks the album has the fields the cache keys on.
func (a *PersistedAlbum) Validate() error {
	if a.server == "" {
		return errors.New("server is required")
	}
	if a.album.ID == "" {
		return errors.New("album id is required")
	}
	if a.album.Name == "" {
		return errors.New("album name is required")
	}
	return nil
}

// PersistedSong is a song cached from a Subsonic server, linked to its cached album.
type PersistedSong struct {
	id        string
	sequence  int
	server    string
	albumRef  string
	song      Song
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPersistedSong creates a PersistedSong. albumRef is the cache ID of the owning album.
func NewPersistedSong(sequence int, server, albumRef string, song Song) *PersistedSong {
	now := time.Now()
	return &PersistedSong{
		sequence:  sequence,
		server:    server,
		albumRef:  albumRef,
		song:      song,
		createdAt: now,
		updatedAt: now,
	}
}

// RestorePersistedSong rebuilds a PersistedSong from stored columns.
func RestorePersistedSong(id string, sequence int, server, albumRef string, song Song, createdAt, updatedAt time.Time, deletedAt *time.Time) *PersistedSong {
	return &PersistedSong{
		id:        id,
		sequence:  sequence,
		server:    server,
		albumRef:  albumRef,
		song:      song,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: deletedAt,
	}
}

func (s *PersistedSong) ID() string               { return s.id }
func (s *PersistedSong) SetID(id string)          { s.id = id }
func (s *PersistedSong) Sequence() int            { return s.sequence }
func (s *PersistedSong) SetSequence(seq int)      { s.sequence = seq }
func (s *PersistedSong) Server() string           { return s.server }
func (s *PersistedSong) AlbumRef() string         { return s.albumRef }
func (s *PersistedSong) RemoteID() string         { return s.song.ID }
func (s *PersistedSong) Song() Song               { return s.song }
func (s *PersistedSong) SetSong(song Song)        { s.song = song }
func (s *PersistedSong) CreatedAt() time.Time     { return s.createdAt }
func (s *PersistedSong) UpdatedAt() time.Time     { return s.updatedAt }
func (s *PersistedSong) SetUpdatedAt(t time.Time) { s.updatedAt = t }
func (s *PersistedSong) DeletedAt() *time.Time    { return s.deletedAt }

// Validate checks the song has the fields the cache keys on.
func (s *PersistedSong) Validate() error {
	if s.server == "" {
		return errors.New("server is required")
	}
	if s.albumRef == "" {
		return errors.New("album reference is required")
	}
	if s.song.ID == "" {
		return errors.New("song id is required")
	}
	if s.song.Title == "" {
		return errors.New("song title is required")
	}
	return nil
}
