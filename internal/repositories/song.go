package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
)

var _ models.Repository[*models.PersistedSong] = (*SongRepository)(nil)

const songColumns = `id, sequence, server, remote_id, album_ref, title, album, artist, track,
	disc_number, year, genre, cover_art, size, content_type, suffix, duration, bit_rate, path,
	created_at, updated_at, deleted_at`

// SongRepository implements models.Repository[*models.PersistedSong] for the song cache.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts a new [models.PersistedSong] with a generated ID and sequence
func (r *SongRepository) Create(song *models.PersistedSong) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	song.SetID(shared.GenerateID())
	song.SetSequence(sequence)

	s := song.Song()
	_, err = r.db.Exec(`
		INSERT INTO songs (`+songColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		song.ID(), sequence, song.Server(), s.ID, song.AlbumRef(), s.Title, s.Album, s.Artist, s.Track,
		s.DiscNumber, s.Year, s.Genre, s.CoverArt, s.Size, s.ContentType, s.Suffix, s.Duration, s.BitRate, s.Path,
		song.CreatedAt(), song.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

// Get retrieves a song by cache ID
func (r *SongRepository) Get(id string) (*models.PersistedSong, error) {
	row := r.db.QueryRow(`SELECT `+songColumns+` FROM songs WHERE id = ? AND deleted_at IS NULL`, id)
	return scanSong(row)
}

// GetByRemoteID retrieves a song by server and its ID on that server
func (r *SongRepository) GetByRemoteID(server, remoteID string) (*models.PersistedSong, error) {
	row := r.db.QueryRow(`SELECT `+songColumns+` FROM songs
		WHERE server = ? AND remote_id = ? AND deleted_at IS NULL`, server, remoteID)
	return scanSong(row)
}

// Update replaces the cached metadata of a song
func (r *SongRepository) Update(song *models.PersistedSong) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	song.SetUpdatedAt(now)

	s := song.Song()
	result, err := r.db.Exec(`
		UPDATE songs
		SET album_ref = ?, title = ?, album = ?, artist = ?, track = ?, disc_number = ?, year = ?,
			genre = ?, cover_art = ?, size = ?, content_type = ?, suffix = ?, duration = ?,
			bit_rate = ?, path = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		song.AlbumRef(), s.Title, s.Album, s.Artist, s.Track, s.DiscNumber, s.Year,
		s.Genre, s.CoverArt, s.Size, s.ContentType, s.Suffix, s.Duration,
		s.BitRate, s.Path, now,
		song.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}
	return rowsAffected(result, shared.ErrSongNotFound, song.ID())
}

// Delete soft-deletes a song by ID
func (r *SongRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE songs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return rowsAffected(result, shared.ErrSongNotFound, id)
}

// List retrieves songs matching criteria.
//
// Supported criteria: "server" (string), "album_ref" (string). Songs of one album come back
// in disc/track order; otherwise in insertion order.
func (r *SongRepository) List(criteria map[string]any) ([]*models.PersistedSong, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE deleted_at IS NULL`
	args := []any{}
	order := " ORDER BY sequence ASC"

	if server, ok := criteria["server"].(string); ok && server != "" {
		query += " AND server = ?"
		args = append(args, server)
	}
	if albumRef, ok := criteria["album_ref"].(string); ok && albumRef != "" {
		query += " AND album_ref = ?"
		args = append(args, albumRef)
		order = " ORDER BY disc_number ASC, track ASC, sequence ASC"
	}

	rows, err := r.db.Query(query+order, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.PersistedSong
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// ListByAlbum returns the songs of a cached album in disc/track order
func (r *SongRepository) ListByAlbum(albumRef string) ([]*models.PersistedSong, error) {
	return r.List(map[string]any{"album_ref": albumRef})
}

func scanSong(s scanner) (*models.PersistedSong, error) {
	var (
		id, server, remoteID, albumRef, title string
		album, artist, genre, coverArt        sql.NullString
		contentType, suffix, path             sql.NullString
		sequence, duration                    int
		size                                  int64
		track, discNumber, year, bitRate      sql.NullInt64
		createdAt, updatedAt                  time.Time
		deletedAt                             sql.NullTime
	)

	err := s.Scan(&id, &sequence, &server, &remoteID, &albumRef, &title, &album, &artist, &track,
		&discNumber, &year, &genre, &coverArt, &size, &contentType, &suffix, &duration, &bitRate, &path,
		&createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	dto := models.Song{
		ID:          remoteID,
		Title:       title,
		Album:       album.String,
		Artist:      artist.String,
		Track:       int(track.Int64),
		DiscNumber:  int(discNumber.Int64),
		Year:        int(year.Int64),
		Genre:       genre.String,
		CoverArt:    coverArt.String,
		Size:        size,
		ContentType: contentType.String,
		Suffix:      suffix.String,
		Duration:    duration,
		BitRate:     int(bitRate.Int64),
		Path:        path.String,
	}
	return models.RestorePersistedSong(id, sequence, server, albumRef, dto, createdAt, updatedAt, nullTime(deletedAt)), nil
}
