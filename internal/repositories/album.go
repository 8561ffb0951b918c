package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
)

var _ models.Repository[*models.PersistedAlbum] = (*AlbumRepository)(nil)

const albumColumns = `id, sequence, server, remote_id, name, artist, artist_id, cover_art,
	song_count, duration, year, genre, created, created_at, updated_at, deleted_at`

// AlbumRepository implements models.Repository[*models.PersistedAlbum] for the album cache.
//
// Albums are unique per (server, remote_id); soft-deleted rows are hidden from every query.
type AlbumRepository struct {
	db *sql.DB
}

// NewAlbumRepository creates a new AlbumRepository with the given database connection
func NewAlbumRepository(db *sql.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// Create inserts a new [models.PersistedAlbum] with a generated ID and sequence
func (r *AlbumRepository) Create(album *models.PersistedAlbum) error {
	if err := album.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "albums")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	album.SetID(shared.GenerateID())
	album.SetSequence(sequence)

	a := album.Album()
	_, err = r.db.Exec(`
		INSERT INTO albums (`+albumColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		album.ID(), sequence, album.Server(), a.ID, a.Name, a.Artist, a.ArtistID, a.CoverArt,
		a.SongCount, a.Duration, a.Year, a.Genre, a.Created, album.CreatedAt(), album.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert album: %w", err)
	}
	return nil
}

// Get retrieves an album by cache ID
func (r *AlbumRepository) Get(id string) (*models.PersistedAlbum, error) {
	row := r.db.QueryRow(`SELECT `+albumColumns+` FROM albums WHERE id = ? AND deleted_at IS NULL`, id)
	return scanAlbum(row)
}

// GetByRemoteID retrieves an album by the server it came from and its ID on that server
func (r *AlbumRepository) GetByRemoteID(server, remoteID string) (*models.PersistedAlbum, error) {
	row := r.db.QueryRow(`SELECT `+albumColumns+` FROM albums
		WHERE server = ? AND remote_id = ? AND deleted_at IS NULL`, server, remoteID)
	return scanAlbum(row)
}

// Update replaces the cached metadata of an album
func (r *AlbumRepository) Update(album *models.PersistedAlbum) error {
	if err := album.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	album.SetUpdatedAt(now)

	a := album.Album()
	result, err := r.db.Exec(`
		UPDATE albums
		SET name = ?, artist = ?, artist_id = ?, cover_art = ?, song_count = ?,
			duration = ?, year = ?, genre = ?, created = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		a.Name, a.Artist, a.ArtistID, a.CoverArt, a.SongCount,
		a.Duration, a.Year, a.Genre, a.Created, now,
		album.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update album: %w", err)
	}
	return rowsAffected(result, shared.ErrAlbumNotFound, album.ID())
}

// Delete soft-deletes an album and its songs
func (r *AlbumRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(`UPDATE albums SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete album: %w", err)
	}
	if err := rowsAffected(result, shared.ErrAlbumNotFound, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE songs SET deleted_at = ? WHERE album_ref = ? AND deleted_at IS NULL`, now, id); err != nil {
		return fmt.Errorf("failed to delete album songs: %w", err)
	}
	return tx.Commit()
}

// List retrieves albums matching criteria in insertion order.
//
// Supported criteria: "server" (string), "artist" (string, exact), "year" (int), "limit" (int).
func (r *AlbumRepository) List(criteria map[string]any) ([]*models.PersistedAlbum, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE deleted_at IS NULL`
	args := []any{}

	if server, ok := criteria["server"].(string); ok && server != "" {
		query += " AND server = ?"
		args = append(args, server)
	}
	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}
	if year, ok := criteria["year"].(int); ok && year > 0 {
		query += " AND year = ?"
		args = append(args, year)
	}

	query += " ORDER BY sequence ASC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	var albums []*models.PersistedAlbum
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return albums, nil
}

// Count returns the number of live albums cached for server. An empty server counts all.
func (r *AlbumRepository) Count(server string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM albums WHERE deleted_at IS NULL AND (? = '' OR server = ?)`, server, server).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count albums: %w", err)
	}
	return n, nil
}

func scanAlbum(s scanner) (*models.PersistedAlbum, error) {
	var (
		id, server, remoteID, name        string
		artist, artistID, coverArt, genre sql.NullString
		sequence, songCount, duration     int
		year                              sql.NullInt64
		created, deletedAt                sql.NullTime
		createdAt, updatedAt              time.Time
	)

	err := s.Scan(&id, &sequence, &server, &remoteID, &name, &artist, &artistID, &coverArt,
		&songCount, &duration, &year, &genre, &created, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrAlbumNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan album: %w", err)
	}

	dto := models.AlbumListItem{
		ID:        remoteID,
		Name:      name,
		Artist:    artist.String,
		ArtistID:  artistID.String,
		CoverArt:  coverArt.String,
		SongCount: songCount,
		Duration:  duration,
		Year:      int(year.Int64),
		Genre:     genre.String,
		Created:   nullTime(created),
	}
	return models.RestorePersistedAlbum(id, sequence, server, dto, createdAt, updatedAt, nullTime(deletedAt)), nil
}
