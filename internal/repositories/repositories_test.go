package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
	th "github.com/desertthunder/knuckles/internal/testing"
)

const testServer = "https://music.example.com"

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func mustCreateAlbum(t *testing.T, repo *AlbumRepository, item models.AlbumListItem) *models.PersistedAlbum {
	t.Helper()
	album := models.NewPersistedAlbum(0, testServer, item)
	if err := repo.Create(album); err != nil {
		t.Fatalf("failed to create album: %v", err)
	}
	return album
}

func TestNextSequence(t *testing.T) {
	t.Run("Increments", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		for want := 1; want <= 3; want++ {
			got, err := NextSequence(db, "albums")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != want {
				t.Errorf("expected %d, got %d", want, got)
			}
		}
	})

	t.Run("Unknown Table", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NextSequence(db, "albums; DROP TABLE albums"); err == nil {
			t.Error("expected an error for an unknown table")
		}
	})
}

func TestAlbumRepository(t *testing.T) {
	samples := th.SampleAlbums()

	t.Run("Create And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAlbumRepository(db)
		album := mustCreateAlbum(t, repo, samples[0].AlbumListItem)

		if album.ID() == "" || album.Sequence() != 1 {
			t.Fatalf("expected id and sequence to be set, got %q/%d", album.ID(), album.Sequence())
		}

		got, err := repo.Get(album.ID())
		if err != nil {
			t.Fatalf("failed to get album: %v", err)
		}
		if got.Album().Name != "First Light" || got.Album().Genre != "Rock" || got.Server() != testServer {
			t.Errorf("unexpected album %+v", got.Album())
		}

		byRemote, err := repo.GetByRemoteID(testServer, "al-1")
		if err != nil {
			t.Fatalf("failed to get album by remote id: %v", err)
		}
		if byRemote.ID() != album.ID() {
			t.Errorf("expected %s, got %s", album.ID(), byRemote.ID())
		}
	})

	t.Run("Create Validates", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		album := models.NewPersistedAlbum(0, testServer, models.AlbumListItem{ID: "x"})
		if err := NewAlbumRepository(db).Create(album); err == nil {
			t.Fatal("expected validation error for album without a name")
		}
	})

	t.Run("Duplicate Remote ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAlbumRepository(db)
		mustCreateAlbum(t, repo, samples[0].AlbumListItem)
		if err := repo.Create(models.NewPersistedAlbum(0, testServer, samples[0].AlbumListItem)); err == nil {
			t.Fatal("expected error when caching the same remote album twice")
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAlbumRepository(db)
		album := mustCreateAlbum(t, repo, samples[0].AlbumListItem)

		item := album.Album()
		item.Name = "First Light (Remastered)"
		album.SetAlbum(item)
		if err := repo.Update(album); err != nil {
			t.Fatalf("failed to update album: %v", err)
		}

		got, _ := repo.Get(album.ID())
		if got.Album().Name != "First Light (Remastered)" {
			t.Errorf("expected updated name, got %s", got.Album().Name)
		}
	})

	t.Run("Update Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		album := models.RestorePersistedAlbum("nope", 1, testServer, samples[0].AlbumListItem, time.Now(), time.Now(), nil)
		if err := NewAlbumRepository(db).Update(album); !errors.Is(err, shared.ErrAlbumNotFound) {
			t.Errorf("expected ErrAlbumNotFound, got %v", err)
		}
	})

	t.Run("Delete Hides Album And Songs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAlbumRepository(db)
		songs := NewSongRepository(db)
		album := mustCreateAlbum(t, repo, samples[0].AlbumListItem)
		if err := songs.Create(models.NewPersistedSong(0, testServer, album.ID(), samples[0].Songs[0])); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		if err := repo.Delete(album.ID()); err != nil {
			t.Fatalf("failed to delete album: %v", err)
		}
		if _, err := repo.Get(album.ID()); !errors.Is(err, shared.ErrAlbumNotFound) {
			t.Errorf("expected ErrAlbumNotFound, got %v", err)
		}
		if _, err := songs.GetByRemoteID(testServer, "so-1"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected song to be deleted with its album, got %v", err)
		}
		if err := repo.Delete(album.ID()); !errors.Is(err, shared.ErrAlbumNotFound) {
			t.Errorf("expected second delete to fail, got %v", err)
		}

		// the remote album can be cached again after a soft delete
		mustCreateAlbum(t, repo, samples[0].AlbumListItem)
	})

	t.Run("List And Count", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAlbumRepository(db)
		for _, a := range samples {
			mustCreateAlbum(t, repo, a.AlbumListItem)
		}
		other := models.NewPersistedAlbum(0, "https://other.example.com", samples[0].AlbumListItem)
		if err := repo.Create(other); err != nil {
			t.Fatalf("failed to create album on another server: %v", err)
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list albums: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 albums, got %d", len(all))
		}

		mine, _ := repo.List(map[string]any{"server": testServer})
		if len(mine) != 2 || mine[0].RemoteID() != "al-1" {
			t.Errorf("expected 2 albums in insertion order, got %d", len(mine))
		}

		byYear, _ := repo.List(map[string]any{"year": 2019})
		if len(byYear) != 1 || byYear[0].Album().Name != "Night Shift" {
			t.Errorf("expected Night Shift for 2019, got %d albums", len(byYear))
		}

		limited, _ := repo.List(map[string]any{"limit": 1})
		if len(limited) != 1 {
			t.Errorf("expected limit to apply, got %d", len(limited))
		}

		if n, _ := repo.Count(testServer); n != 2 {
			t.Errorf("expected count 2, got %d", n)
		}
		if n, _ := repo.Count(""); n != 3 {
			t.Errorf("expected count 3, got %d", n)
		}
	})
}

func TestSongRepository(t *testing.T) {
	samples := th.SampleAlbums()

	t.Run("Create And List By Album", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		album := mustCreateAlbum(t, NewAlbumRepository(db), samples[0].AlbumListItem)
		repo := NewSongRepository(db)

		// insert out of track order
		for _, s := range []models.Song{samples[0].Songs[1], samples[0].Songs[0]} {
			if err := repo.Create(models.NewPersistedSong(0, testServer, album.ID(), s)); err != nil {
				t.Fatalf("failed to create song: %v", err)
			}
		}

		songs, err := repo.ListByAlbum(album.ID())
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if len(songs) != 2 || songs[0].Song().Track != 1 || songs[1].Song().Track != 2 {
			t.Fatalf("expected songs in track order, got %d", len(songs))
		}
		if songs[0].Song().Suffix != "mp3" || songs[0].AlbumRef() != album.ID() {
			t.Errorf("unexpected song %+v", songs[0].Song())
		}
	})

	t.Run("Requires Album", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		song := models.NewPersistedSong(0, testServer, "no-such-album", samples[0].Songs[0])
		if err := NewSongRepository(db).Create(song); err == nil {
			t.Fatal("expected foreign key error for unknown album")
		}
	})

	t.Run("Update And Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		album := mustCreateAlbum(t, NewAlbumRepository(db), samples[0].AlbumListItem)
		repo := NewSongRepository(db)
		song := models.NewPersistedSong(0, testServer, album.ID(), samples[0].Songs[0])
		if err := repo.Create(song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		s := song.Song()
		s.BitRate = 320
		song.SetSong(s)
		if err := repo.Update(song); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}
		got, err := repo.Get(song.ID())
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if got.Song().BitRate != 320 {
			t.Errorf("expected bit rate 320, got %d", got.Song().BitRate)
		}

		if err := repo.Delete(song.ID()); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}
		if _, err := repo.Get(song.ID()); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})
}
