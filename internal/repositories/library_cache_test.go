package repositories

import (
	"testing"

	"github.com/desertthunder/knuckles/internal/models"
	th "github.com/desertthunder/knuckles/internal/testing"
)

func TestLibraryCacheAdapter(t *testing.T) {
	t.Run("CacheAlbum Inserts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewLibraryCacheAdapter(db)
		album := th.SampleAlbums()[0]

		n, err := cache.CacheAlbum(testServer, album)
		if err != nil {
			t.Fatalf("failed to cache album: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 songs written, got %d", n)
		}

		got, err := cache.CachedAlbum(testServer, "al-1")
		if err != nil {
			t.Fatalf("failed to read cached album: %v", err)
		}
		if got.Name != "First Light" || len(got.Songs) != 2 || got.Songs[0].Title != "Opening" {
			t.Errorf("unexpected cached album %+v", got)
		}
		if got.Songs[0].AlbumID != "al-1" {
			t.Errorf("expected songs to carry the remote album id, got %q", got.Songs[0].AlbumID)
		}
	})

	t.Run("CacheAlbum Is An Upsert", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewLibraryCacheAdapter(db)
		album := th.SampleAlbums()[0]
		if _, err := cache.CacheAlbum(testServer, album); err != nil {
			t.Fatalf("failed to cache album: %v", err)
		}

		album.Name = "First Light (Deluxe)"
		album.Songs = []models.Song{album.Songs[0]}
		album.Songs[0].Title = "Opening (Live)"
		if _, err := cache.CacheAlbum(testServer, album); err != nil {
			t.Fatalf("failed to re-cache album: %v", err)
		}

		if n, _ := cache.Albums().Count(testServer); n != 1 {
			t.Errorf("expected a single cached album, got %d", n)
		}

		got, err := cache.CachedAlbum(testServer, "al-1")
		if err != nil {
			t.Fatalf("failed to read cached album: %v", err)
		}
		if got.Name != "First Light (Deluxe)" {
			t.Errorf("expected refreshed name, got %s", got.Name)
		}
		if len(got.Songs) != 1 || got.Songs[0].Title != "Opening (Live)" {
			t.Errorf("expected dropped song to be removed and title refreshed, got %+v", got.Songs)
		}
	})

	t.Run("Song Moves Between Albums", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewLibraryCacheAdapter(db)
		albums := th.SampleAlbums()
		if _, err := cache.CacheAlbum(testServer, albums[0]); err != nil {
			t.Fatalf("failed to cache album: %v", err)
		}

		albums[1].Songs = append(albums[1].Songs, albums[0].Songs[1])
		if _, err := cache.CacheAlbum(testServer, albums[1]); err != nil {
			t.Fatalf("failed to cache second album: %v", err)
		}

		got, _ := cache.CachedAlbum(testServer, "al-2")
		if len(got.Songs) != 2 {
			t.Errorf("expected moved song on second album, got %d songs", len(got.Songs))
		}
	})

	t.Run("CachedAlbums", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewLibraryCacheAdapter(db)
		for _, a := range th.SampleAlbums() {
			if _, err := cache.CacheAlbum(testServer, a); err != nil {
				t.Fatalf("failed to cache album: %v", err)
			}
		}

		items, err := cache.CachedAlbums(testServer, 0)
		if err != nil {
			t.Fatalf("failed to list cached albums: %v", err)
		}
		if len(items) != 2 || items[1].Name != "Night Shift" {
			t.Errorf("unexpected cached albums %+v", items)
		}

		none, _ := cache.CachedAlbums("https://elsewhere.example.com", 0)
		if len(none) != 0 {
			t.Errorf("expected no albums for another server, got %d", len(none))
		}
	})

	t.Run("Sync State", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		cache := NewLibraryCacheAdapter(db)
		if st, err := cache.LastSync(testServer); err != nil || st != nil {
			t.Fatalf("expected no sync state, got %+v (%v)", st, err)
		}

		if err := cache.RecordSync(testServer, 2, 3); err != nil {
			t.Fatalf("failed to record sync: %v", err)
		}
		if err := cache.RecordSync(testServer, 4, 9); err != nil {
			t.Fatalf("failed to record second sync: %v", err)
		}

		st, err := cache.LastSync(testServer)
		if err != nil {
			t.Fatalf("failed to read sync state: %v", err)
		}
		if st.Albums != 4 || st.Songs != 9 || st.SyncedAt.IsZero() {
			t.Errorf("unexpected sync state %+v", st)
		}
	})
}
