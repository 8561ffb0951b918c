package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/knuckles/internal/shared"
)

// ManifestEntry is one downloaded (or failed) song in a [Manifest].
type ManifestEntry struct {
	SongID string `json:"song_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Bytes  int64  `json:"bytes,omitempty"`
	Format string `json:"format,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Manifest summarises a bulk download.
type Manifest struct {
	CreatedAt       time.Time       `json:"created_at"`
	Server          string          `json:"server,omitempty"`
	OutputDirectory string          `json:"output_directory"`
	Total           int             `json:"total"`
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	Entries         []ManifestEntry `json:"entries"`
}

// SuccessEntry builds a manifest entry for a finished download.
func SuccessEntry(songID, title, path, format string, n int64) ManifestEntry {
	return ManifestEntry{SongID: songID, Title: title, Status: "success", Path: path, Bytes: n, Format: format}
}

// FailedEntry builds a manifest entry for a failed download.
func FailedEntry(songID, title string, err error) ManifestEntry {
	e := ManifestEntry{SongID: songID, Title: title, Status: "failed"}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WriteManifest writes m as indented JSON to path, stamping CreatedAt when unset.
func WriteManifest(m Manifest, path string) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.Entries == nil {
		m.Entries = []ManifestEntry{}
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
