package models

import "time"

// AlbumListItem is one entry of an album list response.
type AlbumListItem struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Artist    string     `json:"artist,omitempty" yaml:"artist,omitempty"`
	ArtistID  string     `json:"artistId,omitempty" yaml:"artist_id,omitempty"`
	CoverArt  string     `json:"coverArt,omitempty" yaml:"cover_art,omitempty"`
	SongCount int        `json:"songCount" yaml:"song_count"`
	Duration  int        `json:"duration,omitempty" yaml:"duration,omitempty"`
	Year      int        `json:"year,omitempty" yaml:"year,omitempty"`
	Genre     string     `json:"genre,omitempty" yaml:"genre,omitempty"`
	Created   *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
}

// Album is an album with its songs, as returned by getAlbum.
type Album struct {
	AlbumListItem `yaml:",inline"`
	Songs         []Song `json:"song,omitempty" yaml:"songs,omitempty"`
}

// Song is a single track.
type Song struct {
	ID          string `json:"id" yaml:"id"`
	Parent      string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Album       string `json:"album,omitempty" yaml:"album,omitempty"`
	AlbumID     string `json:"albumId,omitempty" yaml:"album_id,omitempty"`
	Artist      string `json:"artist,omitempty" yaml:"artist,omitempty"`
	ArtistID    string `json:"artistId,omitempty" yaml:"artist_id,omitempty"`
	Track       int    `json:"track,omitempty" yaml:"track,omitempty"`
	DiscNumber  int    `json:"discNumber,omitempty" yaml:"disc_number,omitempty"`
	Year        int    `json:"year,omitempty" yaml:"year,omitempty"`
	Genre       string `json:"genre,omitempty" yaml:"genre,omitempty"`
	CoverArt    string `json:"coverArt,omitempty" yaml:"cover_art,omitempty"`
	Size        int64  `json:"size,omitempty" yaml:"size,omitempty"`
	ContentType string `json:"contentType,omitempty" yaml:"content_type,omitempty"`
	Suffix      string `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Duration    int    `json:"duration,omitempty" yaml:"duration,omitempty"` // seconds
	BitRate     int    `json:"bitRate,omitempty" yaml:"bit_rate,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
}
