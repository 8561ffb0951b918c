package models

import "fmt"

// ServerURL is the base URL of a Subsonic server, e.g. https://music.example.com
type ServerURL string

// Username is a Subsonic account name.
type Username string

// Password is a clear text Subsonic password. It never prints.
type Password string

// PasswordHash is the lowercase hex md5 of password+salt sent as the "t" parameter.
type PasswordHash string

// Salt is the random string sent as the "s" parameter.
type Salt string

// AlbumID identifies an album on the server.
type AlbumID string

// SongID identifies a song on the server.
type SongID string

func (u ServerURL) String() string    { return string(u) }
func (u Username) String() string     { return string(u) }
func (p Password) String() string     { return "********" }
func (h PasswordHash) String() string { return string(h) }
func (s Salt) String() string         { return string(s) }
func (id AlbumID) String() string     { return string(id) }
func (id SongID) String() string      { return string(id) }

// TokenInfo is the token authentication pair for a request.
type TokenInfo struct {
	Hash PasswordHash `toml:"hash"`
	Salt Salt         `toml:"salt"`
}

// AlbumListType selects the ordering of getAlbumList2.
type AlbumListType string

const (
	AlbumListRandom               AlbumListType = "random"
	AlbumListNewest               AlbumListType = "newest"
	AlbumListHighest              AlbumListType = "highest"
	AlbumListFrequent             AlbumListType = "frequent"
	AlbumListRecent               AlbumListType = "recent"
	AlbumListAlphabeticalByName   AlbumListType = "alphabeticalByName"
	AlbumListAlphabeticalByArtist AlbumListType = "alphabeticalByArtist"
	AlbumListStarred              AlbumListType = "starred"
)

var albumListTypes = []AlbumListType{
	AlbumListRandom,
	AlbumListNewest,
	AlbumListHighest,
	AlbumListFrequent,
	AlbumListRecent,
	AlbumListAlphabeticalByName,
	AlbumListAlphabeticalByArtist,
	AlbumListStarred,
}

// AlbumListTypes returns every supported list type.
func AlbumListTypes() []AlbumListType {
	out := make([]AlbumListType, len(albumListTypes))
	copy(out, albumListTypes)
	return out
}

// ParseAlbumListType validates s as an [AlbumListType].
func ParseAlbumListType(s string) (AlbumListType, error) {
	for _, t := range albumListTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown album list type %q", s)
}
