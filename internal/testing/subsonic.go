package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/knuckles/internal/models"
)

// Credentials accepted by [FakeSubsonic]. The hash is md5("sesame" + "abc1234").
const (
	FakeUser     = "tester"
	FakePassword = "sesame"
	FakeSalt     = "abc1234"
	FakeHash     = "e95e5f949d24710cc1dba63676982742"
)

// FakeSubsonic is an in-memory Subsonic server for tests.
//
// It serves ping, getAlbumList2, getAlbum, getSong, and stream from Albums and Audio.
// Requests whose token does not match [FakeHash]/[FakeSalt] fail with code 40.
type FakeSubsonic struct {
	*httptest.Server

	Albums []models.Album
	Audio  map[string][]byte // song id to audio bytes

	// ChunkSize splits stream bodies into flushed writes. 0 writes the body at once.
	ChunkSize int
	// Hold, when set, is waited on after the first chunk of a stream is written.
	Hold chan struct{}

	mu       sync.Mutex
	requests map[string]int
}

// NewFakeSubsonic starts a FakeSubsonic that is closed when the test ends.
func NewFakeSubsonic(t *testing.T, albums ...models.Album) *FakeSubsonic {
	t.Helper()
	f := &FakeSubsonic{
		Albums:   albums,
		Audio:    map[string][]byte{},
		requests: map[string]int{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Requests returns how many times endpoint was called.
func (f *FakeSubsonic) Requests(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[endpoint]
}

func (f *FakeSubsonic) serve(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimPrefix(r.URL.Path, "/rest/")
	f.mu.Lock()
	f.requests[endpoint]++
	f.mu.Unlock()

	q := r.URL.Query()
	if q.Get("u") != FakeUser || q.Get("t") != FakeHash || q.Get("s") != FakeSalt {
		writeFailed(w, 40, "Wrong username or password")
		return
	}

	switch endpoint {
	case "ping":
		writeOK(w, nil)
	case "getAlbumList2":
		f.albumList(w, q.Get("size"), q.Get("offset"))
	case "getAlbum":
		for _, a := range f.Albums {
			if a.ID == q.Get("id") {
				writeOK(w, map[string]any{"album": a})
				return
			}
		}
		writeFailed(w, 70, "Album not found")
	case "getSong":
		if s, ok := f.song(q.Get("id")); ok {
			writeOK(w, map[string]any{"song": s})
			return
		}
		writeFailed(w, 70, "Song not found")
	case "stream":
		f.stream(w, q.Get("id"))
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeSubsonic) albumList(w http.ResponseWriter, sizeParam, offsetParam string) {
	size, _ := strconv.Atoi(sizeParam)
	offset, _ := strconv.Atoi(offsetParam)
	if size <= 0 {
		size = 10
	}

	items := []models.AlbumListItem{}
	for i := offset; i < len(f.Albums) && i < offset+size; i++ {
		items = append(items, f.Albums[i].AlbumListItem)
	}
	writeOK(w, map[string]any{"albumList2": map[string]any{"album": items}})
}

func (f *FakeSubsonic) song(id string) (models.Song, bool) {
	for _, a := range f.Albums {
		for _, s := range a.Songs {
			if s.ID == id {
				return s, true
			}
		}
	}
	return models.Song{}, false
}

func (f *FakeSubsonic) stream(w http.ResponseWriter, id string) {
	data, ok := f.Audio[id]
	if !ok {
		writeFailed(w, 70, "Song not found")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	if f.ChunkSize <= 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
		return
	}

	flusher, _ := w.(http.Flusher)
	for i := 0; i < len(data); i += f.ChunkSize {
		end := min(i+f.ChunkSize, len(data))
		if _, err := w.Write(data[i:end]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		if i == 0 && f.Hold != nil {
			<-f.Hold
		}
	}
}

func writeOK(w http.ResponseWriter, body map[string]any) {
	resp := map[string]any{
		"status":        "ok",
		"version":       "1.16.1",
		"type":          "fake",
		"serverVersion": "0.0.1",
		"openSubsonic":  true,
	}
	for k, v := range body {
		resp[k] = v
	}
	writeEnvelope(w, resp)
}

func writeFailed(w http.ResponseWriter, code int, message string) {
	writeEnvelope(w, map[string]any{
		"status":  "failed",
		"version": "1.16.1",
		"error":   map[string]any{"code": code, "message": message},
	})
}

func writeEnvelope(w http.ResponseWriter, resp map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"subsonic-response": resp})
}

// SampleAlbums returns two albums with three songs between them.
func SampleAlbums() []models.Album {
	return []models.Album{
		{
			AlbumListItem: models.AlbumListItem{ID: "al-1", Name: "First Light", Artist: "The Knuckles", SongCount: 2, Duration: 420, Year: 2021, Genre: "Rock"},
			Songs: []models.Song{
				{ID: "so-1", Title: "Opening", Album: "First Light", AlbumID: "al-1", Artist: "The Knuckles", Track: 1, Duration: 200, Suffix: "mp3", ContentType: "audio/mpeg"},
				{ID: "so-2", Title: "Second Wind", Album: "First Light", AlbumID: "al-1", Artist: "The Knuckles", Track: 2, Duration: 220, Suffix: "mp3", ContentType: "audio/mpeg"},
			},
		},
		{
			AlbumListItem: models.AlbumListItem{ID: "al-2", Name: "Night Shift", Artist: "Quiet Hours", SongCount: 1, Duration: 180, Year: 2019},
			Songs: []models.Song{
				{ID: "so-3", Title: "Lamplight", Album: "Night Shift", AlbumID: "al-2", Artist: "Quiet Hours", Track: 1, Duration: 180, Suffix: "flac", ContentType: "audio/flac"},
			},
		},
	}
}
