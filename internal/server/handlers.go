package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/services"
	"github.com/desertthunder/knuckles/internal/shared"
)

// HealthHandler answers liveness checks and reports whether the upstream server answers a ping.
type HealthHandler struct {
	library services.Library
}

// NewHealthHandler creates a HealthHandler for library.
func NewHealthHandler(library services.Library) *HealthHandler {
	return &HealthHandler{library: library}
}

// Routes returns the HTTP routes this handler serves.
func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	info, err := h.library.Ping(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "upstream": info})
}

// LibraryHandler serves album and song metadata and relays song audio.
type LibraryHandler struct {
	library services.Library
	stream  services.StreamOptions
	logger  *log.Logger
}

// NewLibraryHandler creates a LibraryHandler. opts are passed to every stream request.
func NewLibraryHandler(library services.Library, opts services.StreamOptions, logger *log.Logger) *LibraryHandler {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &LibraryHandler{library: library, stream: opts, logger: logger}
}

// Register adds the library routes to r.
func (h *LibraryHandler) Register(r Router) {
	r.Handle(http.MethodGet, "/albums", http.HandlerFunc(h.albums))
	r.Handle(http.MethodGet, "/albums/{id}", http.HandlerFunc(h.album))
	r.Handle(http.MethodGet, "/songs/{id}", http.HandlerFunc(h.song))
	r.Handle(http.MethodGet, "/songs/{id}/stream", http.HandlerFunc(h.streamSong))
}

// albums serves one page of the album list. Query: type, size, offset.
func (h *LibraryHandler) albums(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := services.AlbumListOptions{Type: models.AlbumListType(q.Get("type"))}

	var err error
	if opts.Size, err = intParam(q.Get("size")); err != nil {
		writeError(w, err)
		return
	}
	if opts.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, err)
		return
	}

	items, err := h.library.Albums(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.AlbumListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *LibraryHandler) album(w http.ResponseWriter, r *http.Request) {
	album, err := h.library.Album(r.Context(), models.AlbumID(r.PathValue("id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *LibraryHandler) song(w http.ResponseWriter, r *http.Request) {
	song, err := h.library.Song(r.Context(), models.SongID(r.PathValue("id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// streamSong relays a song's audio through a SongStream.
//
// A single byte range is served by seeking the stream to its start and copying at most
// its length. The body size comes from song metadata and is unknown when transcoding.
func (h *LibraryHandler) streamSong(w http.ResponseWriter, r *http.Request) {
	id := models.SongID(r.PathValue("id"))

	song, err := h.library.Song(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	size := song.Size
	contentType := song.ContentType
	if h.stream.Format != "" && h.stream.Format != "raw" {
		size = 0
		contentType = ""
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rng, err := parseRange(r.Header.Get("Range"), size)
	if err != nil {
		if size > 0 {
			w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(size, 10))
		}
		http.Error(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	status := http.StatusOK
	length := size
	if rng != nil {
		status = http.StatusPartialContent
		length = rng.length()
		w.Header().Set("Content-Range", rng.contentRange(size))
	}
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}

	s, err := h.library.Stream(r.Context(), id, h.stream)
	if err != nil {
		w.Header().Del("Content-Range")
		w.Header().Del("Content-Length")
		writeError(w, err)
		return
	}
	defer s.Close()

	if rng == nil {
		w.WriteHeader(status)
		if _, err := io.Copy(w, s); err != nil {
			h.logger.Warn("stream relay ended early", "song", id, "error", err)
		}
		return
	}

	// seeking never pulls; the copy below fetches up to the range start first
	if _, err := s.Seek(rng.start, io.SeekStart); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(status)
	if _, err := io.CopyN(w, s, length); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("range relay ended early", "song", id, "start", rng.start, "error", err)
	}
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Join(shared.ErrInvalidArgument, err)
	}
	return n, nil
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError maps err onto a status code and writes it as {"error": "..."}.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrAlbumNotFound), errors.Is(err, shared.ErrSongNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrServiceUnavailable), errors.Is(err, shared.ErrAPIRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
