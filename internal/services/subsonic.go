// Subsonic REST API client
//
// Every request carries token authentication (u, t, s) and asks for JSON (f=json).
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/desertthunder/knuckles/internal/stream"
)

const (
	// APIVersion is the Subsonic protocol version sent with each request.
	APIVersion = "1.16.1"
	// ClientName identifies this client to the server.
	ClientName = "knuckles"

	defaultAlbumListSize = 10
	maxAlbumListSize     = 500
)

var _ Library = (*SubsonicClient)(nil)

// ClientOptions tunes a [SubsonicClient]. The zero value is usable.
type ClientOptions struct {
	HTTPClient *http.Client
	Logger     *log.Logger
	Runtime    *stream.Runtime // Drives song streams; Stream fails without one
	RateLimit  float64         // Requests per second, 0 for unlimited
	Timeout    time.Duration   // Per API call; does not apply to streams
	ChunkSize  int             // Bytes per network pull when streaming
}

// SubsonicClient talks to a single Subsonic server as a single user.
type SubsonicClient struct {
	server     *url.URL
	username   models.Username
	token      models.TokenInfo
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	runtime    *stream.Runtime
	timeout    time.Duration
	chunkSize  int
}

// NewSubsonicClient creates a client for server authenticating as username with token.
func NewSubsonicClient(server models.ServerURL, username models.Username, token models.TokenInfo, opts ClientOptions) (*SubsonicClient, error) {
	u, err := url.Parse(strings.TrimSpace(server.String()))
	if err != nil {
		return nil, fmt.Errorf("%w: server url: %v", shared.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%w: server url must be http(s)://host, got %q", shared.ErrInvalidConfig, server)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", shared.ErrInvalidConfig)
	}
	if token.Hash == "" || token.Salt == "" {
		return nil, shared.ErrMissingCredentials
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	return &SubsonicClient{
		server:     u,
		username:   username,
		token:      token,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     opts.Logger,
		runtime:    opts.Runtime,
		timeout:    opts.Timeout,
		chunkSize:  opts.ChunkSize,
	}, nil
}

// NewClientFromConfig builds a client from the [client] and [stream] sections of cfg.
func NewClientFromConfig(cfg *shared.Config, rt *stream.Runtime, logger *log.Logger) (*SubsonicClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	token, err := CredentialsFromConfig(cfg.Client)
	if err != nil {
		return nil, err
	}
	return NewSubsonicClient(
		models.ServerURL(cfg.Client.URL),
		models.Username(cfg.Client.Username),
		token,
		ClientOptions{
			Logger:    logger,
			Runtime:   rt,
			RateLimit: cfg.Client.RateLimit,
			Timeout:   cfg.Client.RequestTimeout(),
			ChunkSize: cfg.Stream.ChunkSize,
		},
	)
}

// Server returns the server URL the client was created with.
func (c *SubsonicClient) Server() string {
	return c.server.String()
}

// baseURL builds <server>/rest/<endpoint> with the authentication parameters in a fixed order.
func (c *SubsonicClient) baseURL(endpoint string) *url.URL {
	u := *c.server
	u.Path = strings.TrimRight(u.Path, "/") + "/rest/" + endpoint
	u.RawPath = ""
	u.Fragment = ""

	pairs := [][2]string{
		{"f", "json"},
		{"u", c.username.String()},
		{"t", c.token.Hash.String()},
		{"s", c.token.Salt.String()},
		{"v", APIVersion},
		{"c", ClientName},
	}
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	u.RawQuery = b.String()
	return &u
}

// endpointURL is baseURL with extra query parameters appended in key order.
func (c *SubsonicClient) endpointURL(endpoint string, params url.Values) *url.URL {
	u := c.baseURL(endpoint)
	if extra := params.Encode(); extra != "" {
		u.RawQuery += "&" + extra
	}
	return u
}

// get performs a paced, logged GET of endpoint and decodes the response envelope.
func (c *SubsonicClient) get(ctx context.Context, endpoint string, params url.Values) (*subsonicResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.do(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp)
}

func (c *SubsonicClient) do(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(endpoint, params).String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("subsonic request failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	c.logger.Debug("subsonic request", "endpoint", endpoint, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode >= 500 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", shared.ErrAuthFailed, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return resp, nil
}

func decodeEnvelope(resp *http.Response) (*subsonicResponse, error) {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	if env.Response.Status == "" {
		return nil, missing("subsonic-response")
	}
	if err := env.Response.check(); err != nil {
		return nil, err
	}
	return &env.Response, nil
}

// Ping checks connectivity and credentials.
func (c *SubsonicClient) Ping(ctx context.Context) (*ServerInfo, error) {
	r, err := c.get(ctx, "ping", nil)
	if err != nil {
		return nil, err
	}
	return r.info(), nil
}

// AlbumListOptions selects a page of getAlbumList2.
type AlbumListOptions struct {
	Type          models.AlbumListType
	Size          int // 1-500, default 10
	Offset        int
	MusicFolderID string
}

func (o AlbumListOptions) params() (url.Values, error) {
	listType := o.Type
	if listType == "" {
		listType = models.AlbumListAlphabeticalByName
	}
	if _, err := models.ParseAlbumListType(string(listType)); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	size := o.Size
	switch {
	case size <= 0:
		size = defaultAlbumListSize
	case size > maxAlbumListSize:
		size = maxAlbumListSize
	}
	if o.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", shared.ErrInvalidArgument, o.Offset)
	}

	v := url.Values{}
	v.Set("type", string(listType))
	v.Set("size", strconv.Itoa(size))
	if o.Offset > 0 {
		v.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.MusicFolderID != "" {
		v.Set("musicFolderId", o.MusicFolderID)
	}
	return v, nil
}

// Albums returns one page of albums.
func (c *SubsonicClient) Albums(ctx context.Context, opts AlbumListOptions) ([]models.AlbumListItem, error) {
	params, err := opts.params()
	if err != nil {
		return nil, err
	}

	r, err := c.get(ctx, "getAlbumList2", params)
	if err != nil {
		return nil, err
	}
	if r.AlbumList2 == nil {
		return nil, missing("albumList2")
	}
	return r.AlbumList2.Album, nil
}

// Album returns an album with its songs.
func (c *SubsonicClient) Album(ctx context.Context, id models.AlbumID) (*models.Album, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}

	r, err := c.get(ctx, "getAlbum", url.Values{"id": {id.String()}})
	if IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrAlbumNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if r.Album == nil {
		return nil, missing("album")
	}
	return r.Album, nil
}

// Song returns a single song's metadata.
func (c *SubsonicClient) Song(ctx context.Context, id models.SongID) (*models.Song, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	r, err := c.get(ctx, "getSong", url.Values{"id": {id.String()}})
	if IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if r.Song == nil {
		return nil, missing("song")
	}
	return r.Song, nil
}

// StreamOptions are passed through to the stream endpoint.
type StreamOptions struct {
	Format     string // e.g. "mp3", or "raw" for no transcoding
	MaxBitRate int    // kbps, 0 for no limit
}

func (o StreamOptions) params(id models.SongID) url.Values {
	v := url.Values{"id": {id.String()}}
	if o.Format != "" {
		v.Set("format", o.Format)
	}
	if o.MaxBitRate > 0 {
		v.Set("maxBitRate", strconv.Itoa(o.MaxBitRate))
	}
	return v
}

// StreamURL returns the authenticated URL of a song's audio.
func (c *SubsonicClient) StreamURL(id models.SongID, opts StreamOptions) string {
	return c.endpointURL("stream", opts.params(id)).String()
}

// CoverArtURL returns the authenticated URL of a cover art image. A size of 0 asks for the original.
func (c *SubsonicClient) CoverArtURL(id string, size int) string {
	v := url.Values{"id": {id}}
	if size > 0 {
		v.Set("size", strconv.Itoa(size))
	}
	return c.endpointURL("getCoverArt", v).String()
}

// Stream opens a song for progressive, seekable reading.
//
// The request is sent on the client's runtime and the body is pulled through it lazily.
// Closing the returned stream releases the connection. The stream stops delivering
// data when ctx is cancelled or the runtime is closed.
func (c *SubsonicClient) Stream(ctx context.Context, id models.SongID, opts StreamOptions) (*stream.SongStream, error) {
	if c.runtime == nil {
		return nil, fmt.Errorf("%w: client has no stream runtime", shared.ErrInvalidConfig)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	scoped, cancel := c.runtime.Scope(ctx)

	var (
		resp   *http.Response
		reqErr error
	)
	err := c.runtime.BlockOn(ctx, func(context.Context) {
		resp, reqErr = c.do(scoped, "stream", opts.params(id))
	})
	if err == nil {
		err = reqErr
	}
	if err != nil {
		cancel()
		return nil, err
	}

	// Errors come back as a JSON envelope instead of audio.
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "application/json" || mt == "text/xml" {
		defer cancel()
		defer resp.Body.Close()
		if mt == "text/xml" {
			return nil, fmt.Errorf("%w: unexpected xml response", shared.ErrAPIRequest)
		}
		if _, err := decodeEnvelope(resp); err != nil {
			if IsNotFound(err) {
				return nil, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
			}
			return nil, err
		}
		return nil, fmt.Errorf("%w: server sent no audio", shared.ErrAPIRequest)
	}

	c.logger.Debug("streaming song", "id", id, "content_type", resp.Header.Get("Content-Type"), "length", resp.ContentLength)
	return stream.Open(ctx, c.runtime, &scopedBody{ReadCloser: resp.Body, cancel: cancel}, c.chunkSize), nil
}

// scopedBody cancels the request scope once the body is closed.
type scopedBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *scopedBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
