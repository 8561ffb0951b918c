package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/services"
	"github.com/desertthunder/knuckles/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageSize    = 100
	maxPageSize        = 500
	defaultConcurrency = 4
	maxConcurrency     = 16
)

// LibraryCacher persists fetched albums. Implemented by repositories.LibraryCacheAdapter.
type LibraryCacher interface {
	// CacheAlbum stores album and its songs for server, returning how many songs were written.
	CacheAlbum(server string, album models.Album) (int, error)

	// RecordSync stores the totals of a finished sync.
	RecordSync(server string, albums, songs int) error
}

// LibraryEngine runs long library operations against a Subsonic server.
type LibraryEngine struct {
	library services.Library
	cache   LibraryCacher
	logger  *log.Logger
}

// NewLibraryEngine creates a LibraryEngine. cache may be nil, in which case Sync only
// walks the library and counts it.
func NewLibraryEngine(library services.Library, cache LibraryCacher, logger *log.Logger) *LibraryEngine {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &LibraryEngine{
		library: library,
		cache:   cache,
		logger:  logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// SyncOpts configures [LibraryEngine.Sync].
type SyncOpts struct {
	Type        models.AlbumListType // album list ordering (default alphabeticalByName)
	PageSize    int                  // albums per getAlbumList2 call (default 100, max 500)
	Concurrency int                  // albums fetched at once (default 4, max 16)
	Limit       int                  // stop after this many albums, 0 for the whole library
}

func (o *SyncOpts) normalize() {
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	o.PageSize = min(o.PageSize, maxPageSize)
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	o.Concurrency = min(o.Concurrency, maxConcurrency)
	if o.Limit < 0 {
		o.Limit = 0
	}
}

// AlbumFailure is an album that could not be fetched or cached.
type AlbumFailure struct {
	Album models.AlbumListItem
	Error error
}

// SyncResult contains the totals of a library sync.
type SyncResult struct {
	Server string
	Listed int            // albums returned by the album list
	Albums int            // albums fetched (and cached, with a cache)
	Songs  int            // songs across those albums
	Failed []AlbumFailure // albums that failed; the sync carries on past them
}

// Sync pages through the album list, fetches every album with bounded concurrency and
// caches it. A failed album is recorded in the result and does not stop the sync; a
// cancelled context does.
func (e *LibraryEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, opts SyncOpts) (*SyncResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library not initialized", shared.ErrServiceUnavailable)
	}
	opts.normalize()

	server := e.library.Server()
	items, err := e.listAlbums(ctx, progress, opts)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Server: server, Listed: len(items)}
	total := len(items)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, item := range items {
		g.Go(func() error {
			album, err := e.library.Album(gctx, models.AlbumID(item.ID))

			mu.Lock()
			defer mu.Unlock()

			songs := 0
			if err == nil {
				songs = len(album.Songs)
				if e.cache != nil {
					songs, err = e.cache.CacheAlbum(server, *album)
				}
			}

			done++
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("album sync failed", "album", item.ID, "error", err)
				result.Failed = append(result.Failed, AlbumFailure{Album: item, Error: err})
				e.sendProgress(progress, albumFailedUpdate(done, total, item, err))
				return nil
			}

			result.Albums++
			result.Songs += songs
			e.sendProgress(progress, cachedAlbumUpdate(done, total, album, songs))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, fmt.Errorf("sync interrupted: %w", err)
	}

	if e.cache != nil {
		if err := e.cache.RecordSync(server, result.Albums, result.Songs); err != nil {
			return result, err
		}
	}

	e.logger.Info("library synced", "albums", result.Albums, "songs", result.Songs, "failed", len(result.Failed))
	e.sendProgress(progress, recordSyncUpdate(result.Albums, result.Songs))
	return result, nil
}

// listAlbums walks getAlbumList2 until a short page or the limit.
func (e *LibraryEngine) listAlbums(ctx context.Context, progress chan<- ProgressUpdate, opts SyncOpts) ([]models.AlbumListItem, error) {
	var items []models.AlbumListItem

	for page := 1; ; page++ {
		size := opts.PageSize
		if opts.Limit > 0 {
			size = min(size, opts.Limit-len(items))
		}

		batch, err := e.library.Albums(ctx, services.AlbumListOptions{
			Type:   opts.Type,
			Size:   size,
			Offset: len(items),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list albums: %w", err)
		}

		items = append(items, batch...)
		e.sendProgress(progress, albumPageUpdate(page, len(items)))

		if len(batch) < size || (opts.Limit > 0 && len(items) >= opts.Limit) {
			return items, nil
		}
	}
}
