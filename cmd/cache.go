package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/desertthunder/knuckles/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CacheSync mirrors the server's albums and songs into the local cache.
func (r *Runner) CacheSync(ctx context.Context, cmd *cli.Command) error {
	listType, err := models.ParseAlbumListType(cmd.String("type"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	var cacher tasks.LibraryCacher
	if !cmd.Bool("dry-run") {
		cache, err := r.Cache()
		if err != nil {
			return err
		}
		cacher = cache
	}

	engine, err := r.Engine(cacher)
	if err != nil {
		return err
	}

	r.logger.Info("syncing library", "dry_run", cacher == nil)

	progress, wait := r.reportProgress()
	result, err := engine.Sync(ctx, progress, tasks.SyncOpts{
		Type:        listType,
		PageSize:    cmd.Int("page-size"),
		Concurrency: cmd.Int("concurrency"),
		Limit:       cmd.Int("limit"),
	})
	close(progress)
	wait()

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")
	r.writePlain("Server: %s\n", result.Server)
	r.writePlain("Albums: %d/%d\n", result.Albums, result.Listed)
	r.writePlain("Songs: %d\n", result.Songs)
	if len(result.Failed) > 0 {
		r.writePlain("\nFailed albums:\n")
		for _, f := range result.Failed {
			r.writePlain("  - %s - %s: %v\n", f.Album.Artist, f.Album.Name, f.Error)
		}
	}
	return nil
}

// CacheList lists cached albums for the configured server.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.Cache()
	if err != nil {
		return err
	}
	server := r.serverKey()

	albums, err := cache.CachedAlbums(server, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(albums, cmd.Bool("pretty"))
	}

	state, err := cache.LastSync(server)
	if err != nil {
		return err
	}
	if state == nil {
		r.writePlain("%s has not been synced; run 'knuckles cache sync'\n", server)
	} else {
		r.writePlain("Last sync: %s (%d albums, %d songs)\n\n",
			state.SyncedAt.Format("2006-01-02 15:04"), state.Albums, state.Songs)
	}
	r.writeAlbumList(albums)
	return nil
}

// CacheShow shows a cached album and its tracks.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}

	cache, err := r.Cache()
	if err != nil {
		return err
	}

	album, err := cache.CachedAlbum(r.serverKey(), id)
	if err != nil {
		return err
	}
	return r.writeAlbum(album, cmd)
}
