package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/knuckles/internal/formatter"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/urfave/cli/v3"
)

// Export writes an album's metadata and tracks to files in the requested format.
//
// With --cached the album is read from the library cache and no cover art is fetched.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var album *models.Album
	var imageURL string
	if cmd.Bool("cached") {
		cache, err := r.Cache()
		if err != nil {
			return err
		}
		if album, err = cache.CachedAlbum(r.serverKey(), id); err != nil {
			return err
		}
	} else {
		library, err := r.Library()
		if err != nil {
			return err
		}
		if album, err = library.Album(ctx, models.AlbumID(id)); err != nil {
			return err
		}
		if album.CoverArt != "" {
			imageURL = library.CoverArtURL(album.CoverArt, 0)
		}
	}

	r.logger.Info("exporting album", "album", album.Name, "format", format)

	files, err := formatter.WriteExport(ctx, album, format, cmd.String("output"), imageURL)
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %s (%d tracks)\n", album.Name, len(album.Songs))
	for _, f := range files {
		r.writePlain("  %s\n", f)
	}
	return nil
}
