package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/knuckles/internal/formatter"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/services"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/urfave/cli/v3"
)

// Ping checks that the server answers and accepts the configured credentials.
func (r *Runner) Ping(ctx context.Context, cmd *cli.Command) error {
	library, err := r.Library()
	if err != nil {
		return err
	}

	r.logger.Info("pinging server", "url", library.Server())
	info, err := library.Ping(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}

	r.writePlain("✓ %s answered: %s (API %s)\n", library.Server(), info.Status, info.Version)
	if info.Type != "" {
		r.writePlain("Server: %s %s\n", info.Type, info.ServerVersion)
	}
	if info.OpenSubsonic {
		r.writePlain("OpenSubsonic extensions supported\n")
	}
	return nil
}

// Albums lists one page of albums.
func (r *Runner) Albums(ctx context.Context, cmd *cli.Command) error {
	listType, err := models.ParseAlbumListType(cmd.String("type"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	library, err := r.Library()
	if err != nil {
		return err
	}

	opts := services.AlbumListOptions{
		Type:          listType,
		Size:          cmd.Int("size"),
		Offset:        cmd.Int("offset"),
		MusicFolderID: cmd.String("folder"),
	}
	r.logger.Debug("listing albums", "type", opts.Type, "size", opts.Size, "offset", opts.Offset)

	albums, err := library.Albums(ctx, opts)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(albums, cmd.Bool("pretty"))
	}
	r.writeAlbumList(albums)
	return nil
}

// Album shows an album and its tracks.
func (r *Runner) Album(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}

	library, err := r.Library()
	if err != nil {
		return err
	}

	album, err := library.Album(ctx, models.AlbumID(id))
	if err != nil {
		return err
	}
	return r.writeAlbum(album, cmd)
}

// Song shows a single song.
func (r *Runner) Song(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	library, err := r.Library()
	if err != nil {
		return err
	}

	song, err := library.Song(ctx, models.SongID(id))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}

	r.writePlainHeader(song.Title)
	r.writePlain("ID: %s\n", song.ID)
	if song.Artist != "" {
		r.writePlain("Artist: %s\n", song.Artist)
	}
	if song.Album != "" {
		r.writePlain("Album: %s\n", song.Album)
	}
	if song.Track > 0 {
		r.writePlain("Track: %d\n", song.Track)
	}
	r.writePlain("Duration: %s\n", shared.FormatDuration(song.Duration))
	if song.Suffix != "" {
		r.writePlain("Format: %s", song.Suffix)
		if song.BitRate > 0 {
			r.writePlain(" (%d kbps)", song.BitRate)
		}
		r.writePlain("\n")
	}
	if song.Size > 0 {
		r.writePlain("Size: %s\n", shared.FormatBytes(song.Size))
	}
	return nil
}

func (r *Runner) writeAlbumList(albums []models.AlbumListItem) {
	if len(albums) == 0 {
		r.writePlain("No albums found\n")
		return
	}
	for _, a := range albums {
		r.writePlain("%s  %s - %s", a.ID, a.Artist, a.Name)
		if a.Year > 0 {
			r.writePlain(" (%d)", a.Year)
		}
		r.writePlain(" [%d songs]\n", a.SongCount)
	}
}

func (r *Runner) writeAlbum(album *models.Album, cmd *cli.Command) error {
	if cmd.Bool("json") {
		return r.writeJSON(album, cmd.Bool("pretty"))
	}

	text, err := formatter.ExportToText(album)
	if err != nil {
		return err
	}
	return r.writePlain("%s", text)
}
