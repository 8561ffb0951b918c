package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/desertthunder/knuckles/internal/stream"
	"github.com/desertthunder/knuckles/internal/tasks"
	"github.com/urfave/cli/v3"
)

// StreamDownload saves songs to disk, either the songs named as arguments or every song of --album.
func (r *Runner) StreamDownload(ctx context.Context, cmd *cli.Command) error {
	albumID := cmd.String("album")
	ids := cmd.Args().Slice()
	if albumID == "" && len(ids) == 0 {
		return fmt.Errorf("%w: pass song IDs or --album", shared.ErrMissingArgument)
	}

	library, err := r.Library()
	if err != nil {
		return err
	}
	engine, err := r.Engine(nil)
	if err != nil {
		return err
	}

	var songs []models.Song
	if albumID != "" {
		album, err := library.Album(ctx, models.AlbumID(albumID))
		if err != nil {
			return err
		}
		r.logger.Info("downloading album", "album", album.Name, "songs", len(album.Songs))
		songs = append(songs, album.Songs...)
	}
	for _, id := range ids {
		song, err := library.Song(ctx, models.SongID(id))
		if err != nil {
			return err
		}
		songs = append(songs, *song)
	}

	opts := tasks.DownloadOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Stream:     r.streamOptions(cmd),
		Manifest:   cmd.Bool("manifest"),
	}

	progress, wait := r.reportProgress()
	result, err := engine.Download(ctx, progress, songs, opts)
	close(progress)
	wait()

	if result != nil {
		r.writePlain("\n")
		r.writePlainHeader("Download Complete")
		r.writePlain("Output: %s\n", result.OutputDirectory)
		r.writePlain("Songs: %d/%d\n", result.Succeeded, result.Total)
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
		if result.Failed > 0 {
			r.writePlain("\nFailed:\n")
			for _, res := range result.Results {
				if !res.Success {
					r.writePlain("  - %s: %v\n", res.Title, res.Error)
				}
			}
		}
	}
	return err
}

// StreamProbe opens a song and sniffs its container format, reporting how much was fetched.
func (r *Runner) StreamProbe(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	library, err := r.Library()
	if err != nil {
		return err
	}

	s, err := library.Stream(ctx, models.SongID(id), r.streamOptions(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := stream.Probe(s)
	if err != nil {
		return err
	}
	r.logger.Debug("probed song", "id", id, "format", res.Format, "loaded", s.Loaded())

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"id":          id,
			"format":      res.Format,
			"tag_size":    res.TagSize,
			"data_offset": res.DataOffset,
			"loaded":      s.Loaded(),
		}, cmd.Bool("pretty"))
	}

	r.writePlain("Format: %s\n", res.Format)
	if res.TagSize > 0 {
		r.writePlain("ID3 tag: %s\n", shared.FormatBytes(res.TagSize))
	}
	r.writePlain("Audio starts at byte %d\n", res.DataOffset)
	r.writePlain("Fetched: %s\n", shared.FormatBytes(s.Loaded()))
	return nil
}

// reportProgress prints updates sent on the returned channel. Close the channel, then call
// wait before writing anything else.
func (r *Runner) reportProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.FetchAlbumList, tasks.RecordSync:
				r.writePlain("📥 %s\n", update.Message)
			default:
				if update.Total > 0 {
					r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			}
		}
	}()

	return progress, func() { <-done }
}
