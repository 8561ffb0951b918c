package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/knuckles/internal/formatter"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/services"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/desertthunder/knuckles/internal/stream"
	"golang.org/x/time/rate"
)

// ManifestName is the file written next to downloaded songs when a manifest is requested.
const ManifestName = "download_manifest.json"

// DownloadOpts contains configuration for bulk song downloads.
type DownloadOpts struct {
	OutputDir  string                 // Output directory (default: knuckles_download_{epoch})
	NumWorkers int                    // Concurrent downloads (default: 2, max 8)
	RateLimit  float64                // Streams opened per second (default: 2)
	Stream     services.StreamOptions // Transcoding options passed to the stream endpoint
	Manifest   bool                   // Write a JSON manifest into OutputDir
}

// DownloadResult is the outcome of downloading one song.
type DownloadResult struct {
	SongID  string
	Title   string
	Path    string
	Bytes   int64
	Format  stream.Format
	Success bool
	Error   error
}

// BulkDownloadResult contains the totals of [LibraryEngine.Download].
type BulkDownloadResult struct {
	Total           int
	Succeeded       int
	Failed          int
	OutputDirectory string
	Results         []DownloadResult
	ManifestPath    string
}

// Download streams songs to files in opts.OutputDir using a pool of workers.
//
// Each song is opened as a [stream.SongStream], probed for its container format (which
// seeks back over buffered bytes) and copied to disk. Stream opens are paced by a rate
// limiter. Failed songs are recorded and do not stop the others.
func (e *LibraryEngine) Download(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	songs []models.Song,
	opts DownloadOpts,
) (*BulkDownloadResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: library not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("knuckles_download_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkDownloadResult{
		Total:           len(songs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]DownloadResult, 0, len(songs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan models.Song, len(songs))
	results := make(chan DownloadResult, len(songs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.downloadWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	e.sendProgress(prog, downloadStartUpdate(len(songs)))
	for _, song := range songs {
		jobs <- song
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Succeeded++
			e.sendProgress(prog, downloadedUpdate(completed, len(songs), res))
		} else {
			result.Failed++
			e.sendProgress(prog, downloadFailedUpdate(completed, len(songs), res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("download interrupted: %w", err)
	}

	if opts.Manifest {
		manifestPath := filepath.Join(opts.OutputDir, ManifestName)
		if err := formatter.WriteManifest(e.manifest(result), manifestPath); err != nil {
			return result, fmt.Errorf("download completed but failed to write manifest: %w", err)
		}
		result.ManifestPath = manifestPath
	}
	return result, nil
}

// downloadWorker downloads songs from the jobs channel until it is drained or ctx ends.
func (e *LibraryEngine) downloadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan models.Song,
	results chan<- DownloadResult,
	opts DownloadOpts,
) {
	defer wg.Done()

	for song := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- DownloadResult{SongID: song.ID, Title: song.Title, Error: err}
			continue
		}
		results <- e.downloadSong(ctx, song, opts)
	}
}

// downloadSong streams a single song into opts.OutputDir.
func (e *LibraryEngine) downloadSong(ctx context.Context, song models.Song, opts DownloadOpts) DownloadResult {
	res := DownloadResult{SongID: song.ID, Title: song.Title}

	s, err := e.library.Stream(ctx, models.SongID(song.ID), opts.Stream)
	if err != nil {
		res.Error = fmt.Errorf("failed to open stream: %w", err)
		return res
	}
	defer s.Close()

	probe, err := stream.Probe(s)
	if err != nil {
		res.Error = fmt.Errorf("failed to probe stream: %w", err)
		return res
	}
	res.Format = probe.Format

	res.Path = filepath.Join(opts.OutputDir, SongFileName(song, fileExtension(song, probe.Format, opts.Stream)))
	f, err := os.Create(res.Path)
	if err != nil {
		res.Error = fmt.Errorf("failed to create file: %w", err)
		return res
	}

	n, err := io.Copy(f, s)
	closeErr := f.Close()
	res.Bytes = n
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(res.Path)
		res.Error = fmt.Errorf("failed to write %s: %w", res.Path, err)
		return res
	}

	e.logger.Debug("song downloaded", "song", song.ID, "bytes", n, "format", probe.Format)
	res.Success = true
	return res
}

func (e *LibraryEngine) manifest(result *BulkDownloadResult) formatter.Manifest {
	m := formatter.Manifest{
		Server:          e.library.Server(),
		OutputDirectory: result.OutputDirectory,
		Total:           result.Total,
		Succeeded:       result.Succeeded,
		Failed:          result.Failed,
	}
	for _, r := range result.Results {
		if r.Success {
			m.Entries = append(m.Entries, formatter.SuccessEntry(r.SongID, r.Title, r.Path, string(r.Format), r.Bytes))
		} else {
			m.Entries = append(m.Entries, formatter.FailedEntry(r.SongID, r.Title, r.Error))
		}
	}
	return m
}

// SongFileName returns "<disc>-<track> <title>.<ext>", dropping the numbers that are unset.
func SongFileName(song models.Song, ext string) string {
	title := shared.SafeFileName(song.Title)
	switch {
	case song.Track > 0 && song.DiscNumber > 1:
		return fmt.Sprintf("%d-%02d %s.%s", song.DiscNumber, song.Track, title, ext)
	case song.Track > 0:
		return fmt.Sprintf("%02d %s.%s", song.Track, title, ext)
	default:
		return fmt.Sprintf("%s.%s", title, ext)
	}
}

// fileExtension prefers a requested transcode format, then the probed container, then the
// suffix the server reported.
func fileExtension(song models.Song, probed stream.Format, opts services.StreamOptions) string {
	if opts.Format != "" && opts.Format != "raw" {
		return opts.Format
	}
	switch probed {
	case stream.FormatUnknown, "":
	case stream.FormatMP4:
		return "m4a"
	default:
		return string(probed)
	}
	if song.Suffix != "" {
		return song.Suffix
	}
	return "bin"
}
