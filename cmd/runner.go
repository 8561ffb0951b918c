package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/knuckles/internal/repositories"
	"github.com/desertthunder/knuckles/internal/services"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/desertthunder/knuckles/internal/stream"
	"github.com/desertthunder/knuckles/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The Subsonic client, stream runtime and library cache are created on first use so that
// commands such as "setup config" work without a valid configuration.
type Runner struct {
	config     *shared.Config
	configPath string
	library    services.Library
	runtime    *stream.Runtime
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Library    services.Library
	Runtime    *stream.Runtime
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		library:    opts.Library,
		runtime:    opts.Runtime,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, pingCommand, albumsCommand, albumCommand, songCommand,
		streamCommand, cacheCommand, exportCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config (or the default path) and applies --verbose.
//
// A missing file is not an error here; commands that talk to the server fail later with a
// validation error instead.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" {
		p, err := shared.DefaultPath()
		if err != nil {
			r.logger.Debug("no default config path", "error", err)
			return ctx, nil
		}
		path = p
	}
	r.configPath = path

	config, err := shared.LoadConfig(path)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Debug("config file not found, using defaults", "path", path)
	case err != nil:
		return ctx, err
	default:
		r.config = config
		r.logger.Debug("loaded config", "path", path)
	}
	return ctx, nil
}

// Close releases the runtime and database opened by commands.
func (r *Runner) Close() error {
	var errs []error
	if r.runtime != nil {
		errs = append(errs, r.runtime.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}

// SetLogger replaces the runner's logger. A client that already exists keeps the old one.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Library returns the Subsonic client, creating it and its stream runtime from the config.
func (r *Runner) Library() (services.Library, error) {
	if r.library != nil {
		return r.library, nil
	}
	if r.runtime == nil {
		r.runtime = stream.NewRuntime(r.config.Stream.Workers)
	}

	client, err := services.NewClientFromConfig(r.config, r.runtime, r.logger)
	if err != nil {
		return nil, err
	}
	r.library = client
	return client, nil
}

// Cache returns the library cache, opening the database and running migrations on first use.
func (r *Runner) Cache() (*repositories.LibraryCacheAdapter, error) {
	if r.db == nil {
		db, err := shared.OpenLibrary(r.config.Database)
		if err != nil {
			return nil, err
		}
		r.db = db
	}
	return repositories.NewLibraryCacheAdapter(r.db), nil
}

// serverKey is the server URL cached rows are keyed by. It matches [services.Library.Server]
// without needing credentials.
func (r *Runner) serverKey() string {
	if r.library != nil {
		return r.library.Server()
	}
	u, err := url.Parse(strings.TrimSpace(r.config.Client.URL))
	if err != nil {
		return r.config.Client.URL
	}
	return u.String()
}

// Engine returns a [tasks.LibraryEngine] over the library. cache may be nil.
func (r *Runner) Engine(cache tasks.LibraryCacher) (*tasks.LibraryEngine, error) {
	library, err := r.Library()
	if err != nil {
		return nil, err
	}
	return tasks.NewLibraryEngine(library, cache, r.logger), nil
}

// streamOptions returns the transcoding options from the [stream] config, overridden by flags.
func (r *Runner) streamOptions(cmd *cli.Command) services.StreamOptions {
	opts := services.StreamOptions{
		Format:     r.config.Stream.Format,
		MaxBitRate: r.config.Stream.MaxBitRate,
	}
	if f := cmd.String("format"); f != "" {
		opts.Format = f
	}
	if b := cmd.Int("max-bit-rate"); b > 0 {
		opts.MaxBitRate = b
	}
	return opts
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
