package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/media"
	"github.com/desertthunder/reelx/internal/preload"
	"github.com/desertthunder/reelx/internal/repositories"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	factory    media.Factory
	db         *sql.DB
	ownsDB     bool
	feed       *repositories.FeedItemRepository
	events     *repositories.PreloadEventRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Factory    media.Factory // Defaults to an [media.HTTPFactory] built from config
	DB         *sql.DB       // Defaults to the database named in config, opened on first use
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Media.RequestTimeout()}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		factory:    opts.Factory,
	}
	if opts.DB != nil {
		r.useDB(opts.DB, false)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, feedCommand, preloadCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config named by --config, falling back to defaults when the file does not exist.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	r.configPath = path

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.httpClient.Timeout = config.Media.RequestTimeout()
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if db := cmd.String("db"); db != "" {
		r.config.Database.Path = db
	}

	level := r.config.LogLevel
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	return ctx, nil
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close closes the database if the runner opened it.
func (r *Runner) Close() {
	if r.db != nil && r.ownsDB {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "err", err)
		}
	}
	r.db = nil
}

// openStore opens the configured database and runs pending migrations.
func (r *Runner) openStore() error {
	if r.db != nil {
		return nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	r.useDB(db, true)
	return nil
}

func (r *Runner) useDB(db *sql.DB, owned bool) {
	r.db = db
	r.ownsDB = owned
	r.feed = repositories.NewFeedItemRepository(db)
	r.events = repositories.NewPreloadEventRepository(db)
}

// session builds a manager and window from config. Settled preloads are recorded to preload_events.
func (r *Runner) session() (*preload.Manager, *preload.Window) {
	factory := r.factory
	if factory == nil {
		factory = media.NewHTTPFactory(r.config.Media, r.httpClient, shared.WithLogger(r.logger, "component", "media"))
	}

	opts := append(preload.FromConfig(r.config.Preload),
		preload.WithLogger(shared.WithLogger(r.logger, "component", "preload")),
	)
	if r.events != nil {
		opts = append(opts, preload.WithRecorder(repositories.NewEventRecorder(r.events)))
	}
	manager := preload.NewManager(factory, opts...)

	wopts := append(preload.WindowFromConfig(r.config.Preload),
		preload.WithWindowLogger(shared.WithLogger(r.logger, "component", "window")),
	)
	return manager, preload.NewWindow(manager, wopts...)
}

// loadItems reads the stored feed as window items, failing when it is empty.
func (r *Runner) loadItems() ([]preload.Item, error) {
	if err := r.openStore(); err != nil {
		return nil, err
	}

	feed, err := r.feed.Feed()
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	if len(feed) == 0 {
		return nil, fmt.Errorf("%w: add items with `reelx feed add` or `reelx feed import`", shared.ErrFeedEmpty)
	}
	return preload.ItemsFromFeed(feed), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
