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
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tapedeck/internal/audio"
	"github.com/desertthunder/tapedeck/internal/player"
	"github.com/desertthunder/tapedeck/internal/repositories"
	"github.com/desertthunder/tapedeck/internal/services"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/desertthunder/tapedeck/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      *repositories.Store
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      *repositories.Store // opened lazily from Config.Database when nil
	HTTPClient *http.Client
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, libraryCommand, playlistCommand, folderCommand, cloudCommand,
		offlineCommand, presetCommand, playCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// loadConfig replaces the defaults with the file at path when it exists.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if path == "" {
		return ctx, nil
	}
	r.configPath = path

	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return ctx, nil
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	return ctx, nil
}

// openStore opens the configured database, applying pending migrations, unless a store was injected.
func (r *Runner) openStore() (*repositories.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.store = repositories.NewStore(db)
	return r.store, nil
}

// Close releases the database opened by [Runner.openStore].
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.store = nil
	return err
}

// cloudService returns an authenticated cloud client, or nil when no token is configured.
func (r *Runner) cloudService(ctx context.Context) *services.CloudDriveService {
	cfg := r.config.Cloud
	access, refresh := cfg.AccessToken(), cfg.RefreshToken()
	if access == "" && refresh == "" {
		r.logger.Debug("no cloud token configured", "token_env", cfg.TokenEnv)
		return nil
	}

	svc := services.NewCloudDriveService(cfg, r.httpClient)
	if err := svc.Authenticate(ctx, access, refresh); err != nil {
		r.logger.Warn("cloud authentication failed", "error", err)
		return nil
	}
	return svc
}

// resolver wires the blob store, cloud and remote fetchers into a source resolver.
func (r *Runner) resolver(ctx context.Context, store *repositories.Store) *services.Resolver {
	var cloud services.Fetcher
	if svc := r.cloudService(ctx); svc != nil {
		cloud = svc
	}
	remote := services.NewRemoteService(r.httpClient)
	return services.NewResolver(store, cloud, remote, shared.WithLogger(r.logger, "component", "resolver"))
}

// offlineManager builds an [tasks.OfflineManager] over the store.
func (r *Runner) offlineManager(ctx context.Context, store *repositories.Store) *tasks.OfflineManager {
	return tasks.NewOfflineManager(r.resolver(ctx, store), store, store, shared.WithLogger(r.logger, "component", "offline"))
}

// engine builds a playback engine on sink with the configured playback settings.
func (r *Runner) engine(ctx context.Context, sink audio.Sink) (*player.Engine, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}

	return player.NewFromConfig(r.config.Playback, player.Options{
		Sink:     sink,
		Resolver: r.resolver(ctx, store),
		Store:    store,
		Logger:   shared.WithLogger(r.logger, "component", "engine"),
	})
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
