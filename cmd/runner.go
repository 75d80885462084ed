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
	"github.com/desertthunder/mpdx/internal/loop"
	"github.com/desertthunder/mpdx/internal/services"
	"github.com/desertthunder/mpdx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
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
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, apiCommand, routeCommand, playerCommand, watchCommand, tuiCommand,
		notificationsCommand, mockCommand, openCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by every command.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// LoadConfig reads the file named by --config, or the runner's config path when the flag is
// not given. A missing file keeps the defaults.
func (r *Runner) LoadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") {
		r.configPath = cmd.String("config")
	}
	if r.configPath == "" {
		return ctx, nil
	}

	config, err := shared.LoadOrDefault(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config
	shared.SetLogLevel(r.logger, config.Log.ParsedLevel())
	return ctx, nil
}

// dispatcher builds the JSON-RPC client from the server and api config sections.
func (r *Runner) dispatcher(scheduler loop.Scheduler, notifier services.Notifier) *services.Dispatcher {
	session := services.NewSession()
	client := &http.Client{
		Transport: session.RoundTripper(r.httpClient.Transport),
		Timeout:   r.config.API.Timeout(),
	}
	transport := services.NewTransport(
		r.config.Server.URL, client, services.NewLimiter(r.config.API.RateLimit, r.config.API.Burst),
	)

	return services.NewDispatcher(services.DispatcherOpts{
		Transport: transport,
		Session:   session,
		Scheduler: scheduler,
		Notifier:  notifier,
		Logger:    r.logger,
		Path:      r.config.API.Path,
		Partition: r.config.Server.Partition,
		Timeout:   r.config.API.Timeout(),
	})
}

// login opens a session when a pin is configured or given.
func (r *Runner) login(ctx context.Context, d *services.Dispatcher, pin string) error {
	if pin == "" {
		pin = r.config.Server.PIN
	}
	if pin == "" {
		return nil
	}
	if err := d.Session().Login(ctx, pin); err != nil {
		return err
	}
	r.logger.Debug("session opened")
	return nil
}

// database opens the configured sqlite database with pending migrations applied.
func (r *Runner) database() (*sql.DB, error) {
	db, err := shared.OpenConfigured(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// writeJSON prints data as one JSON document followed by a newline.
func (r *Runner) writeJSON(data any, pretty bool) error {
	marshal := json.Marshal
	if pretty {
		marshal = func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
	}

	output, err := marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

const rule = "═══════════════════════════════════════"

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n%s\n%s\n", rule, title, rule)
}
