// Package bootstrap wires all dependencies and starts the application:
// registry, store, dispatcher, document services, and the HTTP server.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/schemawire/adapters/clock"
	apihttp "github.com/artpar/schemawire/adapters/http"
	"github.com/artpar/schemawire/adapters/memory"
	"github.com/artpar/schemawire/adapters/metrics"
	"github.com/artpar/schemawire/adapters/sqlite"
	"github.com/artpar/schemawire/app"
	"github.com/artpar/schemawire/config"
	"github.com/artpar/schemawire/core/dispatch"
	"github.com/artpar/schemawire/core/registry"
	"github.com/artpar/schemawire/core/render"
	"github.com/artpar/schemawire/ports"
)

// App represents the running application.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Registry   *registry.Registry
	Store      ports.UserStore
	Dispatcher *dispatch.Dispatcher
	DB         *sqlite.DB // nil for the memory driver
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	// Document services backing /schema.json and /openapi.json.
	SchemaDoc  *render.Service
	OpenAPIDoc *render.Service

	clk    ports.Clock
	holder *config.Holder
}

// New creates and initializes the application from cfg.
func New(cfg *config.Config) (*App, error) {
	logger := NewLogger(cfg.Logging)

	logger.Info().
		Str("name", cfg.API.Name).
		Str("version", cfg.API.Version).
		Msg("initializing schemawire")

	a := &App{
		Config: cfg,
		Logger: logger,
		clk:    clock.Real{},
	}

	if err := a.initStore(); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	if err := a.initDispatcher(); err != nil {
		a.closeStore()
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}

	if err := a.initDocuments(); err != nil {
		a.closeStore()
		return nil, fmt.Errorf("init documents: %w", err)
	}

	if cfg.Seed.DemoData {
		if err := app.Seed(context.Background(), a.Store, a.clk, logger); err != nil {
			a.closeStore()
			return nil, err
		}
	}

	a.initHTTPServer()

	return a, nil
}

// NewWithHotReload builds the app from a config file and watches it for
// changes via fsnotify and SIGHUP. Only logging.level applies live; see
// config.ReloadableFields.
func NewWithHotReload(path string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	a, err := New(cfg)
	if err != nil {
		return nil, err
	}

	holder, err := config.NewHolder(path, a.Logger)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	a.holder = holder

	holder.OnChange(func(next *config.Config) {
		zerolog.SetGlobalLevel(parseLevel(next.Logging.Level))
	})

	if err := holder.WatchFile(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch unavailable, SIGHUP still works")
	}
	holder.WatchSignals()

	return a, nil
}

func (a *App) initStore() error {
	switch a.Config.Store.Driver {
	case "sqlite":
		db, err := sqlite.Open(a.Config.Store.DSN)
		if err != nil {
			return err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		a.Store = sqlite.NewUserStore(db)
		a.Logger.Info().Str("dsn", a.Config.Store.DSN).Msg("sqlite store initialized")
	default:
		a.Store = memory.NewUserStore()
		a.Logger.Info().Msg("in-memory store initialized")
	}
	return nil
}

func (a *App) initDispatcher() error {
	reg, err := BuildRegistry()
	if err != nil {
		return err
	}
	a.Registry = reg

	opts := dispatch.Options{MaxBodyBytes: a.Config.Server.MaxBodyBytes}
	if a.Config.Metrics.Enabled {
		a.Metrics = metrics.New()
		opts.Observer = a.Metrics
		a.Logger.Info().Str("path", a.Config.Metrics.Path).Msg("prometheus metrics enabled")
	}

	d := dispatch.New(reg, a.Logger, opts)

	users := app.NewUserService(a.Store, a.clk, a.Logger)
	if err := users.RegisterHandlers(d); err != nil {
		return err
	}

	healthSvc := app.NewHealthService(a.clk, a.Config.API.Version, a.Config.API.Region)
	if err := healthSvc.RegisterHandlers(d); err != nil {
		return err
	}

	if err := d.Compile(); err != nil {
		return fmt.Errorf("compile dispatcher: %w", err)
	}

	a.Dispatcher = d
	a.Logger.Info().Int("operations", len(reg.Operations())).Msg("dispatcher compiled")
	return nil
}

func (a *App) initDocuments() error {
	schemaDoc, openapiDoc, err := BuildDocuments(a.Registry, a.Config.API)
	if err != nil {
		return err
	}
	a.SchemaDoc = schemaDoc
	a.OpenAPIDoc = openapiDoc

	if path := a.Config.Schema.ExportPath; path != "" {
		data, _, err := schemaDoc.Bytes()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("export schema: %w", err)
		}
		a.Logger.Info().Str("path", path).Msg("schema document exported")
	}

	return nil
}

func (a *App) initHTTPServer() {
	routerCfg := apihttp.RouterConfig{
		Dispatcher:     a.Dispatcher,
		Schema:         a.SchemaDoc,
		OpenAPI:        a.OpenAPIDoc,
		Logger:         a.Logger,
		Version:        a.Config.API.Version,
		RequestTimeout: a.Config.Server.RequestTimeout,
		EnableDocs:     a.Config.Docs.Enabled,
	}

	if a.Metrics != nil {
		routerCfg.MetricsHandler = promhttp.Handler()
		routerCfg.MetricsPath = a.Config.Metrics.Path
	}

	if a.Config.Docs.Enabled {
		a.Logger.Info().Msg("interactive docs enabled at /docs")
	}

	a.HTTPServer = &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      apihttp.NewRouter(routerCfg),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server configured")
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.closeStore()

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func (a *App) closeStore() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
		a.DB = nil
	}
}

// NewLogger builds the root logger from the logging config. The level is
// applied globally so hot reload can change it without rebuilding loggers.
func NewLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
