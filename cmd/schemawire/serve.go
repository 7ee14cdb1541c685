package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/schemawire/bootstrap"
	"github.com/artpar/schemawire/config"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the schemawire server.

The server will:
  - Load configuration from schemawire.yaml (or --config)
  - Or run on built-in defaults with SCHEMAWIRE_* environment overrides
  - Open the configured store (in-memory or SQLite)
  - Serve the registered operations plus /schema.json and /openapi.json

Environment variables (for Docker deployments):
  SCHEMAWIRE_SERVER_PORT     - Server port (default: 8080)
  SCHEMAWIRE_STORE_DRIVER    - Store driver: memory or sqlite
  SCHEMAWIRE_STORE_DSN       - SQLite database path
  SCHEMAWIRE_LOG_LEVEL       - Log level: debug, info, warn, error
  SCHEMAWIRE_SEED_DEMO_DATA  - Seed demo users into an empty store

Examples:
  schemawire serve
  schemawire serve --config /etc/schemawire/config.yaml
  schemawire serve --hot-reload=false

  # Docker (env vars only):
  SCHEMAWIRE_STORE_DRIVER=sqlite schemawire serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var app *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		app, err = bootstrap.NewWithHotReload(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}

		if !hasConfigFile {
			fmt.Println("No config file found, using defaults with SCHEMAWIRE_* overrides")
		}

		app, err = bootstrap.New(cfg)
	}

	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
