package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/schemawire/adapters/sqlite"
	"github.com/artpar/schemawire/bootstrap"
	"github.com/artpar/schemawire/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and schema registry before deployment",
	Long: `Validate the schemawire configuration file and the schema registry.

Checks:
  - YAML syntax is valid and all fields are within range
  - Every registered operation resolves
  - The canonical and OpenAPI documents render (no dangling type refs)
  - The SQLite store is writable (optional)

Examples:
  schemawire validate
  schemawire validate --config /etc/schemawire/config.yaml --check-store`,
	RunE: runValidate,
}

var validateCheckStore bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckStore, "check-store", false, "check that the sqlite store opens and migrates")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	fmt.Printf("  %s Listen address: %s\n", checkMark, cfg.Server.Addr())
	if cfg.Store.Driver == "sqlite" {
		fmt.Printf("  %s Store: sqlite (%s)\n", checkMark, cfg.Store.DSN)
	} else {
		fmt.Printf("  %s Store: %s\n", checkMark, cfg.Store.Driver)
	}
	fmt.Printf("  %s Logging: %s/%s\n", checkMark, cfg.Logging.Level, cfg.Logging.Format)
	fmt.Printf("  %s Hot-reloadable: %s\n", checkMark, strings.Join(config.ReloadableFields(), ", "))

	reg, err := bootstrap.BuildRegistry()
	if err != nil {
		fmt.Printf("  %s Schema registry builds\n", crossMark)
		return fmt.Errorf("registry error: %w", err)
	}
	fmt.Printf("  %s Schema registry: %d types, %d operations\n",
		checkMark, len(reg.Types()), len(reg.Operations()))

	if _, _, err := bootstrap.BuildDocuments(reg, cfg.API); err != nil {
		fmt.Printf("  %s Schema documents render\n", crossMark)
		return fmt.Errorf("document error: %w", err)
	}
	fmt.Printf("  %s Schema documents render\n", checkMark)

	if validateCheckStore && cfg.Store.Driver == "sqlite" {
		if err := checkStoreWritable(cfg.Store.DSN); err != nil {
			fmt.Printf("  %s Store writable\n", crossMark)
			fmt.Printf("      Error: %v\n", err)
		} else {
			fmt.Printf("  %s Store writable\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func checkStoreWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
