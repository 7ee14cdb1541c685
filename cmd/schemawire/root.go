package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "schemawire",
	Short: "Schema-first JSON API server with a single registry for routing, validation, and docs",
	Long: `Schemawire serves a JSON API whose routes, validation rules, canonical
schema document, and OpenAPI projection all derive from one frozen type
registry, so the wire behavior and the published contract cannot drift.

Quick start:
  schemawire serve          # Start the server with built-in defaults
  schemawire schema         # Print the canonical schema document

Management:
  schemawire validate       # Validate configuration and schema registry
  schemawire version        # Print build information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "schemawire.yaml", "config file path")
}
