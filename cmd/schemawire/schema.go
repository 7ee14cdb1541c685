package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/schemawire/bootstrap"
	"github.com/artpar/schemawire/config"
	"github.com/artpar/schemawire/core/render"
)

var (
	schemaFormat string
	schemaOut    string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the canonical schema or OpenAPI document",
	Long: `Print the schema documents without starting a server.

The canonical document is the byte-deterministic registry rendering that
/schema.json serves; the openapi format is the OpenAPI 3 projection served
at /openapi.json. Both come from the same frozen registry, so exporting at
build time yields exactly what the running server publishes.

Examples:
  schemawire schema
  schemawire schema --format openapi
  schemawire schema --format canonical -o schema.json`,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringVar(&schemaFormat, "format", "canonical", "document format: canonical or openapi")
	schemaCmd.Flags().StringVarP(&schemaOut, "out", "o", "", "write to file instead of stdout")
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	reg, err := bootstrap.BuildRegistry()
	if err != nil {
		return err
	}

	schemaDoc, openapiDoc, err := bootstrap.BuildDocuments(reg, cfg.API)
	if err != nil {
		return err
	}

	var svc *render.Service
	switch schemaFormat {
	case "canonical":
		svc = schemaDoc
	case "openapi":
		svc = openapiDoc
	default:
		return fmt.Errorf("unknown format %q: use canonical or openapi", schemaFormat)
	}

	data, _, err := svc.Bytes()
	if err != nil {
		return err
	}

	if schemaOut == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(schemaOut, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", schemaOut, err)
	}
	fmt.Printf("Exported %s document to %s\n", schemaFormat, schemaOut)
	return nil
}
