package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datamodel-lang/go-datamodel/config"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/schema"
	"github.com/datamodel-lang/go-datamodel/visualization"
)

var diagramCmd = &cobra.Command{
	Use:   "diagram [schema file]",
	Short: "Render a schema as an SVG entity diagram",
	Long: `Compile a schema and render its models, enums and relations as an SVG
entity diagram. The schema must validate first.

Examples:
  datamodel diagram schema.dml
  datamodel diagram schema.dml --output docs/schema.svg`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiagram,
}

var diagramOutput string

func init() {
	rootCmd.AddCommand(diagramCmd)

	diagramCmd.Flags().StringVarP(&diagramOutput, "output", "o", "", "output file (default: schema file with .svg extension)")
}

func runDiagram(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	path, err := schemaPath(cfg, args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	source := string(data)

	dm, err := schema.ParseAndValidate(source,
		schema.WithEnvLookup(cfg.EnvLookup()),
		schema.WithLogger(logger))
	if err != nil {
		printDiagnostics(path, source, err)
		collection := diag.AsCollection(err)
		if collection == nil {
			return err
		}
		return fmt.Errorf("schema contains %d error(s)", len(collection.Errors))
	}

	output := diagramOutput
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".svg"
	}

	opts := visualization.DefaultDiagramOptions()
	opts.Title = filepath.Base(path)

	if err := visualization.SaveDiagram(dm, output, opts); err != nil {
		return fmt.Errorf("write diagram: %w", err)
	}

	fmt.Printf("%s %s\n", checkMark, output)
	return nil
}
