package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datamodel-lang/go-datamodel/codegen/golang"
	"github.com/datamodel-lang/go-datamodel/config"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/schema"
)

var generateOutput string

var generateCmd = &cobra.Command{
	Use:   "generate [schema file]",
	Short: "Run the generators declared in a schema",
	Long: `Run the generators declared in a schema.

Each generator block with a supported provider writes output relative
to the schema file. Supported providers:

  go    Go structs and enum types (config: package = "name")

Example block:
  generator models {
    provider = "go"
    output   = "./internal/models"
  }`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "override the output directory of every generator")
}

func runGenerate(cmd *cobra.Command, args []string) error {
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
	env := cfg.EnvLookup()

	dm, err := schema.ParseAndValidate(source, schema.WithEnvLookup(env), schema.WithLogger(logger))
	if err != nil {
		printDiagnostics(path, source, err)
		collection := diag.AsCollection(err)
		if collection == nil {
			return err
		}
		return fmt.Errorf("schema contains %d error(s)", len(collection.Errors))
	}

	schemaAst, err := schema.Parse(source)
	if err != nil {
		return err
	}
	sc, err := schema.LoadConfig(schemaAst, env)
	if err != nil {
		return err
	}
	if len(sc.Generators) == 0 {
		return fmt.Errorf("no generator blocks in %s", path)
	}

	ran := 0
	for _, gen := range sc.Generators {
		switch gen.Provider {
		case "go":
			file, err := runGoGenerator(dm, gen, path)
			if err != nil {
				return fmt.Errorf("generator %s: %w", gen.Name, err)
			}
			fmt.Printf("%s %s (generator %s)\n", checkMark, file, gen.Name)
			ran++
		default:
			logger.Warn().
				Str("generator", gen.Name).
				Str("provider", gen.Provider).
				Msg("unsupported generator provider, skipping")
		}
	}
	if ran == 0 {
		return fmt.Errorf("no generator in %s has a supported provider", path)
	}
	return nil
}

func runGoGenerator(dm *dml.Datamodel, gen *schema.Generator, schemaFile string) (string, error) {
	pkg := gen.Config["package"]
	if pkg == "" {
		pkg = "models"
	}
	src, err := golang.Generate(dm, pkg)
	if err != nil {
		return "", err
	}

	dir := gen.Output
	if generateOutput != "" {
		dir = generateOutput
	}
	if dir == "" {
		dir = "generated"
	}
	// Output paths are relative to the schema file, not the working
	// directory.
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(schemaFile), dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	file := filepath.Join(dir, pkg+".go")
	if err := os.WriteFile(file, []byte(src), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", file, err)
	}
	return file, nil
}
