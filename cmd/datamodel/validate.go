package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/datamodel-lang/go-datamodel/cache"
	"github.com/datamodel-lang/go-datamodel/config"
	"github.com/datamodel-lang/go-datamodel/diag"
	"github.com/datamodel-lang/go-datamodel/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [schema file]",
	Short: "Compile a schema and report diagnostics",
	Long: `Compile a schema file and report every diagnostic with source context.

The whole document is checked in one run, so one invocation surfaces all
problems, not just the first. With --watch the file is rechecked after every
save until interrupted.

Examples:
  datamodel validate schema.dml
  datamodel validate schema.dml --json > datamodel.json
  datamodel validate --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var (
	validateWatch bool
	validateJSON  bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateWatch, "watch", false, "recheck whenever the schema file changes")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the datamodel as JSON on success")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	path, err := schemaPath(cfg, args)
	if err != nil {
		return err
	}

	env := cfg.EnvLookup()
	opts := []schema.Option{
		schema.WithEnvLookup(env),
		schema.WithLogger(logger),
	}

	if validateWatch {
		return watchValidate(path, cfg.Watch.Debounce, logger, opts)
	}
	return validateOnce(path, env, opts)
}

func validateOnce(path string, env func(string) (string, bool), opts []schema.Option) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	dm, err := schema.ParseAndValidate(string(source), opts...)
	if err != nil {
		printDiagnostics(path, string(source), err)
		collection := diag.AsCollection(err)
		if collection == nil {
			return err
		}
		return fmt.Errorf("schema contains %d error(s)", len(collection.Errors))
	}

	if validateJSON {
		data, err := schema.ToJSON(dm)
		if err != nil {
			return fmt.Errorf("marshal datamodel: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%s %s is valid (%d models, %d enums)\n", checkMark, path, len(dm.Models), len(dm.Enums))
	printConfigSummary(string(source), env)
	return nil
}

// printConfigSummary lists the datasource and generator blocks. Connection
// strings are never printed.
func printConfigSummary(source string, env func(string) (string, bool)) {
	schemaAst, err := schema.Parse(source)
	if err != nil {
		return
	}
	cfg, err := schema.LoadConfig(schemaAst, env)
	if err != nil {
		return
	}

	for _, ds := range cfg.Datasources {
		if ds.FromEnvVar != "" {
			fmt.Printf("  datasource %s (%s, url from env %s)\n", ds.Name, ds.Provider, ds.FromEnvVar)
		} else {
			fmt.Printf("  datasource %s (%s)\n", ds.Name, ds.Provider)
		}
	}
	for _, gen := range cfg.Generators {
		fmt.Printf("  generator %s (%s)\n", gen.Name, gen.Provider)
	}
}

// watchValidate rechecks the schema after each save. Repeated compiles of
// unchanged content are served from the cache.
func watchValidate(path string, debounce time.Duration, logger zerolog.Logger, opts []schema.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve schema path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch schema directory: %w", err)
	}

	compiler := cache.NewCompiler(0).WithOptions(opts...)

	lastSource := ""
	check := func(first bool) {
		data, err := os.ReadFile(absPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read schema: %v\n", err)
			return
		}
		source := string(data)
		if !first && source == lastSource {
			return
		}
		lastSource = source

		dm, err := compiler.Compile(source)
		if err != nil {
			printDiagnostics(path, source, err)
			if collection := diag.AsCollection(err); collection != nil {
				fmt.Fprintf(os.Stderr, "%s %s: %d error(s)\n", crossMark, path, len(collection.Errors))
			}
			return
		}
		fmt.Printf("%s %s is valid (%d models, %d enums)\n", checkMark, path, len(dm.Models), len(dm.Enums))
	}

	check(true)
	logger.Info().Str("path", absPath).Msg("watching schema")

	filename := filepath.Base(absPath)
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case <-timerC:
			check(false)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}
