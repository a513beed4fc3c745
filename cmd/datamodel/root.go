package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/datamodel-lang/go-datamodel/config"
	"github.com/datamodel-lang/go-datamodel/diag"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "datamodel",
	Short: "Schema compiler, formatter and registry for the datamodel language",
	Long: `datamodel compiles schema files into a validated datamodel.

Quick start:
  datamodel validate schema.dml          # compile and report diagnostics
  datamodel validate --watch             # recheck on every save
  datamodel format schema.dml --write    # rewrite in canonical formatting
  datamodel serve                        # validation and registry over HTTP

Configuration is read from datamodel.yaml in the working directory, or from
the file named with --config. Every command works without one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default datamodel.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// setupLogger builds the process logger and sets the global level. The
// console format goes to stderr so command output stays pipeable.
func setupLogger(cfg *config.Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var w io.Writer = os.Stderr
	if cfg.Logging.Format == "console" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// schemaPath resolves the schema file a command operates on: the argument
// wins, then schema.path from the configuration.
func schemaPath(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Schema.Path != "" {
		return cfg.Schema.Path, nil
	}
	return "", fmt.Errorf("no schema file: pass a path or set schema.path in %s", config.DefaultFileName)
}

// configFilePath returns the config file serve watches for changes, empty
// when the tool runs on defaults only.
func configFilePath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(config.DefaultFileName); err == nil {
		return config.DefaultFileName
	}
	return ""
}

// printDiagnostics pretty-prints compile errors with source context.
func printDiagnostics(fileName, source string, err error) {
	collection := diag.AsCollection(err)
	if collection == nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if perr := collection.PrettyPrint(os.Stderr, fileName, source); perr != nil {
		fmt.Fprintln(os.Stderr, collection.Error())
	}
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
