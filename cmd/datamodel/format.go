package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datamodel-lang/go-datamodel/config"
	"github.com/datamodel-lang/go-datamodel/schema"
)

var formatCmd = &cobra.Command{
	Use:   "format [schema files]",
	Short: "Rewrite schemas in canonical formatting",
	Long: `Reformat schema files: two-space indentation, aligned field columns,
canonical attribute order. Formatting never changes meaning, and a file that
does not parse is left untouched.

Examples:
  datamodel format schema.dml              # print to stdout
  datamodel format schema.dml --write      # rewrite in place
  datamodel format --check *.dml           # list files that need formatting`,
	RunE: runFormat,
}

var (
	formatWrite bool
	formatCheck bool
)

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().BoolVarP(&formatWrite, "write", "w", false, "write the result back instead of printing it")
	formatCmd.Flags().BoolVar(&formatCheck, "check", false, "list files that are not canonically formatted and exit non-zero")
}

func runFormat(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	setupLogger(cfg)

	paths := args
	if len(paths) == 0 {
		path, err := schemaPath(cfg, nil)
		if err != nil {
			return err
		}
		paths = []string{path}
	}

	dirty := 0
	for _, path := range paths {
		changed, err := formatOne(path)
		if err != nil {
			return err
		}
		if changed {
			dirty++
		}
	}

	if formatCheck && dirty > 0 {
		return fmt.Errorf("%d file(s) not formatted", dirty)
	}
	return nil
}

func formatOne(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read schema: %w", err)
	}
	source := string(data)

	formatted, err := schema.Reformat(source)
	if err != nil {
		printDiagnostics(path, source, err)
		return false, fmt.Errorf("%s does not parse", path)
	}

	changed := formatted != source
	switch {
	case formatCheck:
		if changed {
			fmt.Println(path)
		}
	case formatWrite:
		if changed {
			if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
				return false, fmt.Errorf("write schema: %w", err)
			}
			fmt.Println(path)
		}
	default:
		fmt.Print(formatted)
	}
	return changed, nil
}
