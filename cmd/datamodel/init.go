package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datamodel-lang/go-datamodel/config"
	"github.com/datamodel-lang/go-datamodel/templates"
)

var (
	initTemplate string
	initForce    bool
	initList     bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a new schema project from a starter template",
	Long: `Create a new schema project from a starter template.

Writes schema.dml and ` + config.DefaultFileName + ` into the target
directory (default: the current directory). The generated project
validates as-is: connection strings that come from env() are pinned in
the configuration's env section.

Examples:
  # List available templates
  datamodel init --list

  # Start a minimal project in the current directory
  datamodel init

  # Start a blog project in ./myblog
  datamodel init --template blog myblog`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "minimal", "starter template")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing files")
	initCmd.Flags().BoolVar(&initList, "list", false, "list available templates")
}

func runInit(cmd *cobra.Command, args []string) error {
	if initList {
		fmt.Println("Available templates:")
		for _, name := range templates.List() {
			tpl, err := templates.Get(name)
			if err != nil {
				return err
			}
			fmt.Printf("  %-12s %s\n", name, tpl.Description)
		}
		return nil
	}

	tpl, err := templates.Get(initTemplate)
	if err != nil {
		return err
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{"schema.dml", tpl.Schema},
		{config.DefaultFileName, tpl.Config},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		fmt.Printf("%s %s\n", checkMark, path)
	}

	fmt.Println("\nNext steps:")
	if dir != "." {
		fmt.Printf("  cd %s\n", dir)
	}
	fmt.Println("  datamodel validate")
	return nil
}
