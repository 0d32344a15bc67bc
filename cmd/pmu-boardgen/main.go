// Command pmu-boardgen compiles a board file into a Go rail table.
//
// Boards that cannot ship a YAML file embed the generated table and pass it
// to regulator.New directly.
//
// Usage:
//
//	pmu-boardgen -config board.yaml -output board/rails_gen.go [-package board] [-var Rails]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"

	"github.com/mxs-pmu/pmu-go/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "Board file (YAML)")
	output := flag.String("output", "", "Output path for the generated Go file")
	pkg := flag.String("package", "board", "Package name of the generated file")
	varName := flag.String("var", "Rails", "Name of the generated table variable")
	flag.Parse()

	if *configPath == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Usage: pmu-boardgen -config <path> -output <path> [-package <name>] [-var <name>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*configPath, *output, *pkg, *varName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, output, pkg, varName string) error {
	board, err := config.Load(configPath)
	if err != nil {
		return err
	}
	descs, err := board.Descriptors()
	if err != nil {
		return err
	}

	code, err := Generate(GenInput{
		Source:  filepath.Base(configPath),
		Package: pkg,
		Var:     varName,
		Model:   board.Model,
		Rails:   descs,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := writeFormatted(output, code); err != nil {
		return err
	}
	fmt.Printf("  generated %s (%d rails)\n", output, len(descs))
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Keep the raw output for debugging the template.
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
