// Command jackc compiles Jack source files into VM code.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"github.com/nogafriedman/nand2tetris/internal/driver"
	"github.com/nogafriedman/nand2tetris/internal/jackcompiler"
)

var description = strings.ReplaceAll(`
jackc compiles a Jack source file, or every .jack file in a directory,
into VM commands. Each "Foo.jack" produces a sibling "Foo.vm".
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("input", "A .jack file, or a directory containing .jack files")).
	WithOption(cli.NewOption("output", "Override the output file path (single-file input only)").WithType(cli.TypeString)).
	WithAction(run)

func run(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "jackc: missing input file or directory")
		return 1
	}

	files, err := driver.CollectFiles(args[0], ".jack")
	if err != nil {
		fmt.Fprintln(os.Stderr, "jackc:", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "jackc: no .jack files found in %q\n", args[0])
		return 1
	}

	override := options["output"]
	if override != "" && len(files) > 1 {
		fmt.Fprintln(os.Stderr, "jackc: --output only applies to single-file input")
		return 1
	}

	for _, file := range files {
		out := driver.OutputPath(file, ".vm")
		if override != "" {
			out = override
		}
		if err := compileFile(file, out); err != nil {
			fmt.Fprintf(os.Stderr, "jackc: %s: %s\n", file, err)
			return 1
		}
		fmt.Printf("jackc: %s -> %s\n", file, out)
	}
	return 0
}

func compileFile(inputPath, outputPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	c, err := jackcompiler.New(in, out, filepath.Base(inputPath))
	if err != nil {
		return err
	}
	return c.Compile()
}

func main() {
	os.Exit(app.Run(os.Args, os.Stdout))
}
