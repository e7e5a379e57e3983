// Command vmtranslator translates VM commands into Hack assembly.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"github.com/nogafriedman/nand2tetris/internal/codewriter"
	"github.com/nogafriedman/nand2tetris/internal/driver"
	"github.com/nogafriedman/nand2tetris/internal/vmlang"
)

var description = strings.ReplaceAll(`
vmtranslator translates a VM source file, or every .vm file in a
directory, into Hack assembly. Single-file input produces a sibling
.asm file; directory input produces one combined .asm file named after
the directory and prepends a bootstrap that calls Sys.init.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("input", "A .vm file, or a directory containing .vm files")).
	WithOption(cli.NewOption("output", "Override the output file path").WithType(cli.TypeString)).
	WithOption(cli.NewOption("bootstrap", "Force-emit the Sys.init bootstrap even for single-file input").WithType(cli.TypeBool)).
	WithAction(run)

func run(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "vmtranslator: missing input file or directory")
		return 1
	}

	input := args[0]
	info, err := os.Stat(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmtranslator:", err)
		return 1
	}

	files, err := driver.CollectFiles(input, ".vm")
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmtranslator:", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "vmtranslator: no .vm files found in %q\n", input)
		return 1
	}

	outputPath := driver.CombinedOutputPath(input, ".asm")
	if override := options["output"]; override != "" {
		outputPath = override
	}

	_, bootstrapSet := options["bootstrap"]
	bootstrap := info.IsDir()
	if bootstrapSet {
		bootstrap = true
	}

	out, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmtranslator:", err)
		return 1
	}
	defer out.Close()

	w := codewriter.New(out)
	if bootstrap {
		w.WriteBootstrap()
	}

	for _, file := range files {
		if err := translateFile(w, file); err != nil {
			fmt.Fprintf(os.Stderr, "vmtranslator: %s: %s\n", file, err)
			return 1
		}
	}

	if err := w.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, "vmtranslator:", err)
		return 1
	}
	fmt.Printf("vmtranslator: %s -> %s\n", input, outputPath)
	return 0
}

func translateFile(w *codewriter.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	base := filepath.Base(path)
	className := strings.TrimSuffix(base, filepath.Ext(base))
	w.SetFile(className)

	p := vmlang.NewParser(f, base)
	for {
		cmd, err := p.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := w.Write(cmd); err != nil {
			return err
		}
	}
}

func main() {
	os.Exit(app.Run(os.Args, os.Stdout))
}
