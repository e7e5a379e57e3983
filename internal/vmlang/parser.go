package vmlang

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parser reads one VM command per call to Next, skipping blank lines
// and "//" line comments. One command per source line; fields
// separated by arbitrary whitespace.
type Parser struct {
	scanner *bufio.Scanner
	file    string
	line    int
}

// NewParser wraps r for reading VM text attributed to file (used only
// in diagnostics).
func NewParser(r io.Reader, file string) *Parser {
	return &Parser{scanner: bufio.NewScanner(r), file: file}
}

// Next returns the next command, or io.EOF once the input is
// exhausted. A malformed line is a fatal syntactic error.
func (p *Parser) Next() (Command, error) {
	for p.scanner.Scan() {
		p.line++
		line := p.scanner.Text()
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, err := p.parseFields(fields)
		if err != nil {
			return Command{}, errors.Wrapf(err, "%s:%d", p.file, p.line)
		}
		cmd.File, cmd.Line = p.file, p.line
		return cmd, nil
	}
	if err := p.scanner.Err(); err != nil {
		return Command{}, errors.Wrapf(err, "%s: reading VM source", p.file)
	}
	return Command{}, io.EOF
}

func (p *Parser) parseFields(fields []string) (Command, error) {
	if op, ok := arithmeticOps[fields[0]]; ok {
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("arithmetic command %q takes no arguments", fields[0])
		}
		return Command{Kind: Arithmetic, Op: op}, nil
	}

	switch fields[0] {
	case "push", "pop":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("%q requires segment and index", fields[0])
		}
		idx, err := parseIndex(fields[2])
		if err != nil {
			return Command{}, err
		}
		kind := Push
		if fields[0] == "pop" {
			kind = Pop
		}
		return Command{Kind: kind, Segment: Segment(fields[1]), Index: idx}, nil
	case "label":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("label requires a name")
		}
		return Command{Kind: Label, Name: fields[1]}, nil
	case "goto":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("goto requires a label")
		}
		return Command{Kind: Goto, Name: fields[1]}, nil
	case "if-goto":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("if-goto requires a label")
		}
		return Command{Kind: IfGoto, Name: fields[1]}, nil
	case "function":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("function requires name and n_vars")
		}
		n, err := parseIndex(fields[2])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Function, Name: fields[1], N: n}, nil
	case "call":
		if len(fields) != 3 {
			return Command{}, fmt.Errorf("call requires name and n_args")
		}
		n, err := parseIndex(fields[2])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: Call, Name: fields[1], N: n}, nil
	case "return":
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("return takes no arguments")
		}
		return Command{Kind: Return}, nil
	default:
		return Command{}, fmt.Errorf("unknown VM command %q", fields[0])
	}
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("expected non-negative integer, got %q", s)
	}
	return n, nil
}
