// Package jackcompiler implements the recursive-descent Jack→VM
// compilation engine: one routine per grammar non-terminal, one-token
// lookahead, no backtracking.
package jackcompiler

import (
	"fmt"
	"io"

	"github.com/nogafriedman/nand2tetris/internal/lexer"
	"github.com/nogafriedman/nand2tetris/internal/symtable"
	"github.com/nogafriedman/nand2tetris/internal/token"
	"github.com/nogafriedman/nand2tetris/internal/vmwriter"
)

// Error is a fatal, file-and-line-scoped translation error: syntactic,
// semantic, or internal. Lexical errors are not wrapped in an Error;
// they are passed through as the lexer reports them, already prefixed
// with file and line. Compile aborts on the first fatal error.
type Error struct {
	File  string
	Line  int
	Cause error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

type subroutineKind int

const (
	ctor subroutineKind = iota
	function
	method
)

// codegenCtx holds the per-subroutine if/while label counters. Kept
// separate from the symbol table so identifier allocation is never
// entangled with label naming.
type codegenCtx struct {
	ifCount    int
	whileCount int
}

func (c *codegenCtx) nextIf() int    { n := c.ifCount; c.ifCount++; return n }
func (c *codegenCtx) nextWhile() int { n := c.whileCount; c.whileCount++; return n }

// Compiler drives one Jack compilation unit (one class) through the
// lexer and symbol table, emitting VM commands via vmwriter.Writer.
type Compiler struct {
	lex       *lexer.Lexer
	out       *vmwriter.Writer
	syms      *symtable.Table
	ctx       codegenCtx
	className string
	file      string
}

// New constructs a Compiler reading Jack source from src and writing
// VM commands to out. filename is used only for error reporting.
func New(src io.Reader, out io.Writer, filename string) (*Compiler, error) {
	lex, err := lexer.New(src, filename)
	if err != nil {
		return nil, err
	}
	return &Compiler{
		lex:  lex,
		out:  vmwriter.New(out),
		syms: symtable.New(),
		file: filename,
	}, nil
}

// Compile translates the single class in the unit and flushes output.
// It returns the first fatal error encountered, if any: an *Error, or
// the lexer's own error for a lexical fault.
func (c *Compiler) Compile() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if msg, ok := token.IsInternal(r); ok {
				err = &Error{File: c.file, Cause: fmt.Errorf("internal error: %s", msg)}
				return
			}
			panic(r)
		}
	}()
	if err := c.compileClass(); err != nil {
		return err
	}
	return c.out.Flush()
}

func (c *Compiler) fail(format string, args ...any) error {
	return &Error{File: c.file, Line: c.lex.Line(), Cause: fmt.Errorf(format, args...)}
}

func (c *Compiler) peek() token.Token { return c.lex.Peek() }

// advance consumes the current lookahead and returns it.
func (c *Compiler) advance() (token.Token, error) {
	if c.lex.Err() != nil {
		return token.Token{}, c.lex.Err()
	}
	if c.lex.AtEOF() {
		return token.Token{}, c.fail("unexpected end of input")
	}
	return c.lex.Advance()
}

// expect consumes a sequence of tokens, requiring each one in turn to
// match the corresponding terminal.
func (c *Compiler) expect(terminals ...string) error {
	for _, terminal := range terminals {
		if !c.peek().Is(terminal) {
			return c.fail("expected %q, got %q", terminal, c.peek().Text)
		}
		if _, err := c.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) expectIdentifier() (string, error) {
	tok := c.peek()
	if tok.Type != token.Identifier {
		return "", c.fail("expected identifier, got %q", tok.Text)
	}
	_, err := c.advance()
	return tok.IdentifierText(), err
}

// --- class ---------------------------------------------------------------

func (c *Compiler) compileClass() error {
	if err := c.expect("class"); err != nil {
		return err
	}
	c.syms.StartClass()

	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}
	c.className = name

	if err := c.expect("{"); err != nil {
		return err
	}
	for c.peek().IsAny("static", "field") {
		if err := c.compileClassVarDec(); err != nil {
			return err
		}
	}
	for c.peek().IsAny("constructor", "function", "method") {
		if err := c.compileSubroutineDec(); err != nil {
			return err
		}
	}
	if err := c.expect("}"); err != nil {
		return err
	}
	if c.lex.Err() != nil {
		return c.lex.Err()
	}
	if !c.lex.AtEOF() {
		return c.fail("unexpected input after class body: %q", c.peek().Text)
	}
	return nil
}

func (c *Compiler) compileClassVarDec() error {
	kindTok, err := c.advance()
	if err != nil {
		return err
	}
	var kind symtable.Kind
	if kindTok.Is("static") {
		kind = symtable.Static
	} else {
		kind = symtable.Field
	}
	return c.compileVarSequence(kind)
}

func (c *Compiler) compileType() (string, error) {
	tok := c.peek()
	if tok.IsAny("int", "char", "boolean") {
		_, err := c.advance()
		return tok.Text, err
	}
	return c.expectIdentifier()
}

// compileVarSequence parses "type name (',' name)* ';'" and defines
// each name at kind in the symbol table.
func (c *Compiler) compileVarSequence(kind symtable.Kind) error {
	typ, err := c.compileType()
	if err != nil {
		return err
	}
	for {
		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		if err := c.syms.Define(name, typ, kind); err != nil {
			return c.fail("%v", err)
		}
		if c.peek().Is(",") {
			if err := c.expect(","); err != nil {
				return err
			}
			continue
		}
		break
	}
	return c.expect(";")
}

// --- subroutines -----------------------------------------------------------

func (c *Compiler) compileSubroutineDec() error {
	c.syms.StartSubroutine()
	c.ctx = codegenCtx{}

	kindTok, err := c.advance()
	if err != nil {
		return err
	}
	var kind subroutineKind
	switch {
	case kindTok.Is("constructor"):
		kind = ctor
	case kindTok.Is("function"):
		kind = function
	case kindTok.Is("method"):
		kind = method
	}

	if kind == method {
		if err := c.syms.Define("this", c.className, symtable.Arg); err != nil {
			return c.fail("%v", err)
		}
	}

	// return type: 'void' or a type
	if c.peek().Is("void") {
		if _, err := c.advance(); err != nil {
			return err
		}
	} else if _, err := c.compileType(); err != nil {
		return err
	}

	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}

	if err := c.expect("("); err != nil {
		return err
	}
	if !c.peek().Is(")") {
		if err := c.compileParameterList(); err != nil {
			return err
		}
	}
	if err := c.expect(")"); err != nil {
		return err
	}

	return c.compileSubroutineBody(name, kind)
}

func (c *Compiler) compileParameterList() error {
	for {
		typ, err := c.compileType()
		if err != nil {
			return err
		}
		name, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		if err := c.syms.Define(name, typ, symtable.Arg); err != nil {
			return c.fail("%v", err)
		}
		if c.peek().Is(",") {
			if err := c.expect(","); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}

func (c *Compiler) compileSubroutineBody(name string, kind subroutineKind) error {
	if err := c.expect("{"); err != nil {
		return err
	}
	for c.peek().Is("var") {
		if err := c.expect("var"); err != nil {
			return err
		}
		if err := c.compileVarSequence(symtable.Var); err != nil {
			return err
		}
	}

	c.out.WriteFunction(c.className+"."+name, c.syms.VarCount(symtable.Var))

	switch kind {
	case ctor:
		c.out.WritePush(vmwriter.Constant, c.syms.VarCount(symtable.Field))
		c.out.WriteCall("Memory.alloc", 1)
		c.out.WritePop(vmwriter.Pointer, 0)
	case method:
		c.out.WritePush(vmwriter.Argument, 0)
		c.out.WritePop(vmwriter.Pointer, 0)
	}

	if err := c.compileStatements(); err != nil {
		return err
	}
	return c.expect("}")
}

// --- statements --------------------------------------------------------

func (c *Compiler) compileStatements() error {
	for {
		switch {
		case c.peek().Is("let"):
			if err := c.compileLet(); err != nil {
				return err
			}
		case c.peek().Is("if"):
			if err := c.compileIf(); err != nil {
				return err
			}
		case c.peek().Is("while"):
			if err := c.compileWhile(); err != nil {
				return err
			}
		case c.peek().Is("do"):
			if err := c.compileDo(); err != nil {
				return err
			}
		case c.peek().Is("return"):
			if err := c.compileReturn(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (c *Compiler) segmentOf(kind symtable.Kind) vmwriter.Segment {
	switch kind {
	case symtable.Static:
		return vmwriter.Static
	case symtable.Field:
		return vmwriter.This
	case symtable.Arg:
		return vmwriter.Argument
	case symtable.Var:
		return vmwriter.Local
	default:
		return ""
	}
}

func (c *Compiler) resolveVar(name string) (vmwriter.Segment, int, error) {
	sym, ok := c.syms.Lookup(name)
	if !ok {
		return "", 0, c.fail("undefined variable %q", name)
	}
	return c.segmentOf(sym.Kind), sym.Index, nil
}

func (c *Compiler) compileLet() error {
	if err := c.expect("let"); err != nil {
		return err
	}
	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}

	isArray := c.peek().Is("[")
	if isArray {
		if err := c.expect("["); err != nil {
			return err
		}
		if err := c.compileExpression(); err != nil { // index
			return err
		}
		seg, idx, err := c.resolveVar(name)
		if err != nil {
			return err
		}
		c.out.WritePush(seg, idx)
		c.out.WriteArithmetic(vmwriter.Add)
		if err := c.expect("]"); err != nil {
			return err
		}
	}

	if err := c.expect("="); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expect(";"); err != nil {
		return err
	}

	if isArray {
		// Canonical save-RHS/set-THAT/write sequence: e may itself
		// reference an array, so the base+index address must already
		// be computed before e's value is evaluated, yet written last.
		c.out.WritePop(vmwriter.Temp, 0)
		c.out.WritePop(vmwriter.Pointer, 1)
		c.out.WritePush(vmwriter.Temp, 0)
		c.out.WritePop(vmwriter.That, 0)
		return nil
	}

	seg, idx, err := c.resolveVar(name)
	if err != nil {
		return err
	}
	c.out.WritePop(seg, idx)
	return nil
}

func (c *Compiler) compileIf() error {
	if err := c.expect("if", "("); err != nil {
		return err
	}
	n := c.ctx.nextIf()
	trueLabel := fmt.Sprintf("IF_TRUE_%d", n)
	falseLabel := fmt.Sprintf("IF_FALSE_%d", n)
	endLabel := fmt.Sprintf("IF_END_%d", n)

	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expect(")", "{"); err != nil {
		return err
	}
	c.out.WriteIf(trueLabel)
	c.out.WriteGoto(falseLabel)
	c.out.WriteLabel(trueLabel)
	if err := c.compileStatements(); err != nil {
		return err
	}
	if err := c.expect("}"); err != nil {
		return err
	}

	hasElse := c.peek().Is("else")
	if hasElse {
		c.out.WriteGoto(endLabel)
	}
	c.out.WriteLabel(falseLabel)
	if hasElse {
		if err := c.expect("else", "{"); err != nil {
			return err
		}
		if err := c.compileStatements(); err != nil {
			return err
		}
		if err := c.expect("}"); err != nil {
			return err
		}
		c.out.WriteLabel(endLabel)
	}
	return nil
}

func (c *Compiler) compileWhile() error {
	if err := c.expect("while", "("); err != nil {
		return err
	}
	n := c.ctx.nextWhile()
	expLabel := fmt.Sprintf("WHILE_EXP_%d", n)
	endLabel := fmt.Sprintf("WHILE_END_%d", n)

	c.out.WriteLabel(expLabel)
	if err := c.compileExpression(); err != nil {
		return err
	}
	if err := c.expect(")", "{"); err != nil {
		return err
	}
	c.out.WriteArithmetic(vmwriter.Not)
	c.out.WriteIf(endLabel)
	if err := c.compileStatements(); err != nil {
		return err
	}
	if err := c.expect("}"); err != nil {
		return err
	}
	c.out.WriteGoto(expLabel)
	c.out.WriteLabel(endLabel)
	return nil
}

func (c *Compiler) compileDo() error {
	if err := c.expect("do"); err != nil {
		return err
	}
	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}
	if err := c.compileSubroutineCall(name); err != nil {
		return err
	}
	c.out.WritePop(vmwriter.Temp, 0)
	return c.expect(";")
}

func (c *Compiler) compileReturn() error {
	if err := c.expect("return"); err != nil {
		return err
	}
	if c.peek().Is(";") {
		c.out.WritePush(vmwriter.Constant, 0)
	} else {
		if err := c.compileExpression(); err != nil {
			return err
		}
	}
	c.out.WriteReturn()
	return c.expect(";")
}

// --- expressions -----------------------------------------------------------

var binaryOps = map[string]vmwriter.Op{
	"+": vmwriter.Add, "-": vmwriter.Sub, "&": vmwriter.And, "|": vmwriter.Or,
	"<": vmwriter.Lt, ">": vmwriter.Gt, "=": vmwriter.Eq,
}

var unaryOps = map[string]vmwriter.Op{
	"-": vmwriter.Neg, "~": vmwriter.Not, "^": vmwriter.ShiftLeft, "#": vmwriter.ShiftRight,
}

func (c *Compiler) compileExpression() error {
	if err := c.compileTerm(); err != nil {
		return err
	}
	for {
		tok := c.peek()
		switch {
		case tok.Is("*"):
			if _, err := c.advance(); err != nil {
				return err
			}
			if err := c.compileTerm(); err != nil {
				return err
			}
			c.out.WriteCall("Math.multiply", 2)
			continue
		case tok.Is("/"):
			if _, err := c.advance(); err != nil {
				return err
			}
			if err := c.compileTerm(); err != nil {
				return err
			}
			c.out.WriteCall("Math.divide", 2)
			continue
		case tok.IsAny("+", "-", "&", "|", "<", ">", "="):
			// handled below
		default:
			return nil
		}
		op := binaryOps[tok.Text]
		if _, err := c.advance(); err != nil {
			return err
		}
		if err := c.compileTerm(); err != nil {
			return err
		}
		c.out.WriteArithmetic(op)
	}
}

// compileExpressionList parses "(expr (',' expr)*)?" and returns the
// argument count.
func (c *Compiler) compileExpressionList() (int, error) {
	if c.peek().Is(")") {
		return 0, nil
	}
	n := 0
	for {
		if err := c.compileExpression(); err != nil {
			return 0, err
		}
		n++
		if c.peek().Is(",") {
			if err := c.expect(","); err != nil {
				return 0, err
			}
			continue
		}
		return n, nil
	}
}

func (c *Compiler) compileSubroutineCall(name string) error {
	switch {
	case c.peek().Is("."):
		if _, err := c.advance(); err != nil {
			return err
		}
		method, err := c.expectIdentifier()
		if err != nil {
			return err
		}
		nArgs := 0
		qualified := name
		if sym, ok := c.syms.Lookup(name); ok {
			seg := c.segmentOf(sym.Kind)
			c.out.WritePush(seg, sym.Index)
			nArgs++
			qualified = sym.Type + "." + method
		} else {
			qualified = name + "." + method
		}
		if err := c.expect("("); err != nil {
			return err
		}
		nExtra, err := c.compileExpressionList()
		if err != nil {
			return err
		}
		if err := c.expect(")"); err != nil {
			return err
		}
		c.out.WriteCall(qualified, nArgs+nExtra)
		return nil
	case c.peek().Is("("):
		c.out.WritePush(vmwriter.Pointer, 0)
		if _, err := c.advance(); err != nil {
			return err
		}
		nArgs, err := c.compileExpressionList()
		if err != nil {
			return err
		}
		if err := c.expect(")"); err != nil {
			return err
		}
		c.out.WriteCall(c.className+"."+name, 1+nArgs)
		return nil
	default:
		return c.fail("expected '(' or '.' after %q, got %q", name, c.peek().Text)
	}
}

func (c *Compiler) compileTerm() error {
	tok := c.peek()
	switch {
	case tok.Type == token.IntConst:
		v, err := c.advance()
		if err != nil {
			return err
		}
		c.out.WritePush(vmwriter.Constant, int(v.IntValue()))
		return nil
	case tok.Type == token.StringConst:
		v, err := c.advance()
		if err != nil {
			return err
		}
		c.out.WriteStringConstant(v.StringValue())
		return nil
	case tok.Type == token.Keyword:
		return c.compileKeywordConstant(tok)
	case tok.Is("("):
		if _, err := c.advance(); err != nil {
			return err
		}
		if err := c.compileExpression(); err != nil {
			return err
		}
		return c.expect(")")
	case tok.IsAny("-", "~", "^", "#"):
		if _, err := c.advance(); err != nil {
			return err
		}
		if err := c.compileTerm(); err != nil {
			return err
		}
		c.out.WriteArithmetic(unaryOps[tok.Text])
		return nil
	case tok.Type == token.Identifier:
		return c.compileIdentifierTerm()
	default:
		return c.fail("unexpected token %q in expression", tok.Text)
	}
}

func (c *Compiler) compileKeywordConstant(tok token.Token) error {
	if _, err := c.advance(); err != nil {
		return err
	}
	switch tok.Text {
	case "true":
		c.out.WritePush(vmwriter.Constant, 0)
		c.out.WriteArithmetic(vmwriter.Not)
	case "false", "null":
		c.out.WritePush(vmwriter.Constant, 0)
	case "this":
		c.out.WritePush(vmwriter.Pointer, 0)
	default:
		return c.fail("unexpected keyword %q in expression", tok.Text)
	}
	return nil
}

func (c *Compiler) compileIdentifierTerm() error {
	name, err := c.expectIdentifier()
	if err != nil {
		return err
	}
	switch {
	case c.peek().Is("["):
		if _, err := c.advance(); err != nil {
			return err
		}
		if err := c.compileExpression(); err != nil {
			return err
		}
		seg, idx, err := c.resolveVar(name)
		if err != nil {
			return err
		}
		c.out.WritePush(seg, idx)
		c.out.WriteArithmetic(vmwriter.Add)
		if err := c.expect("]"); err != nil {
			return err
		}
		c.out.WritePop(vmwriter.Pointer, 1)
		c.out.WritePush(vmwriter.That, 0)
		return nil
	case c.peek().IsAny("(", "."):
		return c.compileSubroutineCall(name)
	default:
		seg, idx, err := c.resolveVar(name)
		if err != nil {
			return err
		}
		c.out.WritePush(seg, idx)
		return nil
	}
}
