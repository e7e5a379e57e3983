// Package vmwriter emits the textual VM command vocabulary. It owns
// no state beyond the output stream; its purpose is to centralize the
// VM surface grammar so the compilation engine never writes raw
// strings.
package vmwriter

import (
	"bufio"
	"fmt"
	"io"
)

// Segment is a VM memory segment name.
type Segment string

const (
	Constant Segment = "constant"
	Local    Segment = "local"
	Argument Segment = "argument"
	This     Segment = "this"
	That     Segment = "that"
	Pointer  Segment = "pointer"
	Temp     Segment = "temp"
	Static   Segment = "static"
)

// Op is a VM arithmetic/logic command.
type Op string

const (
	Add        Op = "add"
	Sub        Op = "sub"
	Neg        Op = "neg"
	Eq         Op = "eq"
	Gt         Op = "gt"
	Lt         Op = "lt"
	And        Op = "and"
	Or         Op = "or"
	Not        Op = "not"
	ShiftLeft  Op = "shiftleft"
	ShiftRight Op = "shiftright"
)

// Writer emits one VM command per call.
type Writer struct {
	w *bufio.Writer
}

// New wraps w for buffered VM command output.
func New(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) line(format string, args ...any) {
	fmt.Fprintf(w.w, format+"\n", args...)
}

func (w *Writer) WritePush(seg Segment, index int) { w.line("push %s %d", seg, index) }
func (w *Writer) WritePop(seg Segment, index int)  { w.line("pop %s %d", seg, index) }

// WriteArithmetic emits a binary/unary arithmetic or logic op. Jack's
// '*' and '/' are not VM primitives: they lower to calls on the
// runtime Math library, handled by the caller before reaching here.
func (w *Writer) WriteArithmetic(op Op) { w.line("%s", op) }

func (w *Writer) WriteLabel(label string)                { w.line("label %s", label) }
func (w *Writer) WriteGoto(label string)                 { w.line("goto %s", label) }
func (w *Writer) WriteIf(label string)                   { w.line("if-goto %s", label) }
func (w *Writer) WriteCall(name string, nArgs int)       { w.line("call %s %d", name, nArgs) }
func (w *Writer) WriteFunction(name string, nLocals int) { w.line("function %s %d", name, nLocals) }
func (w *Writer) WriteReturn()                           { w.line("return") }

// WriteStringConstant lowers a Jack string literal to the canonical
// String.new/appendChar sequence, leaving the constructed object on
// top of the stack.
func (w *Writer) WriteStringConstant(s string) {
	w.WritePush(Constant, len(s))
	w.WriteCall("String.new", 1)
	for _, c := range s {
		w.WritePush(Constant, int(c))
		w.WriteCall("String.appendChar", 2)
	}
}

// Flush flushes any buffered output. Callers must call it before
// discarding the Writer or closing the underlying stream.
func (w *Writer) Flush() error { return w.w.Flush() }
