// Package codewriter translates parsed VM commands into Hack assembly
// text.
package codewriter

import (
	"bufio"
	"fmt"
	"io"

	"github.com/nogafriedman/nand2tetris/internal/vmlang"
)

var ram0to4 = map[vmlang.Segment]string{
	vmlang.SegLocal:    "LCL",
	vmlang.SegArgument: "ARG",
	vmlang.SegThis:     "THIS",
	vmlang.SegThat:     "THAT",
}

var fixedBase = map[vmlang.Segment]int{
	vmlang.SegPointer: 3,
	vmlang.SegTemp:    5,
}

// Writer accumulates Hack assembly for a sequence of VM commands drawn
// from one or more source files.
type Writer struct {
	out             *bufio.Writer
	file            string // current VM source file's base name, for static variables
	labelCounter    int    // comparison-operator label uniqueness
	callCounter     int    // call-site return-address label uniqueness
	currentFunction string // for label/goto/if-goto scoping
}

// New returns a Writer that emits assembly to w.
func New(w io.Writer) *Writer {
	return &Writer{out: bufio.NewWriter(w)}
}

// SetFile tells the writer that translation of a new VM source file is
// starting; it scopes subsequent "static" segment accesses.
func (w *Writer) SetFile(name string) {
	w.file = name
}

func (w *Writer) line(format string, args ...any) {
	fmt.Fprintf(w.out, format, args...)
	w.out.WriteByte('\n')
}

// Flush writes any buffered assembly to the underlying writer.
func (w *Writer) Flush() error {
	return w.out.Flush()
}

// WriteBootstrap emits the preamble that sets SP to 256 and calls
// Sys.init. Callers translating a single file with no Sys.init should
// not call this.
func (w *Writer) WriteBootstrap() {
	w.line("@256")
	w.line("D=A")
	w.line("@SP")
	w.line("M=D")
	w.WriteCall("Sys.init", 0)
}

// Write translates a single VM command, dispatching on its Kind.
func (w *Writer) Write(cmd vmlang.Command) error {
	switch cmd.Kind {
	case vmlang.Arithmetic:
		return w.writeArithmetic(cmd.Op)
	case vmlang.Push:
		return w.WritePush(cmd.Segment, cmd.Index)
	case vmlang.Pop:
		return w.WritePop(cmd.Segment, cmd.Index)
	case vmlang.Label:
		w.WriteLabel(cmd.Name)
	case vmlang.Goto:
		w.WriteGoto(cmd.Name)
	case vmlang.IfGoto:
		w.WriteIf(cmd.Name)
	case vmlang.Function:
		w.WriteFunction(cmd.Name, cmd.N)
	case vmlang.Call:
		w.WriteCall(cmd.Name, cmd.N)
	case vmlang.Return:
		w.WriteReturn()
	default:
		return fmt.Errorf("codewriter: unhandled command kind %v", cmd.Kind)
	}
	return nil
}

func (w *Writer) writeArithmetic(op vmlang.Op) error {
	switch op {
	case vmlang.OpAdd:
		w.binary("+")
	case vmlang.OpSub:
		w.binary("-")
	case vmlang.OpAnd:
		w.binary("&")
	case vmlang.OpOr:
		w.binary("|")
	case vmlang.OpNeg:
		w.unary("-")
	case vmlang.OpNot:
		w.unary("!")
	case vmlang.OpShiftLeft:
		w.shift("<<")
	case vmlang.OpShiftRight:
		w.shift(">>")
	case vmlang.OpEq:
		w.comparison("JEQ")
	case vmlang.OpGt:
		w.comparison("JGT")
	case vmlang.OpLt:
		w.comparison("JLT")
	default:
		return fmt.Errorf("codewriter: unknown arithmetic op %q", op)
	}
	return nil
}

// binary pops two values, applies op as M=M<op>D, pushes the result.
func (w *Writer) binary(op string) {
	w.popToD()
	w.line("@SP")
	w.line("M=M-1")
	w.line("A=M")
	w.line("M=M" + op + "D")
	w.line("@SP")
	w.line("M=M+1")
}

func (w *Writer) unary(op string) {
	w.line("@SP")
	w.line("M=M-1")
	w.line("A=M")
	w.line("M=" + op + "M")
	w.line("@SP")
	w.line("M=M+1")
}

func (w *Writer) shift(op string) {
	w.line("@SP")
	w.line("M=M-1")
	w.line("A=M")
	w.line("M=M" + op)
	w.line("@SP")
	w.line("M=M+1")
}

// comparison performs an overflow-safe eq/gt/lt by first checking the
// signs of the two operands, only subtracting when they agree in
// sign. Subtracting two Hack 16-bit values of differing sign can
// itself overflow, so the differing-sign cases are resolved directly
// from the signs instead.
func (w *Writer) comparison(jump string) {
	w.labelCounter++
	n := w.labelCounter
	firstPos := fmt.Sprintf("FIRST_POS%d", n)
	secondPos := fmt.Sprintf("SECOND_POS%d", n)
	secondNeg := fmt.Sprintf("SECOND_NEG%d", n)
	compare := fmt.Sprintf("COMPARE%d", n)
	isTrue := fmt.Sprintf("TRUE%d", n)
	end := fmt.Sprintf("END%d", n)

	w.popToD() // first operand (top of stack, pushed last) in D
	w.line("@R13")
	w.line("M=D")

	w.line("@" + firstPos)
	w.line("D;JGE")

	w.popToD() // second operand
	w.line("@" + secondPos)
	w.line("D;JGE")

	// both negative: safe to subtract
	w.line("@R13")
	w.line("D=D-M")
	w.line("@" + compare)
	w.line("0;JMP")

	w.line("(" + firstPos + ")")
	w.popToD() // second operand
	w.line("@" + secondNeg)
	w.line("D;JLT")

	// both non-negative: safe to subtract
	w.line("@R13")
	w.line("D=D-M")
	w.line("@" + compare)
	w.line("0;JMP")

	w.line("(" + secondPos + ")")
	w.line("D=1") // first negative, second non-negative: first < second
	w.line("@" + compare)
	w.line("0;JMP")

	w.line("(" + secondNeg + ")")
	w.line("D=-1") // first non-negative, second negative: first > second
	w.line("@" + compare)
	w.line("0;JMP")

	w.line("(" + compare + ")")
	w.line("@" + isTrue)
	w.line("D;" + jump)

	w.line("D=0")
	w.line("@" + end)
	w.line("0;JMP")

	w.line("(" + isTrue + ")")
	w.line("D=-1")
	w.line("@" + end)
	w.line("0;JMP")

	w.line("(" + end + ")")
	w.line("@SP")
	w.line("A=M")
	w.line("M=D")
	w.line("@SP")
	w.line("M=M+1")
}

// popToD pops the top stack value into D, leaving SP decremented.
func (w *Writer) popToD() {
	w.line("@SP")
	w.line("M=M-1")
	w.line("A=M")
	w.line("D=M")
}

func (w *Writer) pushD() {
	w.line("@SP")
	w.line("A=M")
	w.line("M=D")
	w.line("@SP")
	w.line("M=M+1")
}

// WritePush emits assembly for a push command.
func (w *Writer) WritePush(segment vmlang.Segment, index int) error {
	switch {
	case segment == vmlang.SegConstant:
		w.line("@%d", index)
		w.line("D=A")
	case ram0to4[segment] != "":
		w.line("@%d", index)
		w.line("D=A")
		w.line("@" + ram0to4[segment])
		w.line("A=M+D")
		w.line("D=M")
	case segment == vmlang.SegTemp || segment == vmlang.SegPointer:
		w.line("@%d", index)
		w.line("D=A")
		w.line("@%d", fixedBase[segment])
		w.line("A=A+D")
		w.line("D=M")
	case segment == vmlang.SegStatic:
		w.line("@%s.%d", w.file, index)
		w.line("D=M")
	default:
		return fmt.Errorf("codewriter: unknown push segment %q", segment)
	}
	w.pushD()
	return nil
}

// WritePop emits assembly for a pop command.
func (w *Writer) WritePop(segment vmlang.Segment, index int) error {
	if segment == vmlang.SegStatic {
		w.popToD()
		w.line("@%s.%d", w.file, index)
		w.line("M=D")
		return nil
	}

	base, ok := fixedBase[segment]
	if !ok {
		name, ok2 := ram0to4[segment]
		if !ok2 {
			return fmt.Errorf("codewriter: unknown pop segment %q", segment)
		}
		w.line("@%d", index)
		w.line("D=A")
		w.line("@" + name)
		w.line("A=M")
		w.line("D=A+D")
	} else {
		w.line("@%d", index)
		w.line("D=A")
		w.line("@%d", base)
		w.line("D=A+D")
	}
	w.line("@R13")
	w.line("M=D")
	w.popToD()
	w.line("@R13")
	w.line("A=M")
	w.line("M=D")
	return nil
}

// WriteLabel emits a function-scoped label definition.
func (w *Writer) WriteLabel(name string) {
	w.line("(%s$%s)", w.currentFunction, name)
}

// WriteGoto emits an unconditional jump to a function-scoped label.
func (w *Writer) WriteGoto(name string) {
	w.line("@%s$%s", w.currentFunction, name)
	w.line("0;JMP")
}

// WriteIf pops the top stack value and jumps to a function-scoped
// label if it is non-zero.
func (w *Writer) WriteIf(name string) {
	w.popToD()
	w.line("@%s$%s", w.currentFunction, name)
	w.line("D;JNE")
}

// WriteFunction emits a function entry point and zero-initializes its
// local variables.
func (w *Writer) WriteFunction(name string, nVars int) {
	w.currentFunction = name
	w.line("(%s)", name)
	for i := 0; i < nVars; i++ {
		w.WritePush(vmlang.SegConstant, 0)
	}
}

// WriteCall emits the Hack calling-convention prologue: push the
// return address and the caller's segment pointers, reposition ARG
// and LCL, then jump to the callee.
func (w *Writer) WriteCall(name string, nArgs int) {
	w.callCounter++
	returnLabel := fmt.Sprintf("%s$ret.%d", name, w.callCounter)

	w.line("@" + returnLabel)
	w.line("D=A")
	w.pushD()

	for _, seg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		w.line("@" + seg)
		w.line("D=M")
		w.pushD()
	}

	w.line("@5")
	w.line("D=A")
	w.line("@%d", nArgs)
	w.line("D=D+A")
	w.line("@SP")
	w.line("D=M-D")
	w.line("@ARG")
	w.line("M=D")

	w.line("@SP")
	w.line("D=M")
	w.line("@LCL")
	w.line("M=D")

	w.line("@" + name)
	w.line("0;JMP")

	w.line("(" + returnLabel + ")")
}

// WriteReturn emits the Hack calling-convention epilogue. The return
// address is captured into R14 before ARG/LCL/THIS/THAT are torn
// down, since with 0 arguments *ARG is the saved return-address slot
// and writing the return value there overwrites it.
func (w *Writer) WriteReturn() {
	w.line("@LCL")
	w.line("D=M")
	w.line("@R13") // R13 = frame base (LCL)
	w.line("M=D")

	w.line("@5")
	w.line("A=D-A")
	w.line("D=M")
	w.line("@R14") // R14 = return address, captured before teardown
	w.line("M=D")

	w.popToD()
	w.line("@ARG")
	w.line("A=M")
	w.line("M=D") // *ARG = return value

	w.line("@ARG")
	w.line("D=M+1")
	w.line("@SP")
	w.line("M=D") // SP = ARG+1

	for _, seg := range []string{"THAT", "THIS", "ARG", "LCL"} {
		w.line("@R13")
		w.line("AM=M-1")
		w.line("D=M")
		w.line("@" + seg)
		w.line("M=D")
	}

	w.line("@R14")
	w.line("A=M")
	w.line("0;JMP")
}
