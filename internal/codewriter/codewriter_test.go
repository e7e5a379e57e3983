package codewriter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nogafriedman/nand2tetris/internal/codewriter"
	"github.com/nogafriedman/nand2tetris/internal/vmlang"
)

func emit(t *testing.T, file string, cmds ...vmlang.Command) string {
	t.Helper()
	var buf strings.Builder
	w := codewriter.New(&buf)
	w.SetFile(file)
	for _, c := range cmds {
		require.NoError(t, w.Write(c))
	}
	require.NoError(t, w.Flush())
	return buf.String()
}

func TestWriter_PushConstant(t *testing.T) {
	got := emit(t, "Foo", vmlang.Command{Kind: vmlang.Push, Segment: vmlang.SegConstant, Index: 17})
	assert.Equal(t, "@17\nD=A\n@SP\nA=M\nM=D\n@SP\nM=M+1\n", got)
}

func TestWriter_PushPopLocal(t *testing.T) {
	got := emit(t, "Foo",
		vmlang.Command{Kind: vmlang.Push, Segment: vmlang.SegLocal, Index: 2},
		vmlang.Command{Kind: vmlang.Pop, Segment: vmlang.SegLocal, Index: 3})
	assert.Contains(t, got, "@LCL\nA=M+D\nD=M\n")
	assert.Contains(t, got, "@LCL\nA=M\nD=A+D\n")
}

func TestWriter_StaticIsScopedToFile(t *testing.T) {
	got := emit(t, "Foo", vmlang.Command{Kind: vmlang.Push, Segment: vmlang.SegStatic, Index: 3})
	assert.Contains(t, got, "@Foo.3\n")
}

func TestWriter_PointerAndTemp(t *testing.T) {
	got := emit(t, "Foo",
		vmlang.Command{Kind: vmlang.Push, Segment: vmlang.SegPointer, Index: 0},
		vmlang.Command{Kind: vmlang.Push, Segment: vmlang.SegTemp, Index: 2})
	assert.Contains(t, got, "@3\nA=A+D\n")
	assert.Contains(t, got, "@5\nA=A+D\n")
}

func TestWriter_ArithmeticBinary(t *testing.T) {
	got := emit(t, "Foo", vmlang.Command{Kind: vmlang.Arithmetic, Op: vmlang.OpAdd})
	assert.Equal(t, "@SP\nM=M-1\nA=M\nD=M\n@SP\nM=M-1\nA=M\nM=M+D\n@SP\nM=M+1\n", got)
}

func TestWriter_ArithmeticUnary(t *testing.T) {
	got := emit(t, "Foo", vmlang.Command{Kind: vmlang.Arithmetic, Op: vmlang.OpNeg})
	assert.Equal(t, "@SP\nM=M-1\nA=M\nM=-M\n@SP\nM=M+1\n", got)
}

func TestWriter_ShiftOps(t *testing.T) {
	got := emit(t, "Foo", vmlang.Command{Kind: vmlang.Arithmetic, Op: vmlang.OpShiftLeft})
	assert.Contains(t, got, "M=M<<\n")
}

// TestWriter_ComparisonNeverSubtractsAcrossSigns verifies the eq/gt/lt
// translation branches on operand sign before subtracting, since a
// naive D=M-D can overflow when the operands have different signs.
func TestWriter_ComparisonNeverSubtractsAcrossSigns(t *testing.T) {
	got := emit(t, "Foo", vmlang.Command{Kind: vmlang.Arithmetic, Op: vmlang.OpLt})
	assert.Contains(t, got, "(FIRST_POS1)")
	assert.Contains(t, got, "(SECOND_POS1)")
	assert.Contains(t, got, "(SECOND_NEG1)")
	assert.Contains(t, got, "(COMPARE1)")
	assert.Contains(t, got, "D;JLT\n")
	// differing-sign branches resolve without a D=D-M subtraction
	assert.Contains(t, got, "(SECOND_POS1)\nD=1\n")
	assert.Contains(t, got, "(SECOND_NEG1)\nD=-1\n")
}

func TestWriter_ComparisonLabelsAreUniquePerCall(t *testing.T) {
	got := emit(t, "Foo",
		vmlang.Command{Kind: vmlang.Arithmetic, Op: vmlang.OpEq},
		vmlang.Command{Kind: vmlang.Arithmetic, Op: vmlang.OpEq})
	assert.Contains(t, got, "(COMPARE1)")
	assert.Contains(t, got, "(COMPARE2)")
}

func TestWriter_LabelsAreScopedToCurrentFunction(t *testing.T) {
	got := emit(t, "Foo",
		vmlang.Command{Kind: vmlang.Function, Name: "Foo.bar", N: 0},
		vmlang.Command{Kind: vmlang.Label, Name: "LOOP"},
		vmlang.Command{Kind: vmlang.Goto, Name: "LOOP"},
		vmlang.Command{Kind: vmlang.IfGoto, Name: "LOOP"})
	assert.Contains(t, got, "(Foo.bar$LOOP)")
	assert.Contains(t, got, "@Foo.bar$LOOP\n0;JMP\n")
	assert.Contains(t, got, "@Foo.bar$LOOP\nD;JNE\n")
}

func TestWriter_FunctionZeroInitializesLocals(t *testing.T) {
	got := emit(t, "Foo", vmlang.Command{Kind: vmlang.Function, Name: "Foo.bar", N: 2})
	assert.Equal(t, 2, strings.Count(got, "@0\nD=A\n@SP\nA=M\nM=D\n@SP\nM=M+1\n"))
}

func TestWriter_CallPushesReturnAddressAndSavedSegments(t *testing.T) {
	got := emit(t, "Foo", vmlang.Command{Kind: vmlang.Call, Name: "Math.multiply", N: 2})
	assert.Contains(t, got, "@Math.multiply$ret.1\n")
	assert.Contains(t, got, "@LCL\nD=M\n")
	assert.Contains(t, got, "@ARG\nD=M\n")
	assert.Contains(t, got, "@THIS\nD=M\n")
	assert.Contains(t, got, "@THAT\nD=M\n")
	assert.Contains(t, got, "@Math.multiply\n0;JMP\n")
	assert.Contains(t, got, "(Math.multiply$ret.1)")
}

func TestWriter_CallReturnLabelsAreUniquePerSite(t *testing.T) {
	got := emit(t, "Foo",
		vmlang.Command{Kind: vmlang.Call, Name: "Foo.bar", N: 0},
		vmlang.Command{Kind: vmlang.Call, Name: "Foo.bar", N: 0})
	assert.Contains(t, got, "(Foo.bar$ret.1)")
	assert.Contains(t, got, "(Foo.bar$ret.2)")
}

// TestWriter_ReturnCapturesAddressBeforeTeardown verifies the mandated
// R13/R14 ordering: the return address must be read out of the
// caller's frame into R14 before ARG/LCL/THIS/THAT are overwritten,
// since with 0 arguments the return value written to *ARG otherwise
// clobbers it first.
func TestWriter_ReturnCapturesAddressBeforeTeardown(t *testing.T) {
	got := emit(t, "Foo", vmlang.Command{Kind: vmlang.Return})
	r13 := strings.Index(got, "@R13\nM=D\n")
	r14 := strings.Index(got, "@R14\nM=D\n")
	argWrite := strings.Index(got, "@ARG\nA=M\nM=D\n")
	require.True(t, r13 >= 0 && r14 >= 0 && argWrite >= 0)
	assert.Less(t, r13, r14)
	assert.Less(t, r14, argWrite)
	assert.True(t, strings.HasSuffix(got, "@R14\nA=M\n0;JMP\n"))
}

func TestWriter_Bootstrap(t *testing.T) {
	var buf strings.Builder
	w := codewriter.New(&buf)
	w.WriteBootstrap()
	require.NoError(t, w.Flush())
	got := buf.String()
	assert.True(t, strings.HasPrefix(got, "@256\nD=A\n@SP\nM=D\n"))
	assert.Contains(t, got, "@Sys.init\n0;JMP\n")
}
