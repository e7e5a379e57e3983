package vmwriter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nogafriedman/nand2tetris/internal/vmwriter"
)

func TestWriter_PushPopArithmetic(t *testing.T) {
	var buf strings.Builder
	w := vmwriter.New(&buf)
	w.WritePush(vmwriter.Constant, 7)
	w.WritePush(vmwriter.Constant, 8)
	w.WriteArithmetic(vmwriter.Add)
	assert.NoError(t, w.Flush())
	assert.Equal(t, "push constant 7\npush constant 8\nadd\n", buf.String())
}

func TestWriter_Call(t *testing.T) {
	var buf strings.Builder
	w := vmwriter.New(&buf)
	w.WriteCall("Math.multiply", 2)
	assert.NoError(t, w.Flush())
	assert.Equal(t, "call Math.multiply 2\n", buf.String())
}

func TestWriter_StringConstant(t *testing.T) {
	var buf strings.Builder
	w := vmwriter.New(&buf)
	w.WriteStringConstant("Hi")
	assert.NoError(t, w.Flush())
	assert.Equal(t, "push constant 2\n"+
		"call String.new 1\n"+
		"push constant 72\n"+
		"call String.appendChar 2\n"+
		"push constant 105\n"+
		"call String.appendChar 2\n", buf.String())
}

func TestWriter_FunctionLabelGotoIf(t *testing.T) {
	var buf strings.Builder
	w := vmwriter.New(&buf)
	w.WriteFunction("Foo.bar", 2)
	w.WriteLabel("WHILE_EXP0")
	w.WriteGoto("WHILE_EXP0")
	w.WriteIf("WHILE_END0")
	w.WriteReturn()
	assert.NoError(t, w.Flush())
	assert.Equal(t, "function Foo.bar 2\n"+
		"label WHILE_EXP0\n"+
		"goto WHILE_EXP0\n"+
		"if-goto WHILE_END0\n"+
		"return\n", buf.String())
}
