package lexer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nogafriedman/nand2tetris/internal/lexer"
	"github.com/nogafriedman/nand2tetris/internal/token"
)

func tokens(t *testing.T, src string) []token.Token {
	t.Helper()
	l, err := lexer.New(strings.NewReader(src), "test.jack")
	require.NoError(t, err)

	var out []token.Token
	for !l.AtEOF() {
		require.NoError(t, l.Err())
		out = append(out, l.Peek())
		_, err := l.Advance()
		require.NoError(t, err)
	}
	require.NoError(t, l.Err())
	return out
}

func TestLexer_BasicTokens(t *testing.T) {
	got := tokens(t, `class Foo { field int x; }`)
	want := []token.Token{
		{Type: token.Keyword, Text: "class"},
		{Type: token.Identifier, Text: "Foo"},
		{Type: token.Symbol, Text: "{"},
		{Type: token.Keyword, Text: "field"},
		{Type: token.Keyword, Text: "int"},
		{Type: token.Identifier, Text: "x"},
		{Type: token.Symbol, Text: ";"},
		{Type: token.Symbol, Text: "}"},
	}
	assert.Equal(t, want, got)
}

func TestLexer_StripsLineComments(t *testing.T) {
	got := tokens(t, "let x = 1; // trailing comment\nlet y = 2;")
	assert.Len(t, got, 10)
}

func TestLexer_StripsBlockAndAPIComments(t *testing.T) {
	got := tokens(t, "/** API doc\n * spanning lines\n */\nlet x = 1;\n/* plain */let y=2;")
	assert.Len(t, got, 10)
}

func TestLexer_StringContentNotTreatedAsComment(t *testing.T) {
	got := tokens(t, `let s = "http://example.com/* not a comment */";`)
	require.Len(t, got, 5)
	assert.Equal(t, token.StringConst, got[3].Type)
	assert.Equal(t, "http://example.com/* not a comment */", got[3].Text)
}

func TestLexer_UnterminatedStringIsError(t *testing.T) {
	l, err := lexer.New(strings.NewReader(`"unterminated`), "test.jack")
	require.NoError(t, err)
	assert.Error(t, l.Err())
}

func TestLexer_IntConstOutOfRange(t *testing.T) {
	l, err := lexer.New(strings.NewReader("32768"), "test.jack")
	require.NoError(t, err)
	assert.Error(t, l.Err())
}

func TestLexer_IntConstMaxIsValid(t *testing.T) {
	got := tokens(t, "32767")
	require.Len(t, got, 1)
	assert.EqualValues(t, 32767, got[0].IntValue())
}

func TestLexer_KeywordNotPrefixOfIdentifier(t *testing.T) {
	got := tokens(t, "classroom")
	require.Len(t, got, 1)
	assert.Equal(t, token.Identifier, got[0].Type)
	assert.Equal(t, "classroom", got[0].IdentifierText())
}

func TestLexer_UnterminatedBlockComment(t *testing.T) {
	l, err := lexer.New(strings.NewReader("/* never closed"), "test.jack")
	require.NoError(t, err)
	assert.Error(t, l.Err())
}

func TestLexer_ShiftOperatorSymbols(t *testing.T) {
	got := tokens(t, "^ #")
	require.Len(t, got, 2)
	assert.Equal(t, byte('^'), got[0].SymbolChar())
	assert.Equal(t, byte('#'), got[1].SymbolChar())
}

func TestDumpXML_EscapesReservedCharacters(t *testing.T) {
	var buf strings.Builder
	err := lexer.DumpXML(&buf, strings.NewReader(`if (x < 1 & y > 2) {}`), "test.jack")
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "<symbol> &lt; </symbol>")
	assert.Contains(t, out, "<symbol> &gt; </symbol>")
	assert.Contains(t, out, "<symbol> &amp; </symbol>")
}
