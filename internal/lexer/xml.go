package lexer

import (
	"fmt"
	"io"
	"strings"

	"github.com/nogafriedman/nand2tetris/internal/token"
)

// escape applies the XML-escape discipline used only by this
// diagnostic serializer. The compilation engine never escapes symbols
// before comparing them; this table is confined here, resolving the
// source inconsistency flagged in the design notes.
func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// DumpXML re-tokenizes src and writes one escaped-XML line per token,
// matching the nand2tetris tokenizer grading fixture: "<keyword> class
// </keyword>", "<symbol> &lt; </symbol>", and so on. It has no effect
// on, and is never consulted by, the compilation engine.
func DumpXML(w io.Writer, src io.Reader, filename string) error {
	l, err := New(src, filename)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "<tokens>\n"); err != nil {
		return err
	}
	for !l.AtEOF() {
		if l.Err() != nil {
			return l.Err()
		}
		tok := l.Peek()
		var text string
		switch tok.Type {
		case token.Keyword:
			text = tok.KeywordText()
		case token.Symbol:
			text = string(tok.SymbolChar())
		case token.IntConst:
			text = fmt.Sprintf("%d", tok.IntValue())
		case token.StringConst:
			text = tok.StringValue()
		case token.Identifier:
			text = tok.IdentifierText()
		}
		if _, err := fmt.Fprintf(w, "<%s> %s </%s>\n", tok.Type, escape(text), tok.Type); err != nil {
			return err
		}
		if _, err := l.Advance(); err != nil {
			return err
		}
	}
	if l.Err() != nil {
		return l.Err()
	}
	_, err = io.WriteString(w, "</tokens>\n")
	return err
}
