// Package symtable tracks Jack identifiers across the two nested
// lexical scopes (class and subroutine), assigning each a kind-local
// index at definition time.
package symtable

import "fmt"

// Kind is a symbol's storage class. It determines the runtime VM
// segment the compilation engine lowers references to.
type Kind int

const (
	None Kind = iota
	Static
	Field
	Arg
	Var
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Field:
		return "field"
	case Arg:
		return "argument"
	case Var:
		return "var"
	default:
		return "none"
	}
}

// Symbol is a resolved identifier: its declared type, storage kind,
// and kind-local index.
type Symbol struct {
	Name string
	Type string // "int" | "char" | "boolean" | a class-name identifier
	Kind Kind
	Index int
}

// Table holds the class scope (STATIC/FIELD, lives one class
// compilation) and subroutine scope (ARG/VAR, reset at each
// subroutine). Resolution always tries subroutine scope before class
// scope, implemented as two explicit maps rather than one unified
// structure.
type Table struct {
	class      map[string]Symbol
	subroutine map[string]Symbol
	counts     map[Kind]int // class-scope counts; subroutine counts tracked separately
	subCounts  map[Kind]int
}

// New returns an empty table, ready for class compilation.
func New() *Table {
	return &Table{
		class:      make(map[string]Symbol),
		subroutine: make(map[string]Symbol),
		counts:     make(map[Kind]int),
		subCounts:  make(map[Kind]int),
	}
}

// StartClass clears class scope (STATIC/FIELD) for a new class
// compilation.
func (t *Table) StartClass() {
	t.class = make(map[string]Symbol)
	t.counts = make(map[Kind]int)
}

// StartSubroutine clears subroutine scope (ARG/VAR) and resets their
// running counters. Must be called before compiling each subroutine.
func (t *Table) StartSubroutine() {
	t.subroutine = make(map[string]Symbol)
	t.subCounts = make(map[Kind]int)
}

// Define allocates a fresh kind-local index and registers name in the
// scope implied by kind (class scope for Static/Field, subroutine
// scope for Arg/Var). Defining the same name twice in the scope that
// would hold it is a semantic error.
func (t *Table) Define(name, declType string, kind Kind) error {
	switch kind {
	case Static, Field:
		if _, dup := t.class[name]; dup {
			return fmt.Errorf("duplicate declaration of %q in class scope", name)
		}
		idx := t.counts[kind]
		t.counts[kind] = idx + 1
		t.class[name] = Symbol{Name: name, Type: declType, Kind: kind, Index: idx}
	case Arg, Var:
		if _, dup := t.subroutine[name]; dup {
			return fmt.Errorf("duplicate declaration of %q in subroutine scope", name)
		}
		idx := t.subCounts[kind]
		t.subCounts[kind] = idx + 1
		t.subroutine[name] = Symbol{Name: name, Type: declType, Kind: kind, Index: idx}
	default:
		return fmt.Errorf("cannot define %q with kind %s", name, kind)
	}
	return nil
}

// VarCount returns the number of symbols of kind defined so far in the
// scope that owns it.
func (t *Table) VarCount(kind Kind) int {
	switch kind {
	case Static, Field:
		return t.counts[kind]
	case Arg, Var:
		return t.subCounts[kind]
	default:
		return 0
	}
}

// Lookup resolves name, trying subroutine scope first, then class
// scope. The zero Symbol and false are returned if name is undefined.
func (t *Table) Lookup(name string) (Symbol, bool) {
	if s, ok := t.subroutine[name]; ok {
		return s, true
	}
	if s, ok := t.class[name]; ok {
		return s, true
	}
	return Symbol{}, false
}

// KindOf, TypeOf and IndexOf are convenience projections of Lookup,
// each following the same subroutine-then-class resolution order.
func (t *Table) KindOf(name string) Kind {
	s, ok := t.Lookup(name)
	if !ok {
		return None
	}
	return s.Kind
}

func (t *Table) TypeOf(name string) (string, bool) {
	s, ok := t.Lookup(name)
	return s.Type, ok
}

func (t *Table) IndexOf(name string) (int, bool) {
	s, ok := t.Lookup(name)
	return s.Index, ok
}
