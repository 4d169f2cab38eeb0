// Package symtab implements the assembler's symbol table: name -> address
// bindings built during pass 1, plus the start/end/location-counter state
// that both passes thread through the source. Grounded on the reference's
// sic.h/sic.c symbol_table.
package symtab

import (
	"unicode"

	"github.com/houmank/sicassembler/hashtable"
)

const (
	// MemoryLimit is the highest addressable byte in a SIC program.
	MemoryLimit = 0x7FFF
	// IntegerMax is the largest (and, negated, the most negative) value a
	// decimal or hex constant operand may hold.
	IntegerMax = 0x7FFFFF
	// WordBytes is the size in bytes of a SIC machine word.
	WordBytes = 3
	// MaxSymbolLen is the longest symbol name SIC allows.
	MaxSymbolLen = 6
)

// ValidateSymbolName checks name against the SIC symbol rules: at most
// MaxSymbolLen characters, first character an uppercase letter, remaining
// characters uppercase letters or digits. The checks run in that order,
// matching the reference's sanitizedSymbol.
func ValidateSymbolName(name string) error {
	if len(name) == 0 || len(name) > MaxSymbolLen {
		return &SymbolError{Kind: ExceededMaxLen, Name: name}
	}
	first := rune(name[0])
	if !unicode.IsUpper(first) || !unicode.IsLetter(first) {
		return &SymbolError{Kind: FirstCharNotValid, Name: name}
	}
	for _, r := range name[1:] {
		if !((unicode.IsUpper(r) && unicode.IsLetter(r)) || unicode.IsDigit(r)) {
			return &SymbolError{Kind: ContainsInvalidChars, Name: name}
		}
	}
	return nil
}

// Table holds the symbol -> address bindings for one source file, plus the
// start address, end address, and running location counter that pass 1
// maintains and pass 2 reads (pass 2 keeps its own emitter-side counter).
type Table struct {
	StartAddress Addr
	EndAddress   Addr
	LocCounter   uint32

	symbols *hashtable.Table[uint32]
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{
		StartAddress: UnsetAddr(),
		EndAddress:   UnsetAddr(),
		symbols:      hashtable.New[uint32](0),
	}
}

// Define validates name and binds it to addr. Returns a *SymbolError if the
// name is invalid, or hashtable.ErrDuplicateKey if the name is already
// bound.
func (t *Table) Define(name string, addr uint32) error {
	if err := ValidateSymbolName(name); err != nil {
		return err
	}
	return t.symbols.Insert(name, addr)
}

// Lookup returns the address bound to name, and whether it was found.
func (t *Table) Lookup(name string) (uint32, bool) {
	return t.symbols.Lookup(name)
}

// Len returns the number of defined symbols.
func (t *Table) Len() int {
	return t.symbols.Len()
}

// Names returns every defined symbol name, in no particular order.
func (t *Table) Names() []string {
	return t.symbols.Keys()
}
