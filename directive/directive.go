// Package directive implements the SIC assembler directives (START, END,
// BYTE, WORD, RESB, RESW, RESR, EXPORTS). Each directive is a plain
// function value registered in a name -> Handler table; the reference's C
// implementation wrapped function pointers in a struct to work around the
// language's lack of a native function-value type, a workaround Go does not
// need. Grounded on the reference's directive.h/directive.c.
package directive

import (
	"strconv"
	"strings"

	"github.com/houmank/sicassembler/symtab"
)

// Names of the directives this assembler recognizes. The reference's table
// spells the export directive "EXORTS"; that was a typo in the original,
// not a format requirement, so this table uses the correct spelling.
const (
	Start   = "START"
	End     = "END"
	Byte    = "BYTE"
	Word    = "WORD"
	Resb    = "RESB"
	Resw    = "RESW"
	Resr    = "RESR"
	Exports = "EXPORTS"
)

// Handler applies one directive's operand to the symbol table, advancing
// its location counter and start/end state as needed. rest is the trimmed
// remainder of the source line following the directive mnemonic; it may be
// empty (END takes no operand in its first use).
type Handler func(tab *symtab.Table, name string, rest string) error

// Table maps directive name -> Handler.
type Table struct {
	handlers map[string]Handler
}

// New returns a directive table with all eight SIC directives registered.
func New() *Table {
	return &Table{handlers: map[string]Handler{
		Start:   startHandler,
		End:     endHandler,
		Byte:    byteHandler,
		Word:    wordHandler,
		Resb:    resbHandler,
		Resw:    reswHandler,
		Resr:    notImplementedHandler,
		Exports: notImplementedHandler,
	}}
}

// Lookup returns the handler registered for name, and whether one exists.
func (t *Table) Lookup(name string) (Handler, bool) {
	h, ok := t.handlers[name]
	return h, ok
}

// IsDirective reports whether name is a recognized directive.
func (t *Table) IsDirective(name string) bool {
	_, ok := t.handlers[name]
	return ok
}

// stripTrailingComment truncates fields at the first token beginning with
// "#": the reference's checkComment stops counting operands as soon as it
// sees a comment token, regardless of anything further in the line.
func stripTrailingComment(fields []string) []string {
	for i, f := range fields {
		if strings.HasPrefix(f, "#") {
			return fields[:i]
		}
	}
	return fields
}

func singleOperand(name, rest string) (string, error) {
	fields := stripTrailingComment(strings.Fields(rest))
	switch {
	case len(fields) == 0:
		return "", &CallbackError{Kind: NotEnoughOperands, Directive: name}
	case len(fields) > 1:
		return "", &CallbackError{Kind: TooManyOperands, Directive: name, Operand: rest}
	default:
		return fields[0], nil
	}
}

func checkMemoryLimit(name, operand string, locCounter uint32) error {
	if locCounter > symtab.MemoryLimit {
		return &CallbackError{Kind: MemoryViolation, Directive: name, Operand: operand}
	}
	return nil
}

func requireStart(tab *symtab.Table, name string) error {
	if !tab.StartAddress.IsResolved() {
		return &CallbackError{Kind: StartNotDefined, Directive: name}
	}
	return nil
}

func startHandler(tab *symtab.Table, name, rest string) error {
	operand, err := singleOperand(name, rest)
	if err != nil {
		return err
	}
	if tab.StartAddress.IsResolved() {
		return &CallbackError{Kind: StartDefinedTwice, Directive: name, Operand: operand}
	}
	v, err := strconv.ParseUint(operand, 16, 32)
	if err != nil {
		return &CallbackError{Kind: ConversionError, Directive: name, Operand: operand}
	}
	if v > symtab.MemoryLimit {
		return &CallbackError{Kind: MemoryViolation, Directive: name, Operand: operand}
	}
	tab.StartAddress = symtab.ResolvedAddr(uint32(v))
	tab.LocCounter = uint32(v)
	return nil
}

func endHandler(tab *symtab.Table, name, rest string) error {
	if err := requireStart(tab, name); err != nil {
		return err
	}
	fields := stripTrailingComment(strings.Fields(rest))
	if len(fields) == 0 {
		if tab.EndAddress.IsSeen() || tab.EndAddress.IsResolved() {
			return &CallbackError{Kind: EndDefinedTwice, Directive: name}
		}
		tab.EndAddress = symtab.SeenAddr()
		return nil
	}
	if len(fields) > 1 {
		return &CallbackError{Kind: TooManyOperands, Directive: name, Operand: rest}
	}
	operand := fields[0]
	if tab.EndAddress.IsResolved() {
		return &CallbackError{Kind: EndDefinedTwice, Directive: name, Operand: operand}
	}
	if tab.EndAddress.IsSeen() {
		return &CallbackError{Kind: EndSeen, Directive: name, Operand: operand}
	}
	addr, ok := tab.Lookup(operand)
	if !ok {
		return &CallbackError{Kind: EndSymbolNotFound, Directive: name, Operand: operand}
	}
	tab.EndAddress = symtab.ResolvedAddr(addr)
	return nil
}

// DecodeBytes parses a BYTE operand of the form C'...' or X'...' into the
// raw bytes it represents: the character bytes of a C constant, or the
// decoded bytes of a X hex constant. A trailing "#..." comment after the
// closing quote is ignored, the way the reference's checkComment lets a
// comment trail the quoted constant without counting as another operand.
// Exported so pass 2 can recover the actual object code after pass 1 has
// already validated the operand.
func DecodeBytes(name, rest string) ([]byte, error) {
	if rest == "" {
		return nil, &CallbackError{Kind: NotEnoughOperands, Directive: name}
	}
	if len(rest) < 3 || rest[1] != '\'' || (rest[0] != 'C' && rest[0] != 'X') {
		return nil, &CallbackError{Kind: BadOperandFormat, Directive: name, Operand: rest}
	}
	closeIdx := strings.IndexByte(rest[2:], '\'')
	if closeIdx < 0 {
		return nil, &CallbackError{Kind: BadOperandFormat, Directive: name, Operand: rest}
	}
	content := rest[2 : 2+closeIdx]
	if trailing := strings.TrimSpace(rest[2+closeIdx+1:]); trailing != "" && !strings.HasPrefix(trailing, "#") {
		return nil, &CallbackError{Kind: BadOperandFormat, Directive: name, Operand: rest}
	}

	switch rest[0] {
	case 'C':
		return []byte(content), nil
	default: // 'X'
		if len(content)%2 != 0 {
			return nil, &CallbackError{Kind: OddHexLength, Directive: name, Operand: rest}
		}
		data := make([]byte, len(content)/2)
		for i := range data {
			v, err := strconv.ParseUint(content[i*2:i*2+2], 16, 8)
			if err != nil {
				return nil, &CallbackError{Kind: BadHexConstant, Directive: name, Operand: rest}
			}
			data[i] = byte(v)
		}
		return data, nil
	}
}

// byteHandler parses a BYTE operand of the form C'...' or X'...'. Unlike
// the other directives it is not tokenized on whitespace first: a
// character constant may itself contain spaces (C'HELLO WORLD'), so rest
// is consumed whole.
func byteHandler(tab *symtab.Table, name, rest string) error {
	if err := requireStart(tab, name); err != nil {
		return err
	}
	data, err := DecodeBytes(name, rest)
	if err != nil {
		return err
	}
	n := uint32(len(data))
	if err := checkMemoryLimit(name, rest, tab.LocCounter+n); err != nil {
		return err
	}
	tab.LocCounter += n
	return nil
}

func wordHandler(tab *symtab.Table, name, rest string) error {
	if err := requireStart(tab, name); err != nil {
		return err
	}
	operand, err := singleOperand(name, rest)
	if err != nil {
		return err
	}
	v, err := strconv.ParseInt(operand, 10, 64)
	if err != nil {
		return &CallbackError{Kind: ConversionError, Directive: name, Operand: operand}
	}
	if v > symtab.IntegerMax {
		return &CallbackError{Kind: IntegerOverflow, Directive: name, Operand: operand}
	}
	if v < -symtab.IntegerMax {
		return &CallbackError{Kind: IntegerUnderflow, Directive: name, Operand: operand}
	}
	if err := checkMemoryLimit(name, operand, tab.LocCounter+symtab.WordBytes); err != nil {
		return err
	}
	tab.LocCounter += symtab.WordBytes
	return nil
}

func reserveHandler(unitSize uint32) Handler {
	return func(tab *symtab.Table, name, rest string) error {
		if err := requireStart(tab, name); err != nil {
			return err
		}
		operand, err := singleOperand(name, rest)
		if err != nil {
			return err
		}
		v, err := strconv.ParseInt(operand, 10, 64)
		if err != nil {
			return &CallbackError{Kind: ConversionError, Directive: name, Operand: operand}
		}
		if v < 0 {
			return &CallbackError{Kind: OperandNegative, Directive: name, Operand: operand}
		}
		advance := uint32(v) * unitSize
		if err := checkMemoryLimit(name, operand, tab.LocCounter+advance); err != nil {
			return err
		}
		tab.LocCounter += advance
		return nil
	}
}

var (
	resbHandler = reserveHandler(1)
	reswHandler = reserveHandler(symtab.WordBytes)
)

func notImplementedHandler(tab *symtab.Table, name, rest string) error {
	return &CallbackError{Kind: NotImplemented, Directive: name, Operand: rest}
}
