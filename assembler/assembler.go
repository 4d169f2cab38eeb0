// Package assembler drives the two passes that turn SIC source text into a
// SCOFF object program: pass 1 builds the symbol table, pass 2 re-scans
// the source against that table to emit object records. Grounded on the
// reference's sic.c (buildSymbolTable) and scoff.c (generateSCOFFRecords).
package assembler

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/houmank/sicassembler/directive"
	"github.com/houmank/sicassembler/opcode"
	"github.com/houmank/sicassembler/scoff"
	"github.com/houmank/sicassembler/symtab"
)

// Options controls assembly behavior that is not fixed by the source
// itself.
type Options struct {
	// ExtendedEdition enables XE-only and floating-point instructions.
	// When false (the default), using one is an error.
	ExtendedEdition bool
	// Debug, when true, writes a symbol table listing to DebugWriter
	// after pass 1 completes.
	Debug       bool
	DebugWriter io.Writer
}

// Assemble runs both passes over src and returns the resulting object
// records.
func Assemble(filename string, src io.Reader, opTab *opcode.Table, dirTab *directive.Table, opts Options) (*scoff.RecordSet, error) {
	lines, err := readLines(src)
	if err != nil {
		return nil, err
	}

	symTab, err := pass1(filename, lines, opTab, dirTab, opts)
	if err != nil {
		return nil, err
	}

	if opts.Debug && opts.DebugWriter != nil {
		dumpSymbols(opts.DebugWriter, symTab)
	}

	return pass2(filename, lines, symTab, opTab, dirTab)
}

func readLines(src io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func isComment(trimmed string) bool {
	return len(trimmed) > 0 && trimmed[0] == '#'
}

// pass1 builds the symbol table: every label is bound to the location
// counter value it has when the label's line is reached, and directives
// advance or fix that counter as they are encountered.
func pass1(filename string, lines []string, opTab *opcode.Table, dirTab *directive.Table, opts Options) (*symtab.Table, error) {
	tab := symtab.New()

	for i, raw := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, wrapLine(filename, lineNum, raw, ErrEmptyLine)
		}
		if isComment(trimmed) {
			continue
		}

		ln, err := classifyLine(raw, dirTab, opTab)
		if err != nil {
			return nil, wrapLine(filename, lineNum, raw, err)
		}

		if err := checkLabelCollision(ln, opTab, dirTab); err != nil {
			return nil, wrapLine(filename, lineNum, raw, err)
		}

		if ln.IsDirective {
			if err := applyDirective(tab, dirTab, ln); err != nil {
				return nil, wrapLine(filename, lineNum, raw, err)
			}
			continue
		}

		if err := applyInstruction(tab, opTab, ln, opts); err != nil {
			return nil, wrapLine(filename, lineNum, raw, err)
		}
	}

	if tab.EndAddress.IsUnset() {
		return nil, &directive.CallbackError{Kind: directive.EndNotDefined}
	}
	return tab, nil
}

func checkLabelCollision(ln line, opTab *opcode.Table, dirTab *directive.Table) error {
	if ln.Label == "" {
		return nil
	}
	if dirTab.IsDirective(ln.Label) {
		return &directive.CallbackError{Kind: directive.SymbolMatchesDirective, Directive: ln.Name, Operand: ln.Label}
	}
	if _, ok := opTab.Lookup(ln.Label); ok {
		return &opcode.Error{Kind: opcode.SymbolMatchesInstruction, Token: ln.Label}
	}
	return nil
}

// applyDirective defines ln's label (if any) at the correct address and
// dispatches to the directive's pass-1 handler. START is special: the
// label takes the *new* location counter value, since START itself sets
// it, while every other directive's label takes the counter value the
// directive found on entry.
func applyDirective(tab *symtab.Table, dirTab *directive.Table, ln line) error {
	h, _ := dirTab.Lookup(ln.Name)

	if ln.Label != "" && ln.Name != directive.Start {
		if err := tab.Define(ln.Label, tab.LocCounter); err != nil {
			return err
		}
	}

	if err := h(tab, ln.Name, ln.Rest); err != nil {
		return err
	}

	if ln.Label != "" && ln.Name == directive.Start {
		if err := tab.Define(ln.Label, tab.LocCounter); err != nil {
			return err
		}
	}
	return nil
}

// operandFields splits rest into whitespace-delimited operand tokens,
// truncating at the first token beginning with "#": a comment and
// whatever follows it never count as additional operands.
func operandFields(rest string) []string {
	if rest == "" {
		return nil
	}
	fields := strings.Fields(rest)
	for i, f := range fields {
		if strings.HasPrefix(f, "#") {
			return fields[:i]
		}
	}
	return fields
}

func checkOperandCount(entry *opcode.Entry, name string, fields []string) error {
	n := len(fields)
	if entry.OperandCount == 0 && n > 0 {
		return &opcode.Error{Kind: opcode.WrongNumberOfOperands, Token: name, Entry: entry}
	}
	if entry.OperandCount > 0 && n == 0 {
		return &opcode.Error{Kind: opcode.NoOperandsGiven, Token: name, Entry: entry}
	}
	if entry.OperandCount > 0 && n != entry.OperandCount {
		return &opcode.Error{Kind: opcode.WrongNumberOfOperands, Token: name, Entry: entry}
	}
	return nil
}

func applyInstruction(tab *symtab.Table, opTab *opcode.Table, ln line, opts Options) error {
	entry, _ := opTab.Lookup(ln.Name)

	if !opts.ExtendedEdition && entry.Flags&(opcode.FlagXEOnly|opcode.FlagFloatingPoint) != 0 {
		return &opcode.Error{Kind: opcode.XEditionNotSupported, Token: ln.Name}
	}

	fields := operandFields(ln.Rest)
	if err := checkOperandCount(entry, ln.Name, fields); err != nil {
		return err
	}

	if ln.Label != "" {
		if err := tab.Define(ln.Label, tab.LocCounter); err != nil {
			return err
		}
	}

	// Every instruction is encoded in format 3: one 3-byte word.
	tab.LocCounter += symtab.WordBytes
	if tab.LocCounter > symtab.MemoryLimit {
		return &directive.CallbackError{Kind: directive.MemoryOverflow, Directive: ln.Name}
	}
	return nil
}

// pass2 re-scans the source against the completed symbol table, emitting
// SCOFF records as it goes.
func pass2(filename string, lines []string, symTab *symtab.Table, opTab *opcode.Table, dirTab *directive.Table) (*scoff.RecordSet, error) {
	var rs *scoff.RecordSet
	var addr uint32
	var firstInstrAddr uint32
	firstInstrSeen := false

	for i, raw := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || isComment(trimmed) {
			continue
		}

		ln, err := classifyLine(raw, dirTab, opTab)
		if err != nil {
			return nil, wrapLine(filename, lineNum, raw, err)
		}

		if ln.IsDirective {
			next, err := applyDirectiveRecord(rs, symTab, &addr, &firstInstrAddr, firstInstrSeen, ln)
			if err != nil {
				return nil, wrapLine(filename, lineNum, raw, err)
			}
			if next != nil {
				rs = next
			}
			continue
		}

		if rs == nil {
			return nil, wrapLine(filename, lineNum, raw, &directive.CallbackError{Kind: directive.StartNotDefined})
		}
		if !firstInstrSeen {
			firstInstrAddr = addr
			firstInstrSeen = true
		}
		if err := appendInstructionRecord(rs, symTab, opTab, &addr, ln); err != nil {
			return nil, wrapLine(filename, lineNum, raw, err)
		}
	}

	if !firstInstrSeen {
		return nil, &opcode.Error{Kind: opcode.NoInstructionFound}
	}
	return rs, nil
}

// applyDirectiveRecord handles one directive line during pass 2. It
// returns a non-nil *scoff.RecordSet only when it just created one (on
// START); the caller installs that as the active record set.
func applyDirectiveRecord(rs *scoff.RecordSet, symTab *symtab.Table, addr *uint32, firstInstrAddr *uint32, firstInstrSeen bool, ln line) (*scoff.RecordSet, error) {
	switch ln.Name {
	case directive.Start:
		fields := operandFields(ln.Rest)
		v, err := strconv.ParseUint(fields[0], 16, 32)
		if err != nil {
			return nil, &directive.CallbackError{Kind: directive.ConversionError, Directive: ln.Name, Operand: fields[0]}
		}
		*addr = uint32(v)
		next := scoff.New(ln.Label)
		next.SetHeader(*addr, 0)
		return next, nil

	case directive.End:
		if rs == nil {
			return nil, &directive.CallbackError{Kind: directive.StartNotDefined}
		}
		// END with an explicit symbol fixes the program's entry point to
		// that symbol's address; a bare END uses the first instruction
		// pass 2 encountered, per the reference's SeenSentinel handling.
		if v, ok := symTab.EndAddress.Value(); ok {
			rs.SetFirstInstruction(v)
		} else if firstInstrSeen {
			rs.SetFirstInstruction(*firstInstrAddr)
		}
		rs.SetHeader(rs.StartAddr, symTab.LocCounter-rs.StartAddr)
		return nil, nil

	case directive.Byte:
		data, err := directive.DecodeBytes(ln.Name, ln.Rest)
		if err != nil {
			return nil, err
		}
		rs.AppendBytes(*addr, data)
		*addr += uint32(len(data))
		return nil, nil

	case directive.Word:
		fields := operandFields(ln.Rest)
		v, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, &directive.CallbackError{Kind: directive.ConversionError, Directive: ln.Name, Operand: fields[0]}
		}
		rs.AppendBytes(*addr, encodeWord24(v))
		*addr += symtab.WordBytes
		return nil, nil

	case directive.Resb:
		fields := operandFields(ln.Rest)
		n, _ := strconv.ParseInt(fields[0], 10, 64)
		*addr += uint32(n)
		return nil, nil

	case directive.Resw:
		fields := operandFields(ln.Rest)
		n, _ := strconv.ParseInt(fields[0], 10, 64)
		*addr += uint32(n) * symtab.WordBytes
		return nil, nil

	case directive.Resr, directive.Exports:
		return nil, nil

	default:
		return nil, fmt.Errorf("assembler: unhandled directive %q", ln.Name)
	}
}

// encodeWord24 encodes v as a 3-byte big-endian two's-complement value.
func encodeWord24(v int64) []byte {
	u := uint32(v) & 0xFFFFFF
	return []byte{byte(u >> 16), byte(u >> 8), byte(u)}
}

// appendInstructionRecord emits the object code for one instruction line:
// a 3-byte text record holding the opcode and operand address, with the
// indexed-addressing bit set when the operand carries ",X", and a
// modification record when the operand resolves through a symbol.
func appendInstructionRecord(rs *scoff.RecordSet, symTab *symtab.Table, opTab *opcode.Table, addr *uint32, ln line) error {
	entry, _ := opTab.Lookup(ln.Name)

	var operandAddr uint32
	var indexed, hasSymbol bool

	fields := operandFields(ln.Rest)
	if len(fields) > 0 {
		operand := fields[0]
		if strings.HasSuffix(strings.ToUpper(operand), ",X") {
			indexed = true
			operand = operand[:len(operand)-2]
		}
		resolved, ok := symTab.Lookup(operand)
		if !ok {
			return &opcode.Error{Kind: opcode.InvalidSymbolGiven, Token: operand}
		}
		operandAddr = resolved
		hasSymbol = true
	}

	rs.AppendInstruction(*addr, entry.Opcode, operandAddr, indexed, hasSymbol)
	*addr += symtab.WordBytes
	return nil
}

func dumpSymbols(w io.Writer, symTab *symtab.Table) {
	fmt.Fprintf(w, "%-8s\t%s\n", "Symbol", "Address")
	for _, name := range symTab.Names() {
		addr, _ := symTab.Lookup(name)
		fmt.Fprintf(w, "%-8s\t0x%04X\n", name, addr)
	}
}
