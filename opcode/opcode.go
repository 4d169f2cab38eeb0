// Package opcode parses the SIC opcode descriptor file into a mnemonic ->
// metadata table, and carries the opcode-related error taxonomy used by
// both assembler passes.
package opcode

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/houmank/sicassembler/hashtable"
)

// MaxMnemonicLen is the longest mnemonic SIC allows (same bound as symbol
// and directive names).
const MaxMnemonicLen = 6

// Flags is a bit set of instruction attributes.
type Flags uint8

const (
	FlagNone Flags = 0
	// FlagPrivileged marks a privileged instruction. Not enforced at
	// encode time by this assembler; carried for fidelity with the
	// descriptor format and available to future passes.
	FlagPrivileged Flags = 1 << iota
	FlagXEOnly
	FlagFloatingPoint
	FlagSetsConditionCode
)

// Entry describes one opcode: its operand count, instruction format,
// opcode byte, and attribute flags.
type Entry struct {
	Mnemonic     string
	OperandCount int // 0, 1, or 2
	Format       int // 1, 2, or 3 ("3/4" in the descriptor maps to 3)
	Opcode       byte
	Flags        Flags
}

// Table maps mnemonic -> Entry.
type Table struct {
	entries *hashtable.Table[*Entry]
}

// Lookup returns the entry for mnemonic, if any.
func (t *Table) Lookup(mnemonic string) (*Entry, bool) {
	return t.entries.Lookup(mnemonic)
}

// Len returns the number of loaded opcodes.
func (t *Table) Len() int {
	return t.entries.Len()
}

// Dump writes a human-readable listing of the table to w, one opcode per
// line: mnemonic, operand count, format, opcode byte, flags. Grounded on
// the reference's printOptable. The sicasm command does not call it; its
// -debug listing covers the symbol table only.
func (t *Table) Dump(w io.Writer) {
	fmt.Fprintf(w, "%-8s\t%s\t%s\t%s\t%s\n", "Mnemonic", "Args", "Fmt", "Opcode", "Flags")
	for _, key := range t.entries.Keys() {
		e, _ := t.entries.Lookup(key)
		fmt.Fprintf(w, "%-8s\t%-2d\t%-2d\t0x%02X\t%d\n", e.Mnemonic, e.OperandCount, e.Format, e.Opcode, e.Flags)
	}
}

// Load parses a whitespace-delimited opcode descriptor stream, one opcode
// per line: MNEMONIC OPERAND_COUNT FORMAT OPCODE_HEX [FLAGS...]
func Load(r io.Reader) (*Table, error) {
	tbl := &Table{entries: hashtable.New[*Entry](128)}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		entry, err := parseLine(fields, lineNum)
		if err != nil {
			return nil, err
		}

		if err := tbl.entries.Insert(entry.Mnemonic, entry); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return tbl, nil
}

func parseLine(fields []string, lineNum int) (*Entry, error) {
	if len(fields) < 4 {
		field := "mnemonic"
		switch len(fields) {
		case 1:
			field = "number of operands"
		case 2:
			field = "instruction format"
		case 3:
			field = "opcode"
		}
		return nil, &Error{Kind: BadInputParse, Token: field, Line: lineNum}
	}

	mnemonic := fields[0]
	if len(mnemonic) > MaxMnemonicLen {
		return nil, &Error{Kind: InvalidMnemonicLength, Token: mnemonic, Line: lineNum}
	}

	operandCount, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &Error{Kind: BadInputParse, Token: "number of operands", Line: lineNum}
	}

	var format int
	if fields[2] == "3/4" {
		format = 3
	} else {
		format, err = strconv.Atoi(fields[2])
		if err != nil {
			return nil, &Error{Kind: BadInputParse, Token: "instruction format", Line: lineNum}
		}
	}

	opcodeVal, err := strconv.ParseUint(fields[3], 16, 8)
	if err != nil {
		return nil, &Error{Kind: BadInputParse, Token: "opcode", Line: lineNum}
	}

	entry := &Entry{
		Mnemonic:     mnemonic,
		OperandCount: operandCount,
		Format:       format,
		Opcode:       byte(opcodeVal),
	}

	for _, flagToken := range fields[4:] {
		for _, r := range flagToken {
			switch r {
			case 'P':
				entry.Flags |= FlagPrivileged
			case 'X':
				entry.Flags |= FlagXEOnly
			case 'F':
				entry.Flags |= FlagFloatingPoint
			case 'C':
				entry.Flags |= FlagSetsConditionCode
			}
		}
	}

	return entry, nil
}
