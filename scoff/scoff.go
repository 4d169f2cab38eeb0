// Package scoff builds and serializes SCOFF object records: the header,
// text, modification, and end records pass 2 produces for a SIC source
// file. Grounded on the reference's scoff.c.
package scoff

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/houmank/sicassembler/list"
)

const (
	// headerFieldLen is the fixed width of the program-name field in the
	// header record.
	headerFieldLen = 6
	// maxBytesPerRecord is the most object-code bytes a single text record
	// may carry (60 hex characters).
	maxBytesPerRecord = 30
	// indexedBit is OR'd into an instruction's operand address when the
	// operand uses indexed addressing (",X").
	indexedBit = 0x8000
	// modHalfBytes is the half-byte count carried by every modification
	// record this assembler emits: a full 3-byte address field.
	modHalfBytes = "06"
)

// TextRecord is one "T" record: an object-code chunk starting at Address.
type TextRecord struct {
	Address    uint32
	ObjectCode string // hex-encoded, at most maxBytesPerRecord*2 characters
}

// ModificationRecord is one "M" record: instructs the loader to relocate
// the 3-byte field at Address by Sign the value of Symbol.
type ModificationRecord struct {
	Address uint32
	Sign    byte // '+' or '-'
	Symbol  string
}

// RecordSet accumulates the records that make up one object program.
type RecordSet struct {
	ProgramName string
	StartAddr   uint32
	Length      uint32

	text  *list.List[TextRecord]
	mods  *list.List[ModificationRecord]
	first uint32
}

// New returns an empty record set for the named program.
func New(programName string) *RecordSet {
	return &RecordSet{
		ProgramName: programName,
		text:        list.New[TextRecord](),
		mods:        list.New[ModificationRecord](),
	}
}

// SetHeader records the program's start address and total length.
func (r *RecordSet) SetHeader(start, length uint32) {
	r.StartAddr = start
	r.Length = length
}

// SetFirstInstruction records the program's entry point, emitted in the
// end record: the address of the symbol named by END, or of the first
// machine instruction when END names none.
func (r *RecordSet) SetFirstInstruction(addr uint32) {
	r.first = addr
}

// AppendBytes fragments data into one or more text records starting at
// address, each carrying at most maxBytesPerRecord bytes.
func (r *RecordSet) AppendBytes(address uint32, data []byte) {
	for len(data) > 0 {
		n := len(data)
		if n > maxBytesPerRecord {
			n = maxBytesPerRecord
		}
		r.text.Append(TextRecord{Address: address, ObjectCode: hexEncode(data[:n])})
		address += uint32(n)
		data = data[n:]
	}
}

// AppendInstruction emits a 3-byte text record (opcode byte + 2-byte
// operand address) at address. If indexed, the indexed-addressing bit is
// set in the operand address. If the instruction's operand referenced a
// symbol, a modification record is also emitted at address+1 so the loader
// can relocate the embedded address against this program's own base.
func (r *RecordSet) AppendInstruction(address uint32, opcode byte, operandAddr uint32, indexed, hasSymbolOperand bool) {
	if indexed {
		operandAddr |= indexedBit
	}
	data := []byte{opcode, byte(operandAddr >> 8), byte(operandAddr)}
	r.text.Append(TextRecord{Address: address, ObjectCode: hexEncode(data)})

	if hasSymbolOperand {
		r.mods.Append(ModificationRecord{Address: address + 1, Sign: '+', Symbol: r.ProgramName})
	}
}

func hexEncode(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// Render returns the accumulated records in SCOFF text form: one header
// line, one line per text record, one line per modification record, and
// one end line, with no trailing newline after the end record.
func (r *RecordSet) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "H%-*s%06X%06X", headerFieldLen, r.ProgramName, r.StartAddr, r.Length)

	for _, rec := range r.text.All() {
		fmt.Fprintf(&sb, "\nT%06X%02X%s", rec.Address, len(rec.ObjectCode)/2, rec.ObjectCode)
	}
	for _, rec := range r.mods.All() {
		fmt.Fprintf(&sb, "\nM%06X%s%c%s", rec.Address, modHalfBytes, rec.Sign, rec.Symbol)
	}
	fmt.Fprintf(&sb, "\nE%06X", r.first)

	return sb.String()
}

// ObjectFileName derives the output object file name from a source path:
// it strips any directory prefix (recognizing both '/' and '\' as
// separators, since a source path may have been typed on either platform)
// and any existing extension, then appends ext.
func ObjectFileName(sourcePath, ext string) string {
	base := sourcePath
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if dot := strings.LastIndex(base, "."); dot >= 0 {
		base = base[:dot]
	}
	return base + ext
}

// Write renders the record set and writes it to path, via a temp file in
// the same directory followed by an atomic rename, so a failure partway
// through never leaves a truncated object file at path.
func Write(path string, r *RecordSet) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".scoff-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(r.Render()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
