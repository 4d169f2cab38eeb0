package assembler

import (
	"strings"

	"github.com/houmank/sicassembler/directive"
	"github.com/houmank/sicassembler/opcode"
)

// line is one classified source line: an optional label, the directive or
// instruction mnemonic that follows it, and the raw remainder of the line
// after that mnemonic.
type line struct {
	Label       string
	Name        string
	IsDirective bool
	Rest        string
}

// splitFirstToken trims leading/trailing whitespace from s and splits off
// its first whitespace-delimited token.
func splitFirstToken(s string) (token, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// classifyLine determines whether raw opens with a directive, an
// instruction, or a label followed by one of those two. It does not
// validate operands; that is each caller's job once it knows which kind of
// line it has.
//
// The second token is always checked first: a line whose second token is
// itself a directive or instruction name is a label line, even if the
// first token happens to also be one (the label-matches-mnemonic and
// label-matches-directive cases checkLabelCollision reports). Only when
// the second token is not an operation name is the first token tried
// directly as a directive or instruction with no label.
func classifyLine(raw string, dirTab *directive.Table, opTab *opcode.Table) (line, error) {
	trimmed := strings.TrimSpace(raw)

	first, rest1 := splitFirstToken(trimmed)
	second, rest2 := splitFirstToken(rest1)

	if dirTab.IsDirective(second) {
		return line{Label: first, Name: second, IsDirective: true, Rest: rest2}, nil
	}
	if _, ok := opTab.Lookup(second); ok {
		return line{Label: first, Name: second, IsDirective: false, Rest: rest2}, nil
	}

	if dirTab.IsDirective(first) {
		return line{Name: first, IsDirective: true, Rest: rest1}, nil
	}
	if _, ok := opTab.Lookup(first); ok {
		return line{Name: first, IsDirective: false, Rest: rest1}, nil
	}

	return line{}, ErrUnrecognizedLine
}
