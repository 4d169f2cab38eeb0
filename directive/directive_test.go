package directive

import (
	"testing"

	"github.com/houmank/sicassembler/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAcceptsBoundaryAddresses(t *testing.T) {
	h, _ := New().Lookup(Start)

	tab := symtab.New()
	require.NoError(t, h(tab, Start, "0"))
	assert.Equal(t, uint32(0), tab.LocCounter)

	tab2 := symtab.New()
	require.NoError(t, h(tab2, Start, "7FFF"))
	assert.Equal(t, uint32(0x7FFF), tab2.LocCounter)
}

func TestStartRejectsOutOfRangeAddress(t *testing.T) {
	tab := symtab.New()
	h, _ := New().Lookup(Start)
	err := h(tab, Start, "8000")
	require.Error(t, err)
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, MemoryViolation, cbErr.Kind)
}

func TestStartRejectsSecondDefinition(t *testing.T) {
	tab := symtab.New()
	h, _ := New().Lookup(Start)
	require.NoError(t, h(tab, Start, "0"))
	err := h(tab, Start, "100")
	require.Error(t, err)
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, StartDefinedTwice, cbErr.Kind)
}

func TestEndWithoutOperandMarksSeen(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(End)
	require.NoError(t, h(tab, End, ""))
	assert.True(t, tab.EndAddress.IsSeen())
}

func TestEndWithSymbolResolves(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	require.NoError(t, tab.Define("MAIN", 0x1000))
	h, _ := New().Lookup(End)
	require.NoError(t, h(tab, End, "MAIN"))
	addr, ok := tab.EndAddress.Value()
	require.True(t, ok)
	assert.Equal(t, uint32(0x1000), addr)
}

func TestEndUnknownSymbolIsError(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(End)
	err := h(tab, End, "MISSING")
	require.Error(t, err)
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, EndSymbolNotFound, cbErr.Kind)
}

func TestEndDefinedTwiceIsError(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(End)
	require.NoError(t, h(tab, End, ""))
	err := h(tab, End, "")
	require.Error(t, err)
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, EndDefinedTwice, cbErr.Kind)
}

func TestByteCharacterConstantCountsEachCharacter(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(Byte)
	require.NoError(t, h(tab, Byte, "C'HELLO WORLD'"))
	assert.Equal(t, uint32(11), tab.LocCounter)
}

func TestByteHexConstantAccepted(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(Byte)
	require.NoError(t, h(tab, Byte, "X'AB'"))
	assert.Equal(t, uint32(1), tab.LocCounter)
}

func TestByteHexConstantOddLengthIsError(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(Byte)
	err := h(tab, Byte, "X'ABC'")
	require.Error(t, err)
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, OddHexLength, cbErr.Kind)
}

func TestByteHexConstantBadDigitIsError(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(Byte)
	err := h(tab, Byte, "X'AG'")
	require.Error(t, err)
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, BadHexConstant, cbErr.Kind)
}

func TestResbAndReswAcceptZero(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(Resb)
	require.NoError(t, h(tab, Resb, "0"))
	assert.Equal(t, uint32(0), tab.LocCounter)

	h, _ = New().Lookup(Resw)
	require.NoError(t, h(tab, Resw, "0"))
	assert.Equal(t, uint32(0), tab.LocCounter)
}

func TestResbRejectsNegative(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(Resb)
	err := h(tab, Resb, "-1")
	require.Error(t, err)
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, OperandNegative, cbErr.Kind)
}

func TestReswAdvancesByWordSize(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(Resw)
	require.NoError(t, h(tab, Resw, "2"))
	assert.Equal(t, uint32(6), tab.LocCounter)
}

func TestEndByteWordReserveRejectWhenStartNotDefined(t *testing.T) {
	dt := New()

	h, _ := dt.Lookup(End)
	err := h(symtab.New(), End, "")
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, StartNotDefined, cbErr.Kind)

	h, _ = dt.Lookup(Byte)
	err = h(symtab.New(), Byte, "C'AB'")
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, StartNotDefined, cbErr.Kind)

	h, _ = dt.Lookup(Word)
	err = h(symtab.New(), Word, "5")
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, StartNotDefined, cbErr.Kind)

	h, _ = dt.Lookup(Resb)
	err = h(symtab.New(), Resb, "1")
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, StartNotDefined, cbErr.Kind)

	h, _ = dt.Lookup(Resw)
	err = h(symtab.New(), Resw, "1")
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, StartNotDefined, cbErr.Kind)
}

func TestEndWordResbReswToleratesTrailingComment(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	require.NoError(t, tab.Define("MAIN", 0x1000))

	h, _ := New().Lookup(End)
	require.NoError(t, h(tab, End, "MAIN #entry point"))
	addr, ok := tab.EndAddress.Value()
	require.True(t, ok)
	assert.Equal(t, uint32(0x1000), addr)

	tab2 := symtab.New()
	tab2.StartAddress = symtab.ResolvedAddr(0)
	h, _ = New().Lookup(Word)
	require.NoError(t, h(tab2, Word, "5 #init"))
	assert.Equal(t, uint32(3), tab2.LocCounter)

	tab3 := symtab.New()
	tab3.StartAddress = symtab.ResolvedAddr(0)
	h, _ = New().Lookup(Resb)
	require.NoError(t, h(tab3, Resb, "4 #buffer"))
	assert.Equal(t, uint32(4), tab3.LocCounter)

	tab4 := symtab.New()
	tab4.StartAddress = symtab.ResolvedAddr(0)
	h, _ = New().Lookup(Resw)
	require.NoError(t, h(tab4, Resw, "2 #words"))
	assert.Equal(t, uint32(6), tab4.LocCounter)
}

func TestByteToleratesTrailingComment(t *testing.T) {
	tab := symtab.New()
	tab.StartAddress = symtab.ResolvedAddr(0)
	h, _ := New().Lookup(Byte)
	require.NoError(t, h(tab, Byte, "C'AB' #note"))
	assert.Equal(t, uint32(2), tab.LocCounter)
}

func TestResrAndExportsAreNotImplemented(t *testing.T) {
	tab := symtab.New()
	dt := New()

	h, _ := dt.Lookup(Resr)
	err := h(tab, Resr, "")
	var cbErr *CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, NotImplemented, cbErr.Kind)

	h, _ = dt.Lookup(Exports)
	err = h(tab, Exports, "")
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, NotImplemented, cbErr.Kind)
}

func TestTableUsesCorrectedExportsSpelling(t *testing.T) {
	dt := New()
	_, ok := dt.Lookup("EXPORTS")
	assert.True(t, ok)
	_, ok = dt.Lookup("EXORTS")
	assert.False(t, ok)
}
