package symtab

// addrState tags the three states an address-valued field in the symbol
// table can hold. The reference represents these with the sentinel values
// 0xFFFFFFFF ("not set") and 0xFFFFFFFE ("seen, but not yet resolved");
// Addr wraps that encoding so the sentinels never leak past this package.
type addrState int

const (
	addrUnset addrState = iota
	addrSeen
	addrResolved
)

// Addr is a tri-state address: unset, seen-but-unresolved, or resolved to
// a concrete value.
type Addr struct {
	state addrState
	value uint32
}

// UnsetAddr returns an address in the "not set" state.
func UnsetAddr() Addr { return Addr{state: addrUnset} }

// SeenAddr returns an address in the "seen" state: some event marked this
// field without supplying a resolved value (END with no operand). Pass 2
// leaves the field in this state and takes the entry point from the first
// instruction it encounters.
func SeenAddr() Addr { return Addr{state: addrSeen} }

// ResolvedAddr returns an address resolved to value.
func ResolvedAddr(value uint32) Addr { return Addr{state: addrResolved, value: value} }

// IsUnset reports whether the address has never been touched.
func (a Addr) IsUnset() bool { return a.state == addrUnset }

// IsSeen reports whether the address was marked seen without a resolved
// value.
func (a Addr) IsSeen() bool { return a.state == addrSeen }

// IsResolved reports whether the address holds a concrete value.
func (a Addr) IsResolved() bool { return a.state == addrResolved }

// Value returns the resolved value and true, or (0, false) if the address
// is not resolved.
func (a Addr) Value() (uint32, bool) {
	if a.state != addrResolved {
		return 0, false
	}
	return a.value, true
}
