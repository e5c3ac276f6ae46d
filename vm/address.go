package vm

import "fmt"

// Address layout. Bits above the root index are ignored.
const (
	Log2PageSize  = 13
	NumLeafBits   = 10
	NumRootBits   = 9
	NumPageBits   = NumLeafBits + NumRootBits
	NumRootSlots  = 1 << NumRootBits
	NumLeafSlots  = 1 << NumLeafBits
	leafIndexMask = NumLeafSlots - 1
	pageMask      = 1<<NumPageBits - 1
	rootShift     = Log2PageSize + NumLeafBits
)

// An Address is a 32-bit virtual address.
type Address uint32

// A PageNumber identifies a virtual page. It is the root index and the leaf
// index concatenated.
type PageNumber uint32

// RootIndex returns the slot in the root table that covers the page.
func (p PageNumber) RootIndex() int {
	return int(p >> NumLeafBits)
}

// LeafIndex returns the slot in the leaf table that covers the page.
func (p PageNumber) LeafIndex() int {
	return int(p & leafIndexMask)
}

// Page returns the page number that contains the address.
func (a Address) Page() PageNumber {
	return PageNumber((a >> Log2PageSize) & pageMask)
}

// RootIndex returns the top 9 bits of the address.
func (a Address) RootIndex() int {
	return int(a >> rootShift)
}

// LeafIndex returns the 10 bits below the root index.
func (a Address) LeafIndex() int {
	return int((a >> Log2PageSize) & leafIndexMask)
}

func (a Address) String() string {
	return fmt.Sprintf("%08x", uint32(a))
}

// AccessKind is the type of a traced memory access.
type AccessKind byte

// Access kinds, named after the trace letters.
const (
	AccessInstruction AccessKind = 'I'
	AccessLoad        AccessKind = 'L'
	AccessStore       AccessKind = 'S'
	AccessModify      AccessKind = 'M'
)

// ParseAccessKind converts a trace letter to an AccessKind.
func ParseAccessKind(c byte) (AccessKind, bool) {
	switch AccessKind(c) {
	case AccessInstruction, AccessLoad, AccessStore, AccessModify:
		return AccessKind(c), true
	default:
		return 0, false
	}
}

// NumMemoryAccesses returns how many memory accesses the kind stands for. A
// modify is a load followed by a store.
func (k AccessKind) NumMemoryAccesses() uint64 {
	if k == AccessModify {
		return 2
	}

	return 1
}

// IsWrite tells if the access makes the page dirty.
func (k AccessKind) IsWrite() bool {
	return k == AccessStore || k == AccessModify
}

func (k AccessKind) String() string {
	return string(rune(k))
}

// An Access is one decoded event of a memory trace.
type Access struct {
	// Index is the position of the event in the trace, counting only event
	// lines. It starts from 0.
	Index     uint64
	Kind      AccessKind
	Addr      Address
	Page      PageNumber
	RootIndex int
	LeafIndex int
}

// Decode splits an address into an access.
func Decode(kind AccessKind, addr Address) Access {
	return Access{
		Kind:      kind,
		Addr:      addr,
		Page:      addr.Page(),
		RootIndex: addr.RootIndex(),
		LeafIndex: addr.LeafIndex(),
	}
}
