// Package vm provides the virtual memory model of the simulator: address
// decoding and the two-level page table.
package vm

import "log"

// A PageTableEntry maintains the state of one virtual page.
type PageTableEntry struct {
	Valid      bool
	Dirty      bool
	Referenced bool
}

// A LeafPageTable holds the entries of the pages that share a root index.
type LeafPageTable struct {
	Entries [NumLeafSlots]PageTableEntry
}

// PageTableEntrySize is the size of an entry and of a root slot, in bytes, as
// accounted in the reports.
const PageTableEntrySize = 4

// PageTableSize returns the size of the page table in bytes if every leaf
// table was allocated.
func PageTableSize() uint64 {
	rootSize := uint64(PageTableEntrySize * NumRootSlots)
	leafSize := uint64(PageTableEntrySize * NumLeafSlots)

	return rootSize + NumRootSlots*leafSize
}

// A PageTable is a sparse two-level page table. Leaf tables are created when
// an entry under their root slot is first requested and are never freed.
type PageTable struct {
	// root holds handles into leaves. Handle 0 means the slot is empty and
	// handle h refers to leaves[h-1].
	root   [NumRootSlots]uint16
	leaves []*LeafPageTable
}

// NewPageTable creates an empty PageTable.
func NewPageTable() *PageTable {
	return &PageTable{}
}

// Entry returns the entry at the given root and leaf index, creating the leaf
// table if needed.
func (pt *PageTable) Entry(rootIndex, leafIndex int) *PageTableEntry {
	indicesMustBeInRange(rootIndex, leafIndex)

	handle := pt.root[rootIndex]
	if handle == 0 {
		pt.leaves = append(pt.leaves, &LeafPageTable{})
		handle = uint16(len(pt.leaves))
		pt.root[rootIndex] = handle
	}

	return &pt.leaves[handle-1].Entries[leafIndex]
}

// EntryFor returns the entry of a page.
func (pt *PageTable) EntryFor(page PageNumber) *PageTableEntry {
	return pt.Entry(page.RootIndex(), page.LeafIndex())
}

// Lookup returns the entry at the given indices without creating anything.
// The bool return value indicates if the leaf table exists.
func (pt *PageTable) Lookup(rootIndex, leafIndex int) (PageTableEntry, bool) {
	indicesMustBeInRange(rootIndex, leafIndex)

	handle := pt.root[rootIndex]
	if handle == 0 {
		return PageTableEntry{}, false
	}

	return pt.leaves[handle-1].Entries[leafIndex], true
}

// NumLeaves returns the number of leaf tables that have been created.
func (pt *PageTable) NumLeaves() int {
	return len(pt.leaves)
}

func indicesMustBeInRange(rootIndex, leafIndex int) {
	if rootIndex < 0 || rootIndex >= NumRootSlots {
		log.Panicf("root index %d out of range", rootIndex)
	}

	if leafIndex < 0 || leafIndex >= NumLeafSlots {
		log.Panicf("leaf index %d out of range", leafIndex)
	}
}
