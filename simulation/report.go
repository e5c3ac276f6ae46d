package simulation

import (
	"fmt"
	"io"

	"github.com/sarchlab/vmsim/vm"
)

// A RunReport is the summary printed after a run.
type RunReport struct {
	Algorithm string
	NumFrames int
	Stats     Stats
}

// MakeRunReport creates the report of a finished run.
func MakeRunReport(s *Simulator) RunReport {
	return RunReport{
		Algorithm: s.PolicyName(),
		NumFrames: s.NumFrames(),
		Stats:     s.Stats(),
	}
}

// NumPageTableLeaves returns the number of leaf tables the page table can
// hold.
func (r RunReport) NumPageTableLeaves() int {
	return vm.NumRootSlots
}

// PageTableSize returns the size of a fully populated page table in bytes.
func (r RunReport) PageTableSize() uint64 {
	return vm.PageTableSize()
}

// WriteTo prints the report.
func (r RunReport) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w,
		"Algorithm: %s\n"+
			"Number of frames: %d\n"+
			"Total memory accesses: %d\n"+
			"Total page faults: %d\n"+
			"Total writes to disk: %d\n"+
			"Number of page table leaves: %d\n"+
			"Total size of page table: %d bytes\n",
		r.Algorithm,
		r.NumFrames,
		r.Stats.MemoryAccesses,
		r.Stats.PageFaults,
		r.Stats.Writebacks,
		r.NumPageTableLeaves(),
		r.PageTableSize(),
	)

	return int64(n), err
}
