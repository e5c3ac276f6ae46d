// Package framepool models the physical frames of a simulated memory and the
// policies that pick a frame to evict when all frames are occupied.
package framepool

import (
	"log"

	"github.com/sarchlab/vmsim/vm"
)

// A Frame is a physical page frame. An occupied frame holds one virtual page.
type Frame struct {
	ID   int
	Page vm.PageNumber
	Free bool
}

// A Pool is a fixed set of frames. Frames reach the entries of their pages
// through the page table.
type Pool struct {
	frames      []Frame
	pageTable   *vm.PageTable
	numOccupied int
}

// NewPool creates a pool with numFrames free frames.
func NewPool(numFrames int, pageTable *vm.PageTable) *Pool {
	if numFrames <= 0 {
		log.Panicf("a pool needs at least one frame, got %d", numFrames)
	}

	p := &Pool{
		frames:    make([]Frame, numFrames),
		pageTable: pageTable,
	}

	for i := range p.frames {
		p.frames[i] = Frame{ID: i, Free: true}
	}

	return p
}

// Capacity returns the number of frames.
func (p *Pool) Capacity() int {
	return len(p.frames)
}

// Occupied returns the number of frames that hold a page.
func (p *Pool) Occupied() int {
	return p.numOccupied
}

// IsFull tells if every frame holds a page.
func (p *Pool) IsFull() bool {
	return p.numOccupied == len(p.frames)
}

// Frame returns the frame with the given ID.
func (p *Pool) Frame(id int) *Frame {
	return &p.frames[id]
}

// Frames returns all the frames in pool order. Callers must not modify the
// frames.
func (p *Pool) Frames() []Frame {
	return p.frames
}

// Entry returns the page table entry of the page held by an occupied frame.
func (p *Pool) Entry(f *Frame) *vm.PageTableEntry {
	frameMustBeOccupied(f)

	return p.pageTable.EntryFor(f.Page)
}

// Find returns the occupied frame that holds the page.
func (p *Pool) Find(page vm.PageNumber) (*Frame, bool) {
	for i := range p.frames {
		f := &p.frames[i]
		if !f.Free && f.Page == page {
			return f, true
		}
	}

	return nil, false
}

// Allocate binds the first free frame to the page. It returns false if all
// the frames are occupied.
func (p *Pool) Allocate(page vm.PageNumber) (*Frame, bool) {
	for i := range p.frames {
		f := &p.frames[i]
		if f.Free {
			f.Page = page
			f.Free = false
			p.numOccupied++

			return f, true
		}
	}

	return nil, false
}

// Evict removes the page from the frame and invalidates its entry. The return
// value tells if the page was dirty and had to be written back to disk. The
// written back page is clean when it is loaded again.
func (p *Pool) Evict(f *Frame) (writeback bool) {
	entry := p.Entry(f)

	writeback = entry.Dirty
	entry.Valid = false
	entry.Dirty = false

	f.Free = true
	p.numOccupied--

	return writeback
}

func frameMustBeOccupied(f *Frame) {
	if f.Free {
		log.Panicf("frame %d is free", f.ID)
	}
}
