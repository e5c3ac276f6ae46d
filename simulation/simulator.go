// Package simulation replays memory traces against a page table and a frame
// pool.
package simulation

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/vmsim/framepool"
	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/vm"
	"github.com/sarchlab/vmsim/vm/trace"
)

// Hook positions of a Simulator.
var (
	// HookPosAccess triggers after every trace event. Item is the vm.Access
	// and Detail is an AccessDetail.
	HookPosAccess = &sim.HookPos{Name: "Access"}

	// HookPosFault triggers when an access misses. Item is the vm.Access.
	HookPosFault = &sim.HookPos{Name: "Fault"}

	// HookPosEvict triggers when a page is evicted. Item is the vm.Access
	// that caused the eviction and Detail is an EvictDetail.
	HookPosEvict = &sim.HookPos{Name: "Evict"}
)

// ErrAlreadyRun is returned when Run is called on a Simulator twice.
var ErrAlreadyRun = errors.New("simulation has already run")

// publishInterval is the number of events between two progress updates.
const publishInterval = 1024

// AccessDetail describes how an access was served.
type AccessDetail struct {
	Hit     bool
	FrameID int
}

// EvictDetail describes an eviction.
type EvictDetail struct {
	FrameID   int
	Page      vm.PageNumber
	Writeback bool
}

// Stats are the counters of a run.
type Stats struct {
	Events         uint64
	MemoryAccesses uint64
	PageFaults     uint64
	Writebacks     uint64
}

// Snapshot is the state of a Simulator as published to observers.
type Snapshot struct {
	Policy         string
	NumFrames      int
	OccupiedFrames int
	NumLeaves      int
	Stats          Stats
	Frames         []framepool.Frame
}

// A Simulator replays a trace. It is single-threaded; only Snapshot may be
// called from other goroutines.
type Simulator struct {
	*sim.HookableBase

	name      string
	source    trace.Source
	pageTable *vm.PageTable
	pool      *framepool.Pool
	policy    framepool.ReplacementPolicy

	monitor     *monitoring.Monitor
	progressBar *monitoring.ProgressBar

	stats       Stats
	unpublished uint64
	hasRun      bool

	snapshotLock sync.Mutex
	snapshot     Snapshot
}

// Name returns the name of the simulator.
func (s *Simulator) Name() string {
	return s.name
}

// PolicyName returns the name of the replacement policy.
func (s *Simulator) PolicyName() string {
	return s.policy.Name()
}

// NumFrames returns the number of physical frames.
func (s *Simulator) NumFrames() int {
	return s.pool.Capacity()
}

// Stats returns the counters accumulated so far.
func (s *Simulator) Stats() Stats {
	return s.stats
}

// PageTable returns the page table of the simulated memory.
func (s *Simulator) PageTable() *vm.PageTable {
	return s.pageTable
}

// Pool returns the frame pool of the simulated memory.
func (s *Simulator) Pool() *framepool.Pool {
	return s.pool
}

// Run replays the whole trace. Any error aborts the run and no statistics are
// returned.
func (s *Simulator) Run() (Stats, error) {
	if s.hasRun {
		return Stats{}, ErrAlreadyRun
	}

	s.hasRun = true
	defer s.completeProgress()

	f, err := s.source.Open()
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()

	err = trace.ForEach(trace.NewReader(f), func(access vm.Access) error {
		s.Step(access)
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("simulating %s: %w", s.source.Name(), err)
	}

	s.publish()

	return s.stats, nil
}

// Step processes one access.
func (s *Simulator) Step(access vm.Access) {
	entry := s.pageTable.Entry(access.RootIndex, access.LeafIndex)

	hit := entry.Valid

	var frame *framepool.Frame
	if hit {
		frame = s.residentFrame(access.Page)
	} else {
		frame = s.handleFault(access)
	}

	s.policy.Visit(frame, access)

	entry.Valid = true
	entry.Referenced = true

	s.account(access, entry)

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosAccess,
		Item:   access,
		Detail: AccessDetail{Hit: hit, FrameID: frame.ID},
	})

	s.unpublished++
	if s.unpublished >= publishInterval {
		s.publish()
	}
}

func (s *Simulator) residentFrame(page vm.PageNumber) *framepool.Frame {
	frame, found := s.pool.Find(page)
	if !found {
		log.Panicf("page %x is valid but not in any frame", page)
	}

	return frame
}

func (s *Simulator) handleFault(access vm.Access) *framepool.Frame {
	s.stats.PageFaults++

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosFault,
		Item:   access,
	})

	frame, ok := s.pool.Allocate(access.Page)
	if ok {
		return frame
	}

	s.evict(access)

	frame, ok = s.pool.Allocate(access.Page)
	if !ok {
		log.Panicf("no free frame after eviction")
	}

	return frame
}

func (s *Simulator) evict(access vm.Access) {
	victim := s.policy.FindVictim(s.pool)
	page := victim.Page

	writeback := s.pool.Evict(victim)
	if writeback {
		s.stats.Writebacks++
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    HookPosEvict,
		Item:   access,
		Detail: EvictDetail{
			FrameID:   victim.ID,
			Page:      page,
			Writeback: writeback,
		},
	})
}

func (s *Simulator) account(access vm.Access, entry *vm.PageTableEntry) {
	s.stats.Events++
	s.stats.MemoryAccesses += access.Kind.NumMemoryAccesses()

	if access.Kind.IsWrite() {
		entry.Dirty = true
	}
}

func (s *Simulator) publish() {
	if s.progressBar != nil && s.unpublished > 0 {
		s.progressBar.IncrementFinished(s.unpublished)
	}

	s.unpublished = 0

	frames := make([]framepool.Frame, s.pool.Capacity())
	copy(frames, s.pool.Frames())

	s.snapshotLock.Lock()
	defer s.snapshotLock.Unlock()

	s.snapshot = Snapshot{
		Policy:         s.policy.Name(),
		NumFrames:      s.pool.Capacity(),
		OccupiedFrames: s.pool.Occupied(),
		NumLeaves:      s.pageTable.NumLeaves(),
		Stats:          s.stats,
		Frames:         frames,
	}
}

func (s *Simulator) completeProgress() {
	if s.monitor != nil {
		s.monitor.CompleteProgressBar(s.progressBar)
	}
}

// Snapshot returns a copy of the last published state.
func (s *Simulator) Snapshot() any {
	s.snapshotLock.Lock()
	defer s.snapshotLock.Unlock()

	snapshot := s.snapshot
	snapshot.Frames = append([]framepool.Frame(nil), s.snapshot.Frames...)

	return &snapshot
}
