package tracing

import (
	"sync"

	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/simulation"
	"github.com/sarchlab/vmsim/vm"
	"github.com/tebeka/atexit"
)

// Tables written by a DBTracer.
const (
	FaultTable   = "page_faults"
	EvictTable   = "evictions"
	SummaryTable = "run_summary"
)

// A FaultRecord is a row of the page fault table.
type FaultRecord struct {
	ID         string
	TraceIndex uint64
	Kind       string
	Address    string
	Page       uint32
}

// An EvictionRecord is a row of the eviction table. TraceIndex is the trace
// event that caused the eviction.
type EvictionRecord struct {
	ID         string
	TraceIndex uint64
	Frame      int
	Page       uint32
	Writeback  bool
}

// A SummaryRecord is the final statistics of a run.
type SummaryRecord struct {
	ID              string
	Trace           string
	Algorithm       string
	NumFrames       int
	Events          uint64
	MemoryAccesses  uint64
	PageFaults      uint64
	Writebacks      uint64
	PageTableLeaves int
	PageTableSize   uint64
}

// DBTracer is a tracer that stores faults and evictions into a database.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder
}

// NewDBTracer creates a new DBTracer. The backend is flushed at exit.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	dataRecorder.CreateTable(FaultTable, FaultRecord{})
	dataRecorder.CreateTable(EvictTable, EvictionRecord{})
	dataRecorder.CreateTable(SummaryTable, SummaryRecord{})

	t := &DBTracer{
		backend: dataRecorder,
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// Access does nothing. Hits are not recorded.
func (t *DBTracer) Access(vm.Access, simulation.AccessDetail) {}

// Fault records a page fault.
func (t *DBTracer) Fault(access vm.Access) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.InsertData(FaultTable, FaultRecord{
		ID:         sim.GetIDGenerator().Generate(),
		TraceIndex: access.Index,
		Kind:       access.Kind.String(),
		Address:    access.Addr.String(),
		Page:       uint32(access.Page),
	})
}

// Evict records an eviction.
func (t *DBTracer) Evict(access vm.Access, detail simulation.EvictDetail) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.InsertData(EvictTable, EvictionRecord{
		ID:         sim.GetIDGenerator().Generate(),
		TraceIndex: access.Index,
		Frame:      detail.FrameID,
		Page:       uint32(detail.Page),
		Writeback:  detail.Writeback,
	})
}

// RecordSummary stores the report of a finished run.
func (t *DBTracer) RecordSummary(traceName string, r simulation.RunReport) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.InsertData(SummaryTable, SummaryRecord{
		ID:              sim.GetIDGenerator().Generate(),
		Trace:           traceName,
		Algorithm:       r.Algorithm,
		NumFrames:       r.NumFrames,
		Events:          r.Stats.Events,
		MemoryAccesses:  r.Stats.MemoryAccesses,
		PageFaults:      r.Stats.PageFaults,
		Writebacks:      r.Stats.Writebacks,
		PageTableLeaves: r.NumPageTableLeaves(),
		PageTableSize:   r.PageTableSize(),
	})
}

// Terminate flushes the records.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}
