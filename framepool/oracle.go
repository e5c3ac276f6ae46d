package framepool

import (
	"github.com/sarchlab/vmsim/vm"
	"github.com/sarchlab/vmsim/vm/trace"
)

// An Oracle knows, for every page, the trace indices of its future accesses.
type Oracle struct {
	accesses  map[vm.PageNumber][]uint64
	numEvents uint64
}

// NewOracle creates an empty Oracle.
func NewOracle() *Oracle {
	return &Oracle{
		accesses: make(map[vm.PageNumber][]uint64),
	}
}

// BuildOracle reads the whole trace and records every access.
func BuildOracle(r *trace.Reader) (*Oracle, error) {
	o := NewOracle()

	err := trace.ForEach(r, func(access vm.Access) error {
		o.Record(access)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return o, nil
}

// Record appends an access to the queue of its page. Accesses must be recorded
// in trace order.
func (o *Oracle) Record(access vm.Access) {
	o.accesses[access.Page] = append(o.accesses[access.Page], access.Index)
	o.numEvents++
}

// NumEvents returns the number of recorded accesses.
func (o *Oracle) NumEvents() uint64 {
	return o.numEvents
}

// NextAccess returns the index of the next access of the page. The bool
// return value is false if the page is never accessed again.
func (o *Oracle) NextAccess(page vm.PageNumber) (uint64, bool) {
	queue := o.accesses[page]
	if len(queue) == 0 {
		return 0, false
	}

	return queue[0], true
}

// Consume removes the access at index from the queue of the page. Nothing
// happens unless index is at the head of the queue.
func (o *Oracle) Consume(page vm.PageNumber, index uint64) bool {
	queue := o.accesses[page]
	if len(queue) == 0 || queue[0] != index {
		return false
	}

	if len(queue) == 1 {
		delete(o.accesses, page)
		return true
	}

	o.accesses[page] = queue[1:]

	return true
}
