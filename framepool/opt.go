package framepool

import "github.com/sarchlab/vmsim/vm"

// OPTPolicy evicts the page whose next access is the farthest in the future.
// It can only run offline, with an Oracle built from the whole trace.
type OPTPolicy struct {
	oracle *Oracle
}

// NewOPTPolicy creates an OPT policy over the oracle.
func NewOPTPolicy(oracle *Oracle) *OPTPolicy {
	return &OPTPolicy{oracle: oracle}
}

// Name returns "opt".
func (p *OPTPolicy) Name() string {
	return string(PolicyOPT)
}

// Visit consumes the access from the oracle.
func (p *OPTPolicy) Visit(_ *Frame, access vm.Access) {
	p.oracle.Consume(access.Page, access.Index)
}

// FindVictim prefers the first frame, in pool order, whose page is never
// accessed again. Otherwise it returns the first frame whose page has the
// farthest next access.
func (p *OPTPolicy) FindVictim(pool *Pool) *Frame {
	var victim *Frame
	var farthest uint64

	for i := 0; i < pool.Capacity(); i++ {
		f := pool.Frame(i)
		if f.Free {
			continue
		}

		next, ok := p.oracle.NextAccess(f.Page)
		if !ok {
			return f
		}

		if victim == nil || next > farthest {
			victim = f
			farthest = next
		}
	}

	if victim == nil {
		panic("no frame to evict")
	}

	return victim
}
