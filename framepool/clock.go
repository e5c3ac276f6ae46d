package framepool

import "github.com/sarchlab/vmsim/vm"

// ClockPolicy gives referenced frames a second chance. The hand sweeps the
// pool, clearing reference bits, and stops at the first frame whose page has
// not been referenced since the last sweep.
type ClockPolicy struct {
	hand int
}

// NewClockPolicy returns a clock policy with the hand at frame 0.
func NewClockPolicy() *ClockPolicy {
	return &ClockPolicy{}
}

// Name returns "clock".
func (p *ClockPolicy) Name() string {
	return string(PolicyClock)
}

// Hand returns the ID of the frame where the next sweep starts.
func (p *ClockPolicy) Hand() int {
	return p.hand
}

// Visit does nothing. The simulator sets the reference bit of every accessed
// page.
func (p *ClockPolicy) Visit(*Frame, vm.Access) {}

// FindVictim sweeps from the hand. A sweep ends within two rounds, since the
// first round clears every reference bit.
func (p *ClockPolicy) FindVictim(pool *Pool) *Frame {
	for {
		f := pool.Frame(p.hand)
		p.hand = (p.hand + 1) % pool.Capacity()

		entry := pool.Entry(f)
		if !entry.Referenced {
			return f
		}

		entry.Referenced = false
	}
}
