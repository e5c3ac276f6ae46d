package tracing

import (
	"sync"

	"github.com/sarchlab/vmsim/sim"
)

// EventCounter counts how many times each hook position is triggered.
type EventCounter struct {
	lock   sync.Mutex
	names  []string
	counts map[string]uint64
}

// NewEventCounter creates a new EventCounter.
func NewEventCounter() *EventCounter {
	return &EventCounter{
		counts: make(map[string]uint64),
	}
}

// Func counts the position of the hook.
func (c *EventCounter) Func(ctx sim.HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	name := ctx.Pos.Name
	if _, ok := c.counts[name]; !ok {
		c.names = append(c.names, name)
	}

	c.counts[name]++
}

// Names returns the positions seen, in the order they first triggered.
func (c *EventCounter) Names() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]string(nil), c.names...)
}

// Count returns the number of times the position with the given name was
// triggered.
func (c *EventCounter) Count(name string) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.counts[name]
}
