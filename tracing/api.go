// Package tracing records what happens inside a simulation.
package tracing

import (
	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/simulation"
	"github.com/sarchlab/vmsim/vm"
)

// A Tracer is notified of the accesses, faults and evictions of a simulator.
type Tracer interface {
	Access(access vm.Access, detail simulation.AccessDetail)
	Fault(access vm.Access)
	Evict(access vm.Access, detail simulation.EvictDetail)
}

// CollectTrace lets the tracer collect the trace of a domain.
func CollectTrace(domain sim.Hookable, tracer Tracer) {
	domain.AcceptHook(&traceHook{t: tracer})
}

// A traceHook turns hook invocations into tracer calls.
type traceHook struct {
	t Tracer
}

// Func calls the tracer interfaces when the hook is triggered
func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case simulation.HookPosAccess:
		h.t.Access(ctx.Item.(vm.Access), ctx.Detail.(simulation.AccessDetail))
	case simulation.HookPosFault:
		h.t.Fault(ctx.Item.(vm.Access))
	case simulation.HookPosEvict:
		h.t.Evict(ctx.Item.(vm.Access), ctx.Detail.(simulation.EvictDetail))
	}
}
