package simulation

import (
	"errors"
	"fmt"

	"github.com/sarchlab/vmsim/framepool"
	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/vm"
	"github.com/sarchlab/vmsim/vm/trace"
)

// ErrInvalidFrameCount is returned when the number of frames is not positive.
var ErrInvalidFrameCount = errors.New("number of frames must be positive")

// Builder can be used to build a simulator.
type Builder struct {
	name       string
	numFrames  int
	policyName framepool.PolicyName
	source     trace.Source
	monitor    *monitoring.Monitor
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		name:       "VMSim",
		policyName: framepool.PolicyLRU,
	}
}

// WithName sets the name the simulator is monitored under.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithNumFrames sets the number of physical frames.
func (b Builder) WithNumFrames(n int) Builder {
	b.numFrames = n
	return b
}

// WithPolicy sets the replacement policy.
func (b Builder) WithPolicy(name framepool.PolicyName) Builder {
	b.policyName = name
	return b
}

// WithTrace sets the trace to replay.
func (b Builder) WithTrace(source trace.Source) Builder {
	b.source = source
	return b
}

// WithMonitor registers the simulator with a monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

func (b Builder) parametersMustBeValid() error {
	if b.numFrames <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidFrameCount, b.numFrames)
	}

	if _, err := framepool.ParsePolicyName(string(b.policyName)); err != nil {
		return err
	}

	if b.source == nil {
		return errors.New("no trace to simulate")
	}

	return nil
}

// Build builds the simulator. For OPT, Build reads the whole trace to build
// the oracle.
func (b Builder) Build() (*Simulator, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	var oracle *framepool.Oracle
	if b.policyName.NeedsOracle() {
		var err error

		oracle, err = b.buildOracle()
		if err != nil {
			return nil, err
		}
	}

	policy, err := framepool.NewPolicy(b.policyName, oracle)
	if err != nil {
		return nil, err
	}

	pageTable := vm.NewPageTable()

	s := &Simulator{
		HookableBase: sim.NewHookableBase(),
		name:         b.name,
		source:       b.source,
		pageTable:    pageTable,
		pool:         framepool.NewPool(b.numFrames, pageTable),
		policy:       policy,
	}

	s.publish()

	if b.monitor != nil {
		var total uint64
		if oracle != nil {
			total = oracle.NumEvents()
		}

		s.monitor = b.monitor
		s.progressBar = b.monitor.CreateProgressBar(b.source.Name(), total)
		b.monitor.RegisterComponent(s)
	}

	return s, nil
}

func (b Builder) buildOracle() (*framepool.Oracle, error) {
	f, err := b.source.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	oracle, err := framepool.BuildOracle(trace.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", b.source.Name(), err)
	}

	return oracle, nil
}
