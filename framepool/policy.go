package framepool

import (
	"errors"
	"fmt"

	"github.com/sarchlab/vmsim/vm"
)

// ErrUnknownPolicy is returned when a policy name is not recognized.
var ErrUnknownPolicy = errors.New("unknown replacement policy")

// A ReplacementPolicy decides which frame to evict when the pool is full.
type ReplacementPolicy interface {
	// Name returns the name used on the command line.
	Name() string

	// Visit is called after every access, hit or fault, with the frame that
	// holds the accessed page.
	Visit(f *Frame, access vm.Access)

	// FindVictim returns an occupied frame to evict. The pool must be full.
	FindVictim(pool *Pool) *Frame
}

// PolicyName names a replacement policy.
type PolicyName string

// Supported policies.
const (
	PolicyLRU   PolicyName = "lru"
	PolicyOPT   PolicyName = "opt"
	PolicyClock PolicyName = "clock"
)

// PolicyNames lists the supported policies.
var PolicyNames = []PolicyName{PolicyOPT, PolicyClock, PolicyLRU}

// ParsePolicyName validates a policy name.
func ParsePolicyName(name string) (PolicyName, error) {
	for _, n := range PolicyNames {
		if string(n) == name {
			return n, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// NeedsOracle tells if the policy has to see the whole trace before the
// simulation starts.
func (n PolicyName) NeedsOracle() bool {
	return n == PolicyOPT
}

// NewPolicy creates the policy with the given name. The oracle is only used
// by OPT and must not be nil for it.
func NewPolicy(name PolicyName, oracle *Oracle) (ReplacementPolicy, error) {
	switch name {
	case PolicyLRU:
		return NewLRUPolicy(), nil
	case PolicyClock:
		return NewClockPolicy(), nil
	case PolicyOPT:
		if oracle == nil {
			return nil, errors.New("the opt policy requires an oracle")
		}

		return NewOPTPolicy(oracle), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}
