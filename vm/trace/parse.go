// Package trace reads memory access traces.
//
// A trace is line-oriented. Lines starting with "==" are comments. Every other
// non-blank line is an event made of an access kind letter (I, L, S or M)
// followed by an 8-digit hexadecimal address, optionally followed by a comma
// and the decimal access size as valgrind's lackey tool prints it. The size is
// ignored. Whitespace anywhere in an event line is ignored.
package trace

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/sarchlab/vmsim/vm"
)

// CommentMarker starts a line that carries no event.
const CommentMarker = "=="

const numAddressDigits = 8

// A ParseError reports a line that is neither a comment nor a valid event.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %s", e.Line, e.Text, e.Reason)
}

// IsEventLine tells if the line should be parsed as an event.
func IsEventLine(line string) bool {
	if strings.HasPrefix(line, CommentMarker) {
		return false
	}

	return strings.TrimSpace(line) != ""
}

// ParseLine decodes an event line. The returned access has index 0; readers
// set the index.
func ParseLine(line string) (vm.Access, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, line)

	compact, size, hasSize := strings.Cut(compact, ",")
	if hasSize && !isDecimal(size) {
		return vm.Access{}, &ParseError{
			Text:   line,
			Reason: "access size is not a decimal number",
		}
	}

	if len(compact) != 1+numAddressDigits {
		return vm.Access{}, &ParseError{
			Text:   line,
			Reason: fmt.Sprintf("expected %d characters", 1+numAddressDigits),
		}
	}

	kind, ok := vm.ParseAccessKind(compact[0])
	if !ok {
		return vm.Access{}, &ParseError{
			Text:   line,
			Reason: fmt.Sprintf("unknown access kind %q", compact[0]),
		}
	}

	addr, err := strconv.ParseUint(compact[1:], 16, 32)
	if err != nil {
		return vm.Access{}, &ParseError{
			Text:   line,
			Reason: "address is not hexadecimal",
		}
	}

	return vm.Decode(kind, vm.Address(addr)), nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}

	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}
