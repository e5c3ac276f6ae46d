package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/vmsim/vm"
)

// A Reader yields the events of a trace in order.
type Reader struct {
	scanner    *bufio.Scanner
	lineNumber int
	nextIndex  uint64
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// Next returns the next event. It returns io.EOF when the trace is exhausted.
// Parse errors are returned as *ParseError.
func (r *Reader) Next() (vm.Access, error) {
	for r.scanner.Scan() {
		r.lineNumber++

		line := r.scanner.Text()
		if !IsEventLine(line) {
			continue
		}

		access, err := ParseLine(line)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				parseErr.Line = r.lineNumber
			}

			return vm.Access{}, err
		}

		access.Index = r.nextIndex
		r.nextIndex++

		return access, nil
	}

	if err := r.scanner.Err(); err != nil {
		return vm.Access{}, fmt.Errorf("reading trace: %w", err)
	}

	return vm.Access{}, io.EOF
}

// NumEvents returns the number of events returned so far.
func (r *Reader) NumEvents() uint64 {
	return r.nextIndex
}

// ForEach calls fn with every remaining event of the reader. It stops at the
// first error returned by the reader or by fn.
func ForEach(r *Reader, fn func(vm.Access) error) error {
	for {
		access, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		if err := fn(access); err != nil {
			return err
		}
	}
}
