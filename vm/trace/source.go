package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// A Source can open a trace for reading, possibly many times. The OPT policy
// needs to read a trace twice.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource is a trace stored in a file.
type FileSource string

// Name returns the path of the file.
func (s FileSource) Name() string {
	return string(s)
}

// Open opens the file.
func (s FileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(string(s))
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}

	return f, nil
}

// stringSource is a trace held in memory.
type stringSource struct {
	name    string
	content string
}

// NewStringSource creates a Source that serves the given content.
func NewStringSource(name, content string) Source {
	return stringSource{name: name, content: content}
}

// NewLinesSource creates a Source with one line per element.
func NewLinesSource(name string, lines ...string) Source {
	return NewStringSource(name, strings.Join(lines, "\n")+"\n")
}

func (s stringSource) Name() string {
	return s.name
}

func (s stringSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.content)), nil
}
