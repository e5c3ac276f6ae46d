package datarecording

import (
	"os"
	"strings"
	"time"
)

const execInfoTable = "exec_info"

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// An ExecRecorder records when and how the program was run.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
	now      func() time.Time
}

// NewExecRecorder creates the exec_info table and returns a recorder that
// fills it.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(execInfoTable, ExecInfo{})

	return &ExecRecorder{
		recorder: recorder,
		now:      time.Now,
	}
}

func (e *ExecRecorder) timestamp() string {
	return e.now().Format("2006-01-02 15:04:05.000000000")
}

// Start records the start time, the command and the working directory.
func (e *ExecRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", e.timestamp()},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
}

// Record adds a property of the execution.
func (e *ExecRecorder) Record(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes the recorded properties along with the end time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(execInfoTable, entry)
	}

	e.recorder.InsertData(execInfoTable, ExecInfo{"End Time", e.timestamp()})
	e.entries = nil

	e.recorder.Flush()
}
