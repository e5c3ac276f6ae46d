// Package cmd provides the command-line interface of vmsim.
package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/framepool"
	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/sim"
	"github.com/sarchlab/vmsim/simulation"
	"github.com/sarchlab/vmsim/tracing"
	"github.com/sarchlab/vmsim/vm/trace"
)

// NewRootCommand creates the vmsim command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newOptions())
}

func newRootCommand(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vmsim -n <numframes> -a <opt|clock|lru> <tracefile>",
		Short: "vmsim replays a memory trace against a simulated page table.",
		Long: `vmsim replays a memory trace against a two-level page table ` +
			`and a fixed number of physical frames. It reports the memory ` +
			`accesses, page faults and writes to disk of a page ` +
			`replacement policy.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runSimulation(cmd, opts, args[0])
		},
	}

	opts.addFlags(rootCmd)
	rootCmd.AddCommand(newShowCommand())

	return rootCmd
}

// Execute runs the command and exits. Buffered records are flushed before the
// process ends.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func runSimulation(cmd *cobra.Command, opts *options, tracePath string) error {
	err := opts.applyEnv(cmd)
	if err != nil {
		return err
	}

	policy, err := framepool.ParsePolicyName(opts.algorithm)
	if err != nil {
		return err
	}

	if opts.record != "" {
		err = recordingMustNotExist(opts.record)
		if err != nil {
			return err
		}
	}

	var monitor *monitoring.Monitor
	if opts.monitor {
		monitor = newMonitor(opts)
	}

	s, err := simulation.MakeBuilder().
		WithNumFrames(opts.numFrames).
		WithPolicy(policy).
		WithTrace(trace.FileSource(tracePath)).
		WithMonitor(monitor).
		Build()
	if err != nil {
		return err
	}

	if monitor != nil {
		startMonitor(cmd, monitor, opts.openBrowser)
	}

	if opts.verbose {
		s.AcceptHook(sim.NewLogHook(log.New(cmd.ErrOrStderr(), "", 0)))
	}

	var rec *recording
	if opts.record != "" {
		rec = startRecording(opts, s, tracePath)
		defer rec.close()
	}

	_, err = s.Run()
	if err != nil {
		if rec != nil {
			rec.discard()
		}

		return err
	}

	report := simulation.MakeRunReport(s)

	_, err = report.WriteTo(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if rec != nil {
		rec.finish(tracePath, report)
	}

	return nil
}

// newMonitor creates the monitor. Without a port the server picks a random
// one.
func newMonitor(opts *options) *monitoring.Monitor {
	monitor := monitoring.NewMonitor()
	if opts.monitorPort != 0 {
		monitor.WithPortNumber(opts.monitorPort)
	}

	return monitor
}

func startMonitor(
	cmd *cobra.Command,
	monitor *monitoring.Monitor,
	openBrowser bool,
) {
	url := monitor.StartServer()
	if !openBrowser {
		return
	}

	err := monitoring.OpenInBrowser(url)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Cannot open browser: %v\n", err)
	}
}

// recording collects the records of one run.
type recording struct {
	filename string
	recorder datarecording.DataRecorder
	exec     *datarecording.ExecRecorder
	tracer   *tracing.DBTracer
	counter  *tracing.EventCounter
}

func recordingFilename(name string) string {
	return name + ".sqlite3"
}

func recordingMustNotExist(name string) error {
	filename := recordingFilename(name)
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("recording %s already exists", filename)
	}

	return nil
}

func startRecording(
	opts *options,
	s *simulation.Simulator,
	tracePath string,
) *recording {
	if opts.uniqueIDs {
		sim.UseGlobalIDGenerator()
	}

	rec := &recording{
		filename: recordingFilename(opts.record),
		recorder: datarecording.NewDataRecorder(opts.record),
		counter:  tracing.NewEventCounter(),
	}

	rec.exec = datarecording.NewExecRecorder(rec.recorder)
	rec.exec.Start()
	rec.exec.Record("Trace", tracePath)
	rec.exec.Record("Algorithm", s.PolicyName())
	rec.exec.Record("Number of Frames", strconv.Itoa(s.NumFrames()))

	rec.tracer = tracing.NewDBTracer(rec.recorder)
	tracing.CollectTrace(s, rec.tracer)
	s.AcceptHook(rec.counter)

	return rec
}

func (r *recording) finish(tracePath string, report simulation.RunReport) {
	r.tracer.RecordSummary(tracePath, report)

	for _, name := range r.counter.Names() {
		r.exec.Record(name+" Hooks", strconv.FormatUint(r.counter.Count(name), 10))
	}

	r.exec.End()
}

func (r *recording) close() {
	err := r.recorder.Close()
	if err != nil {
		log.Printf("closing recording: %v", err)
	}
}

// discard drops the records of a run that did not finish. Closing the
// recorder first keeps later flushes from recreating the file.
func (r *recording) discard() {
	r.close()

	err := os.Remove(r.filename)
	if err != nil {
		log.Printf("removing recording: %v", err)
	}
}
