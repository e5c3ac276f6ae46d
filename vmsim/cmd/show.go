package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/tracing"
)

func newShowCommand() *cobra.Command {
	var numFaults int

	showCmd := &cobra.Command{
		Use:   "show <recording>",
		Short: "Show the summary of a recorded run.",
		Long: "`show <name>` prints the statistics stored in <name>.sqlite3 " +
			"by `vmsim --record <name>`.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			name := strings.TrimSuffix(args[0], ".sqlite3")

			reader := datarecording.NewSQLiteReader(name)
			err := reader.Init()
			if err != nil {
				return err
			}
			defer reader.Close()

			return showRecording(cmd, reader, numFaults)
		},
	}

	showCmd.Flags().IntVar(&numFaults, "faults", 0,
		"also list the first N page faults")

	return showCmd
}

func showRecording(
	cmd *cobra.Command,
	reader datarecording.DataReader,
	numFaults int,
) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	reader.MapTable("exec_info", datarecording.ExecInfo{})
	reader.MapTable(tracing.SummaryTable, tracing.SummaryRecord{})
	reader.MapTable(tracing.FaultTable, tracing.FaultRecord{})
	reader.MapTable(tracing.EvictTable, tracing.EvictionRecord{})

	execInfo, _, err := reader.Query(ctx, "exec_info",
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, row := range execInfo {
		info := row.(*datarecording.ExecInfo)
		fmt.Fprintf(out, "%s: %s\n", info.Property, info.Value)
	}

	summaries, _, err := reader.Query(ctx, tracing.SummaryTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, row := range summaries {
		printSummary(out, row.(*tracing.SummaryRecord))
	}

	_, numEvictions, err := reader.Query(ctx, tracing.EvictTable,
		datarecording.QueryParams{Limit: 1})
	if err != nil {
		return err
	}

	_, numWritebacks, err := reader.Query(ctx, tracing.EvictTable,
		datarecording.QueryParams{Where: "Writeback = ?", Args: []any{true}, Limit: 1})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Recorded evictions: %d (%d dirty)\n",
		numEvictions, numWritebacks)

	if numFaults <= 0 {
		return nil
	}

	faults, total, err := reader.Query(ctx, tracing.FaultTable,
		datarecording.QueryParams{OrderBy: "TraceIndex", Limit: numFaults})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Recorded faults: %d\n", total)

	for _, row := range faults {
		f := row.(*tracing.FaultRecord)
		fmt.Fprintf(out, "  #%d %s %s page %05x\n",
			f.TraceIndex, f.Kind, f.Address, f.Page)
	}

	return nil
}

func printSummary(out io.Writer, s *tracing.SummaryRecord) {
	fmt.Fprintf(out,
		"Trace: %s\n"+
			"Algorithm: %s\n"+
			"Number of frames: %d\n"+
			"Total memory accesses: %d\n"+
			"Total page faults: %d\n"+
			"Total writes to disk: %d\n",
		s.Trace, s.Algorithm, s.NumFrames,
		s.MemoryAccesses, s.PageFaults, s.Writebacks)
}
