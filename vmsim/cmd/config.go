package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables that provide flag defaults.
const (
	envFrames      = "VMSIM_FRAMES"
	envAlgorithm   = "VMSIM_ALGORITHM"
	envRecord      = "VMSIM_RECORD"
	envMonitorPort = "VMSIM_MONITOR_PORT"
)

const defaultEnvFile = ".env"

// options holds the flags of the root command.
type options struct {
	numFrames    int
	algorithm    string
	record       string
	monitor      bool
	monitorPort  int
	openBrowser  bool
	envFile      string
	verbose      bool
	uniqueIDs    bool
	lookupEnv    func(string) (string, bool)
	readEnvFiles func(...string) (map[string]string, error)
}

func newOptions() *options {
	return &options{
		envFile:      defaultEnvFile,
		lookupEnv:    os.LookupEnv,
		readEnvFiles: godotenv.Read,
	}
}

func (o *options) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.IntVarP(&o.numFrames, "frames", "n", 0,
		"number of physical frames (env "+envFrames+")")
	flags.StringVarP(&o.algorithm, "algorithm", "a", "",
		"replacement policy: opt, clock or lru (env "+envAlgorithm+")")
	flags.StringVar(&o.record, "record", "",
		"record faults and evictions into <name>.sqlite3 (env "+envRecord+")")
	flags.BoolVar(&o.monitor, "monitor", false,
		"serve the progress of the run over HTTP")
	flags.IntVar(&o.monitorPort, "monitor-port", 0,
		"port of the monitoring server, random if unset (env "+
			envMonitorPort+")")
	flags.BoolVar(&o.openBrowser, "open-browser", false,
		"open the monitoring page in a browser")
	flags.StringVar(&o.envFile, "env-file", o.envFile,
		"file with VMSIM_* defaults")
	flags.BoolVarP(&o.verbose, "verbose", "v", false,
		"log every access, fault and eviction to stderr")
	flags.BoolVar(&o.uniqueIDs, "unique-ids", false,
		"give recorded rows globally unique IDs")
}

// applyEnv fills the flags that are not set on the command line from the
// environment and the env file. The environment wins over the file.
func (o *options) applyEnv(cmd *cobra.Command) error {
	fileVars, err := o.readEnvFiles(o.envFile)
	if err != nil {
		missingDefault := errors.Is(err, fs.ErrNotExist) &&
			!cmd.Flags().Changed("env-file")
		if !missingDefault {
			return fmt.Errorf("reading env file: %w", err)
		}

		fileVars = nil
	}

	lookup := func(key string) (string, bool) {
		if v, ok := o.lookupEnv(key); ok {
			return v, true
		}

		v, ok := fileVars[key]

		return v, ok
	}

	flags := cmd.Flags()

	if v, ok := lookup(envFrames); ok && !flags.Changed("frames") {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envFrames, err)
		}

		o.numFrames = n
	}

	if v, ok := lookup(envAlgorithm); ok && !flags.Changed("algorithm") {
		o.algorithm = v
	}

	if v, ok := lookup(envRecord); ok && !flags.Changed("record") {
		o.record = v
	}

	if v, ok := lookup(envMonitorPort); ok && !flags.Changed("monitor-port") {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envMonitorPort, err)
		}

		o.monitorPort = port
	}

	return nil
}
