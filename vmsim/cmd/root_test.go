package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmsim/framepool"
	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/simulation"
)

func captureStderr(f func()) string {
	r, w, err := os.Pipe()
	Expect(err).NotTo(HaveOccurred())

	saved := os.Stderr
	os.Stderr = w

	defer func() { os.Stderr = saved }()

	f()

	Expect(w.Close()).To(Succeed())

	out, err := io.ReadAll(r)
	Expect(err).NotTo(HaveOccurred())

	return string(out)
}

var _ = Describe("vmsim", func() {
	var (
		dir       string
		tracePath string
		env       map[string]string
		stdout    *bytes.Buffer
		stderr    *bytes.Buffer
	)

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		return path
	}

	run := func(args ...string) error {
		opts := newOptions()
		opts.envFile = filepath.Join(dir, ".env")
		opts.lookupEnv = func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		}

		c := newRootCommand(opts)
		c.SetArgs(args)
		c.SetOut(stdout)
		c.SetErr(stderr)

		return c.Execute()
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		env = map[string]string{}
		stdout = new(bytes.Buffer)
		stderr = new(bytes.Buffer)

		tracePath = writeFile("gcc.trace", strings.Join([]string{
			"==13== Lackey, an example Valgrind tool",
			"I  0000000C,3",
			" L 00002000,8",
			" S 00000004,4",
			" M 00004010,4",
			"I  00002004,2",
			"",
		}, "\n"))
	})

	It("should print the report", func() {
		err := run("-n", "2", "-a", "lru", tracePath)

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(Equal(
			"Algorithm: lru\n" +
				"Number of frames: 2\n" +
				"Total memory accesses: 6\n" +
				"Total page faults: 4\n" +
				"Total writes to disk: 1\n" +
				"Number of page table leaves: 512\n" +
				"Total size of page table: 2099200 bytes\n"))
	})

	It("should accept long flag names", func() {
		err := run("--frames", "8", "--algorithm", "opt", tracePath)

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(ContainSubstring("Algorithm: opt\n"))
		Expect(stdout.String()).To(ContainSubstring("Total page faults: 3\n"))
	})

	It("should reject a missing trace file argument", func() {
		err := run("-n", "2", "-a", "lru")

		Expect(err).To(HaveOccurred())
		Expect(stdout.String()).NotTo(ContainSubstring("Algorithm"))
		Expect(stdout.String() + stderr.String()).To(ContainSubstring("Usage:"))
	})

	It("should reject invalid frame counts", func() {
		err := run("-n", "0", "-a", "lru", tracePath)

		Expect(err).To(MatchError(simulation.ErrInvalidFrameCount))
		Expect(stdout.String()).NotTo(ContainSubstring("Algorithm"))
	})

	It("should reject unknown algorithms", func() {
		err := run("-n", "2", "-a", "fifo", tracePath)

		Expect(err).To(MatchError(framepool.ErrUnknownPolicy))
	})

	It("should not print a report for a malformed trace", func() {
		bad := writeFile("bad.trace", "I 0000000C\nQ 00000000\n")

		err := run("-n", "2", "-a", "clock", bad)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("line 2"))
		Expect(stdout.String()).To(BeEmpty())
	})

	DescribeTable("should not print a report or usage for a missing trace",
		func(algorithm string) {
			err := run("-n", "2", "-a", algorithm,
				filepath.Join(dir, "none.trace"))

			Expect(err).To(HaveOccurred())
			Expect(stdout.String()).To(BeEmpty())
			Expect(stderr.String()).NotTo(ContainSubstring("Usage:"))
		},
		Entry("OPT reads the trace while building", "opt"),
		Entry("LRU reads the trace while running", "lru"),
		Entry("CLOCK reads the trace while running", "clock"),
	)

	It("should take defaults from the env file", func() {
		writeFile(".env", "VMSIM_FRAMES=1\nVMSIM_ALGORITHM=clock\n")

		err := run(tracePath)

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(ContainSubstring("Algorithm: clock\n"))
		Expect(stdout.String()).To(ContainSubstring("Number of frames: 1\n"))
	})

	It("should prefer flags and the environment over the env file", func() {
		writeFile(".env", "VMSIM_FRAMES=1\nVMSIM_ALGORITHM=clock\n")
		env["VMSIM_ALGORITHM"] = "opt"

		err := run("-n", "3", tracePath)

		Expect(err).NotTo(HaveOccurred())
		Expect(stdout.String()).To(ContainSubstring("Algorithm: opt\n"))
		Expect(stdout.String()).To(ContainSubstring("Number of frames: 3\n"))
	})

	It("should fail on an explicit env file that does not exist", func() {
		err := run("--env-file", filepath.Join(dir, "missing.env"),
			"-n", "1", "-a", "lru", tracePath)

		Expect(err).To(HaveOccurred())
		Expect(stdout.String()).To(BeEmpty())
		Expect(stderr.String()).NotTo(ContainSubstring("Usage:"))
	})

	It("should reject malformed numbers in the environment", func() {
		env["VMSIM_FRAMES"] = "many"

		err := run("-a", "lru", tracePath)

		Expect(err).To(HaveOccurred())
	})

	It("should log hooks when verbose", func() {
		err := run("-v", "-n", "1", "-a", "lru", tracePath)

		Expect(err).NotTo(HaveOccurred())
		Expect(stderr.String()).To(ContainSubstring("Fault"))
		Expect(stderr.String()).To(ContainSubstring("Evict"))
	})

	It("should record a run that can be shown", func() {
		name := filepath.Join(dir, "run")

		err := run("-n", "1", "-a", "lru", "--record", name, tracePath)
		Expect(err).NotTo(HaveOccurred())
		Expect(name + ".sqlite3").To(BeAnExistingFile())

		stdout.Reset()
		err = run("show", name+".sqlite3", "--faults", "2")

		Expect(err).NotTo(HaveOccurred())
		out := stdout.String()
		Expect(out).To(ContainSubstring("Trace: " + tracePath + "\n"))
		Expect(out).To(ContainSubstring("Algorithm: lru\n"))
		Expect(out).To(ContainSubstring("Total page faults: 5\n"))
		Expect(out).To(ContainSubstring("Total writes to disk: 2\n"))
		Expect(out).To(ContainSubstring("Recorded evictions: 4 (2 dirty)\n"))
		Expect(out).To(ContainSubstring("Recorded faults: 5\n"))
		Expect(out).To(ContainSubstring("  #0 I 0000000c page 00000\n"))
		Expect(out).To(ContainSubstring("Fault Hooks: 5\n"))
	})

	It("should refuse to overwrite a recording", func() {
		name := filepath.Join(dir, "run")
		writeFile("run.sqlite3", "")

		err := run("-n", "1", "-a", "lru", "--record", name, tracePath)

		Expect(err).To(HaveOccurred())
		Expect(stdout.String()).To(BeEmpty())
	})

	It("should check the recording before reading the trace", func() {
		name := filepath.Join(dir, "run")
		writeFile("run.sqlite3", "")

		err := run("-n", "1", "-a", "opt", "--record", name,
			filepath.Join(dir, "none.trace"))

		Expect(err).To(MatchError(ContainSubstring("already exists")))
	})

	It("should not keep the recording of a failed run", func() {
		name := filepath.Join(dir, "run")
		bad := writeFile("bad.trace", "I 0000000C\nL 00002000\nQ 00000000\n")

		err := run("-n", "1", "-a", "lru", "--record", name, bad)

		Expect(err).To(HaveOccurred())
		Expect(name + ".sqlite3").NotTo(BeAnExistingFile())
		Expect(stdout.String()).To(BeEmpty())
	})

	It("should create a monitor on a random port without warnings", func() {
		var monitor *monitoring.Monitor

		output := captureStderr(func() {
			opts := newOptions()
			opts.monitor = true
			monitor = newMonitor(opts)
		})

		Expect(monitor).NotTo(BeNil())
		Expect(output).To(BeEmpty())
	})

	It("should pass a privileged monitor port to the monitor", func() {
		output := captureStderr(func() {
			opts := newOptions()
			opts.monitorPort = 80
			newMonitor(opts)
		})

		Expect(output).To(ContainSubstring("Port number 80"))
	})

	It("should fail to show a recording that does not exist", func() {
		err := run("show", filepath.Join(dir, "nothing"))

		Expect(err).To(HaveOccurred())
	})
})
