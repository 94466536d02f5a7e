package replaycmder_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	rlmtracecmder "github.com/papercomputeco/rlmtrace/cmd/rlmtrace"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/storage"
	"github.com/papercomputeco/rlmtrace/pkg/storage/sqlite"
	testutils "github.com/papercomputeco/rlmtrace/pkg/utils/test"
)

var _ = Describe("replay command", func() {
	var (
		configDir string
		stdout    *gbytes.Buffer
		stderr    *gbytes.Buffer
	)

	execute := func(ctx context.Context, args ...string) error {
		cmd := rlmtracecmder.NewRLMTraceCmd()
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		cmd.SetArgs(append(args, "--config-dir", configDir))
		return cmd.ExecuteContext(ctx)
	}

	writeCapture := func(dir, name, stream string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(stream), 0o600)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		configDir = GinkgoT().TempDir()
		stdout = gbytes.NewBuffer()
		stderr = gbytes.NewBuffer()
	})

	It("ingests a capture under its session ID", func() {
		path := writeCapture(GinkgoT().TempDir(), "session-1.sse", testutils.CompleteStream)
		dbPath := filepath.Join(configDir, "traces.db")

		Expect(execute(context.Background(), "replay", path, "--json", "--sqlite", dbPath)).To(Succeed())

		var trace rlm.Trace
		Expect(json.Unmarshal(stdout.Contents(), &trace)).To(Succeed())
		Expect(trace.ID).To(Equal("session-1"))
		Expect(trace.FileName).To(Equal("session-1.sse"))
		Expect(trace.Metadata.FinalAnswer).To(HaveValue(Equal("42")))

		store, err := sqlite.NewStore(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		stored, err := store.Get(context.Background(), "session-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Iterations).To(HaveLen(2))
	})

	It("replaces the trace when a capture is replayed twice", func() {
		path := writeCapture(GinkgoT().TempDir(), "session-2.sse", testutils.CompleteStream)
		dbPath := filepath.Join(configDir, "traces.db")

		Expect(execute(context.Background(), "replay", path, "--sqlite", dbPath)).To(Succeed())
		Expect(execute(context.Background(), "replay", path, "--sqlite", dbPath)).To(Succeed())

		store, err := sqlite.NewStore(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		traces, err := store.List(context.Background(), storage.TraceQuery{})
		Expect(err).NotTo(HaveOccurred())
		Expect(traces).To(HaveLen(1))
	})

	It("fails for a truncated capture", func() {
		truncated := "data: {\"type\":\"token\",\"iteration\":1,\"content\":\"lo\"}\n\n"
		path := writeCapture(GinkgoT().TempDir(), "cut.sse", truncated)

		err := execute(context.Background(), "replay", path)
		Expect(err).To(MatchError(ContainSubstring("without a terminal event")))
	})

	It("requires a capture without --watch", func() {
		Expect(execute(context.Background(), "replay")).To(MatchError(ContainSubstring("capture file is required")))
	})

	It("ingests captures that appear while watching", func() {
		dir := GinkgoT().TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)

		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- execute(ctx, "replay", "--watch", dir, "--debounce", "50ms")
		}()

		Eventually(stderr).Should(gbytes.Say("watching captures"))
		writeCapture(dir, "live.sse", testutils.CompleteStream)

		Eventually(stdout).Should(gbytes.Say("live"))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})

	It("leaves a capture alone while its session is still streaming", func() {
		dir := GinkgoT().TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)

		done := make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- execute(ctx, "replay", "--watch", dir, "--debounce", "50ms")
		}()

		Eventually(stderr).Should(gbytes.Say("watching captures"))
		path := writeCapture(dir, "open.sse", "data: {\"type\":\"token\",\"iteration\":1,\"content\":\"hi\"}\n\n")

		Consistently(stdout, 300*time.Millisecond).ShouldNot(gbytes.Say("open"))
		Expect(stderr.Contents()).NotTo(ContainSubstring("replay failed"))

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
		Expect(err).NotTo(HaveOccurred())
		_, err = f.WriteString("data: {\"type\":\"complete\"}\n\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())

		Eventually(stdout).Should(gbytes.Say("open"))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})
