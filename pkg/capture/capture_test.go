package capture_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rlmtrace/pkg/capture"
)

var _ = Describe("Dir", func() {
	var dir *capture.Dir

	BeforeEach(func() {
		var err error
		dir, err = capture.NewDir(filepath.Join(GinkgoT().TempDir(), "captures"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates one capture file per session", func() {
		w, err := dir.Create("abc")
		Expect(err).NotTo(HaveOccurred())
		_, err = io.WriteString(w, "data: {}\n\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Close()).To(Succeed())

		b, err := os.ReadFile(dir.File("abc"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal("data: {}\n\n"))

		_, err = dir.Create("abc")
		Expect(err).To(HaveOccurred())
	})

	It("lists only capture files", func() {
		for _, id := range []string{"b", "a"} {
			w, err := dir.Create(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Close()).To(Succeed())
		}
		Expect(os.WriteFile(filepath.Join(dir.Path(), "notes.txt"), nil, 0o600)).To(Succeed())

		files, err := dir.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(Equal([]string{dir.File("a"), dir.File("b")}))
	})
})

const (
	tokenFrame    = "data: {\"type\":\"token\",\"content\":\"hi\"}\n\n"
	completeFrame = "data: {\"type\":\"complete\"}\n\n"
)

var _ = Describe("Finished", func() {
	write := func(body string) string {
		path := filepath.Join(GinkgoT().TempDir(), "run"+capture.Ext)
		Expect(os.WriteFile(path, []byte(body), 0o600)).To(Succeed())
		return path
	}

	DescribeTable("reports whether the last event is terminal",
		func(body string, want bool) {
			finished, err := capture.Finished(write(body))
			Expect(err).NotTo(HaveOccurred())
			Expect(finished).To(Equal(want))
		},
		Entry("complete", tokenFrame+completeFrame, true),
		Entry("error", tokenFrame+"data: {\"type\":\"error\",\"message\":\"boom\"}\n\n", true),
		Entry("complete followed by malformed frames", completeFrame+"data: {}\n\n", true),
		Entry("still streaming", tokenFrame, false),
		Entry("terminal frame cut off", tokenFrame+"data: {\"type\":\"comp", false),
		Entry("empty", "", false),
	)

	It("fails for a missing capture", func() {
		_, err := capture.Finished(filepath.Join(GinkgoT().TempDir(), "gone"+capture.Ext))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Watcher", func() {
	It("reports a capture once writes settle", func() {
		dir := GinkgoT().TempDir()
		w := capture.NewWatcher(dir, 50*time.Millisecond, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		seen := make(chan string, 8)
		errCh := make(chan error, 1)
		go func() {
			errCh <- w.Run(ctx, func(_ context.Context, path string) { seen <- path })
		}()

		path := filepath.Join(dir, "run"+capture.Ext)
		// Give the watcher time to register the directory.
		time.Sleep(100 * time.Millisecond)
		Expect(os.WriteFile(path, []byte(completeFrame), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600)).To(Succeed())

		Eventually(seen, 2*time.Second).Should(Receive(Equal(path)))
		Consistently(seen, 200*time.Millisecond).ShouldNot(Receive())

		cancel()
		Eventually(errCh).Should(Receive(WithTransform(func(err error) bool {
			return errors.Is(err, context.Canceled)
		}, BeTrue())))
	})

	It("waits for a capture to end before reporting it", func() {
		dir := GinkgoT().TempDir()
		w := capture.NewWatcher(dir, 50*time.Millisecond, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		seen := make(chan string, 8)
		go func() {
			_ = w.Run(ctx, func(_ context.Context, path string) { seen <- path })
		}()

		path := filepath.Join(dir, "live"+capture.Ext)
		time.Sleep(100 * time.Millisecond)
		Expect(os.WriteFile(path, []byte(tokenFrame), 0o600)).To(Succeed())

		// Writes pause for several debounce intervals mid-session.
		Consistently(seen, 300*time.Millisecond).ShouldNot(Receive())

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
		Expect(err).NotTo(HaveOccurred())
		_, err = io.WriteString(f, completeFrame)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())

		Eventually(seen, 2*time.Second).Should(Receive(Equal(path)))
	})

	It("fails for a missing directory", func() {
		w := capture.NewWatcher("/nonexistent/captures", 0, nil)
		Expect(w.Run(context.Background(), func(context.Context, string) {})).To(HaveOccurred())
	})
})
