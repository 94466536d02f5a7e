package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rlmtrace/pkg/cliui"
)

var _ = Describe("Step", func() {
	It("prints a success line for a non-terminal writer", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "loading", func() error { return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("loading"))
		Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
		Expect(buf.String()).To(HaveSuffix("\n"))
	})

	It("returns the error from fn and marks the step failed", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")
		err := cliui.Step(&buf, "saving", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below one second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses seconds with one decimal above one second", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("Terminal detection", func() {
	It("treats buffers as non-terminals", func() {
		var buf bytes.Buffer
		Expect(cliui.IsTerminal(&buf)).To(BeFalse())
		Expect(cliui.Width(&buf)).To(Equal(80))
	})
})

var _ = Describe("RenderMarkdown", func() {
	It("renders headings and keeps the text", func() {
		out, err := cliui.RenderMarkdown("# Answer\n\nforty two", 60)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Answer"))
		Expect(out).To(ContainSubstring("forty two"))
	})
})

var _ = Describe("KeyValue", func() {
	It("contains key and value", func() {
		line := cliui.KeyValue("iterations", 12, "3")
		Expect(line).To(ContainSubstring("iterations"))
		Expect(line).To(ContainSubstring("3"))
	})
})
