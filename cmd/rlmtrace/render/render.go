// Package render formats sessions and traces for the terminal.
package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/papercomputeco/rlmtrace/pkg/cliui"
	"github.com/papercomputeco/rlmtrace/pkg/ingest"
	"github.com/papercomputeco/rlmtrace/pkg/rlm"
	"github.com/papercomputeco/rlmtrace/pkg/rlm/education"
	"github.com/papercomputeco/rlmtrace/pkg/utils"
)

const previewLen = 60

// IterationLine is the one-line progress entry of a finalized iteration.
func IterationLine(it rlm.Iteration) string {
	mark := cliui.SuccessMark
	if it.HasErrors() {
		mark = cliui.FailMark
	}

	phase := education.Classify(it)
	return fmt.Sprintf("  %s iteration %d  %s %s",
		mark,
		it.Index,
		cliui.KeyStyle.Render(string(phase)),
		cliui.StepStyle.Render(fmt.Sprintf("(%d code blocks, %d sub-calls, %s)",
			len(it.CodeBlocks),
			it.SubCallCount(),
			cliui.FormatDuration(seconds(it.IterationTime)),
		)),
	)
}

// Progress prints finalized iterations as snapshots arrive. On a terminal it
// also keeps a live status line showing the iteration in progress.
type Progress struct {
	w       io.Writer
	live    bool
	printed int
	status  bool
}

// NewProgress returns a progress printer. Live status lines are only drawn
// when live is set.
func NewProgress(w io.Writer, live bool) *Progress {
	return &Progress{w: w, live: live}
}

// Update prints what changed since the previous snapshot.
func (p *Progress) Update(snap ingest.Snapshot) {
	p.clear()

	for _, it := range snap.Iterations[min(p.printed, len(snap.Iterations)):] {
		fmt.Fprintln(p.w, IterationLine(it))
	}
	p.printed = len(snap.Iterations)

	if !p.live {
		return
	}

	preview := utils.Truncate(lastLine(snap.StreamingText), previewLen)
	fmt.Fprintf(p.w, "  %s %s %s",
		cliui.DimStyle.Render("…"),
		cliui.DimStyle.Render(fmt.Sprintf("iteration %d", snap.CurrentIteration)),
		cliui.StepStyle.Render(preview),
	)
	p.status = true
}

// Finish removes the live status line.
func (p *Progress) Finish() {
	p.clear()
}

func (p *Progress) clear() {
	if p.status {
		fmt.Fprint(p.w, "\r\x1b[2K")
		p.status = false
	}
}

// TraceMarkdown renders a trace as markdown.
func TraceMarkdown(t rlm.Trace) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t.FileName)
	if t.Question != "" {
		fmt.Fprintf(&b, "> %s\n\n", t.Question)
	}

	b.WriteString("## Answer\n\n")
	if t.Metadata.FinalAnswer != nil && *t.Metadata.FinalAnswer != "" {
		b.WriteString(*t.Metadata.FinalAnswer)
	} else {
		b.WriteString("_No final answer._")
	}
	b.WriteString("\n\n## Iterations\n\n")

	if len(t.Iterations) == 0 {
		b.WriteString("_None._\n\n")
	} else {
		b.WriteString("| # | Phase | Code blocks | Sub-calls | Time |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, it := range t.Iterations {
			fmt.Fprintf(&b, "| %d | %s | %d | %d | %s |\n",
				it.Index,
				education.Info(education.Classify(it)).Title,
				len(it.CodeBlocks),
				it.SubCallCount(),
				cliui.FormatDuration(seconds(it.IterationTime)),
			)
		}
		b.WriteString("\n")
	}

	m := t.Metadata
	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "- **Iterations:** %d\n", m.TotalIterations)
	fmt.Fprintf(&b, "- **Code blocks:** %d\n", m.TotalCodeBlocks)
	fmt.Fprintf(&b, "- **Sub-LM calls:** %d\n", m.TotalSubLMCalls)
	fmt.Fprintf(&b, "- **Tokens:** %d prompt, %d completion\n", m.TotalPromptTokens, m.TotalCompletionTokens)
	fmt.Fprintf(&b, "- **Execution time:** %s\n", cliui.FormatDuration(seconds(m.TotalExecutionTime)))
	if t.Config.RootModel != "" {
		fmt.Fprintf(&b, "- **Model:** %s (%s)\n", t.Config.RootModel, t.Config.Backend)
	}
	if m.HasErrors {
		b.WriteString("- **Errors:** some code blocks wrote to stderr\n")
	}

	return b.String()
}

// Trace writes the trace rendered for a terminal of the given width.
// Rendering failures fall back to the raw markdown.
func Trace(w io.Writer, t rlm.Trace, width int) error {
	out, err := cliui.RenderMarkdown(TraceMarkdown(t), width)
	if _, werr := io.WriteString(w, out); werr != nil {
		return werr
	}
	return err
}

// SummaryLine is the one-line listing entry of a stored trace.
func SummaryLine(s rlm.TraceSummary) string {
	answer := "-"
	if s.Metadata.FinalAnswer != nil {
		answer = utils.Truncate(utils.FirstLine(*s.Metadata.FinalAnswer), previewLen)
	}
	return fmt.Sprintf("%s  %s  %s  %s  %s",
		cliui.DimStyle.Render(s.CreatedAt.Local().Format(time.DateTime)),
		cliui.KeyStyle.Render(s.ID),
		cliui.ValueStyle.Render(s.FileName),
		cliui.StepStyle.Render(fmt.Sprintf("%d iterations", s.Metadata.TotalIterations)),
		answer,
	)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Follow prints the progress of sub until it ends and returns its outcome.
// Cancelling ctx cancels the session; Follow still waits for it to settle.
func Follow(ctx context.Context, sub *ingest.Subscription, p *Progress) ingest.Outcome {
	updates := sub.Updates()
	done := ctx.Done()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				p.Finish()
				o, _ := sub.Outcome()
				return o
			}
			p.Update(snap)

		case <-done:
			sub.Cancel()
			done = nil
		}
	}
}
