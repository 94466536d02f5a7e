package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/rlmtrace/pkg/utils/test"
)

func resultText(r *sdkmcp.CallToolResult) string {
	ExpectWithOffset(1, r.Content).To(HaveLen(1))
	text, ok := r.Content[0].(*sdkmcp.TextContent)
	ExpectWithOffset(1, ok).To(BeTrue())
	return text.Text
}

var _ = Describe("Trace tools", func() {
	var (
		server *Server
		store  *inmemory.Store
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = inmemory.NewStore()
		for i := range 25 {
			name := "a.txt"
			if i%5 == 0 {
				name = "b.txt"
			}
			trace := testutils.NewTestTrace(fmt.Sprintf("t%02d", i), name, testutils.Epoch.Add(time.Duration(i)*time.Minute), 1)
			Expect(store.Put(ctx, trace)).To(Succeed())
		}

		var err error
		server, err = NewServer(Config{Store: store, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("list_traces", func() {
		It("returns the newest traces up to the default limit", func() {
			result, output, err := server.handleListTraces(ctx, nil, ListTracesInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Count).To(Equal(defaultListLimit))
			Expect(output.Traces[0].ID).To(Equal("t24"))

			var decoded ListTracesOutput
			Expect(json.Unmarshal([]byte(resultText(result)), &decoded)).To(Succeed())
			Expect(decoded.Count).To(Equal(defaultListLimit))
		})

		It("filters by file name and pages", func() {
			_, output, err := server.handleListTraces(ctx, nil, ListTracesInput{FileName: "b.txt", Limit: 2, Offset: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Count).To(Equal(2))
			Expect(output.Traces[0].ID).To(Equal("t15"))
			Expect(output.Traces[1].ID).To(Equal("t10"))
		})

		It("summarizes traces without iterations", func() {
			result, _, err := server.handleListTraces(ctx, nil, ListTracesInput{Limit: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(resultText(result)).NotTo(ContainSubstring("iterations\":["))
			Expect(resultText(result)).To(ContainSubstring("finalAnswer"))
		})

		It("rejects negative paging", func() {
			result, _, err := server.handleListTraces(ctx, nil, ListTracesInput{Limit: -1})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("get_trace", func() {
		It("returns the full trace", func() {
			result, output, err := server.handleGetTrace(ctx, nil, GetTraceInput{ID: "t03"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Trace.ID).To(Equal("t03"))
			Expect(output.Trace.Iterations).To(HaveLen(1))
		})

		It("requires an ID", func() {
			result, _, err := server.handleGetTrace(ctx, nil, GetTraceInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(resultText(result)).To(Equal("id is required"))
		})

		It("reports a missing trace", func() {
			result, _, err := server.handleGetTrace(ctx, nil, GetTraceInput{ID: "nope"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(resultText(result)).To(ContainSubstring("nope"))
		})
	})
})
