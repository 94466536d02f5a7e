package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/rlmtrace/api/mcp"
	rlmlogger "github.com/papercomputeco/rlmtrace/pkg/logger"
	"github.com/papercomputeco/rlmtrace/pkg/storage/inmemory"
)

var _ = Describe("MCP Server", func() {
	var (
		server *mcp.Server
		store  *inmemory.Store
	)

	BeforeEach(func() {
		store = inmemory.NewStore()

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Store:  store,
			Logger: rlmlogger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the store is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Logger: rlmlogger.Nop(),
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("trace store is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Store: store,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates an empty server in noop mode", func() {
			s, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("creates a server with valid config", func() {
			Expect(server).NotTo(BeNil())
			Expect(server.MCPServer()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			handler := server.Handler()
			Expect(handler).NotTo(BeNil())
		})
	})
})
