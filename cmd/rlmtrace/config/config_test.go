package configcmder_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"

	configcmder "github.com/papercomputeco/rlmtrace/cmd/rlmtrace/config"
	"github.com/papercomputeco/rlmtrace/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}

		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(os.Chdir(origDir)).To(Succeed())
		})

		// Create a local .rlmtrace dir so the manager picks it up
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".rlmtrace"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(execute("set", "upstream.backend", "openai")).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmpDir, ".rlmtrace", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`backend = "openai"`))
		})

		It("rejects unknown keys", func() {
			Expect(execute("set", "invalid_key", "value")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(execute("set", "upstream.backend")).To(HaveOccurred())
		})

		It("rejects invalid integer values", func() {
			Expect(execute("set", "upstream.max_iterations", "not-a-number")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(execute("set", "storage.redis_url", "redis://cache:6379")).To(Succeed())
			out.Reset()

			Expect(execute("get", "storage.redis_url")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("redis://cache:6379"))
		})

		It("reports unset keys", func() {
			Expect(execute("get", "storage.postgres_dsn")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(execute("get", "invalid_key")).To(HaveOccurred())
		})

		It("requires a key", func() {
			Expect(execute("get")).To(HaveOccurred())
		})

		It("gets several keys in the order given", func() {
			Expect(execute("set", "storage.redis_prefix", "rlm:")).To(Succeed())
			out.Reset()

			Expect(execute("get", "storage.redis_prefix", "upstream.backend")).To(Succeed())
			got := out.String()
			Expect(got).To(ContainSubstring("rlm:"))
			Expect(strings.Index(got, "storage.redis_prefix")).To(BeNumerically("<", strings.Index(got, "upstream.backend")))
		})

		It("prints unset keys as null in JSON", func() {
			Expect(execute("get", "storage.postgres_dsn", "upstream.backend", "--json")).To(Succeed())

			var got map[string]*string
			Expect(json.Unmarshal(out.Bytes(), &got)).To(Succeed())
			Expect(got).To(HaveKeyWithValue("storage.postgres_dsn", BeNil()))
			Expect(got).To(HaveKeyWithValue("upstream.backend", PointTo(Equal("cerebras"))))
		})
	})

	Describe("list subcommand", func() {
		It("lists defaults when no config exists", func() {
			Expect(execute("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(`upstream.backend`))
			Expect(out.String()).To(ContainSubstring("cerebras"))
			Expect(out.String()).To(ContainSubstring("storage.postgres_dsn"))
		})

		It("lists every key grouped by section in file order", func() {
			Expect(execute("list")).To(Succeed())
			got := out.String()

			last := -1
			for _, key := range config.ValidConfigKeys() {
				i := strings.Index(got, key)
				Expect(i).To(BeNumerically(">", last), key)
				last = i
			}

			for _, section := range []string{"[upstream]", "[api]", "[storage]", "[eventstream]", "[capture]"} {
				Expect(strings.Count(got, section)).To(Equal(1), section)
			}
		})

		It("lists every key as JSON", func() {
			Expect(execute("list", "--json")).To(Succeed())

			var got map[string]*string
			Expect(json.Unmarshal(out.Bytes(), &got)).To(Succeed())
			Expect(got).To(HaveLen(len(config.ValidConfigKeys())))
			Expect(got).To(HaveKeyWithValue("storage.postgres_dsn", BeNil()))
		})

		It("rejects any arguments", func() {
			Expect(execute("list", "extra")).To(HaveOccurred())
		})
	})
})
