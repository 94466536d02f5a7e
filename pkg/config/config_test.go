package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/rlmtrace/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	Describe("NewConfiger", func() {
		It("targets config.toml in the override directory", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.GetTarget()).To(Equal(filepath.Join(tmpDir, "config.toml")))
		})
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			data := `version = 0

[upstream]
url = "http://producer:9000"
backend = "openai"
max_iterations = 25

[api]
listen = ":9091"

[storage]
sqlite_path = "/tmp/rlmtrace.sqlite"
postgres_dsn = "postgres://localhost/rlmtrace"
libsql_url = "libsql://db.turso.io"
redis_url = "redis://localhost:6379/0"
redis_prefix = "custom:"

[eventstream]
kafka_brokers = "k1:9092,k2:9092"
kafka_topic = "traces"

[capture]
enabled = false
dir = "/var/captures"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Upstream.URL).To(Equal("http://producer:9000"))
			Expect(cfg.Upstream.Backend).To(Equal("openai"))
			Expect(cfg.Upstream.MaxIterations).To(Equal(25))
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.Storage.SQLitePath).To(Equal("/tmp/rlmtrace.sqlite"))
			Expect(cfg.Storage.PostgresDSN).To(Equal("postgres://localhost/rlmtrace"))
			Expect(cfg.Storage.LibSQLURL).To(Equal("libsql://db.turso.io"))
			Expect(cfg.Storage.RedisURL).To(Equal("redis://localhost:6379/0"))
			Expect(cfg.Storage.RedisPrefix).To(Equal("custom:"))
			Expect(cfg.EventStream.KafkaBrokers).To(Equal("k1:9092,k2:9092"))
			Expect(cfg.EventStream.KafkaTopic).To(Equal("traces"))
			Expect(cfg.Capture.Enabled).To(BeFalse())
			Expect(cfg.Capture.Dir).To(Equal("/var/captures"))
		})

		It("fills in defaults for unset fields in a partial config", func() {
			data := `[upstream]
backend = "anthropic"

[api]
listen = ""
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Upstream.Backend).To(Equal("anthropic"))
			Expect(cfg.Upstream.URL).To(Equal(defaults.Upstream.URL))
			Expect(cfg.Upstream.MaxIterations).To(Equal(defaults.Upstream.MaxIterations))
			Expect(cfg.API.Listen).To(Equal(defaults.API.Listen))
			Expect(cfg.EventStream.KafkaTopic).To(Equal(defaults.EventStream.KafkaTopic))
			Expect(cfg.Capture.Enabled).To(BeTrue())
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not valid toml [[["), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(cfg).To(BeNil())
		})

		It("returns error for unsupported config version", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 99\n"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version")))
			Expect(cfg).To(BeNil())
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			cfg := config.NewDefaultConfig()
			cfg.Upstream.Backend = "gemini"
			cfg.Storage.SQLitePath = "/tmp/traces.db"

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(cfg)).To(Succeed())

			_, err = os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(HaveOccurred())
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("upstream.url", "http://remote:8000")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Upstream.URL).To(Equal("http://remote:8000"))
		})

		It("sets an integer config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("upstream.max_iterations", "30")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Upstream.MaxIterations).To(Equal(30))
		})

		It("sets a boolean config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("capture.enabled", "false")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Capture.Enabled).To(BeFalse())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			err = c.SetConfigValue("proxy.provider", "value")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("rejects invalid numeric values", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("upstream.max_iterations", "lots")).To(MatchError(ContainSubstring("invalid value")))
			Expect(c.SetConfigValue("upstream.max_iterations", "-1")).To(MatchError(ContainSubstring("negative")))
			Expect(c.SetConfigValue("capture.enabled", "maybe")).To(MatchError(ContainSubstring("invalid value")))
		})

		It("preserves existing values when setting a new key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("storage.redis_url", "redis://cache:6379")).To(Succeed())
			Expect(c.SetConfigValue("eventstream.kafka_brokers", "kafka:9092")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.RedisURL).To(Equal("redis://cache:6379"))
			Expect(cfg.EventStream.KafkaBrokers).To(Equal("kafka:9092"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			value, err := c.GetConfigValue("upstream.backend")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("cerebras"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			value, err := c.GetConfigValue("storage.postgres_dsn")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(BeEmpty())
		})

		It("formats numbers and booleans", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			value, err := c.GetConfigValue("upstream.max_iterations")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("10"))

			value, err = c.GetConfigValue("capture.enabled")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("true"))
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("nope")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("returns every key in section order", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(HaveLen(13))
			Expect(keys[0]).To(Equal("upstream.url"))
			Expect(keys[len(keys)-1]).To(Equal("capture.dir"))
			Expect(config.ValidConfigKeys()).To(Equal(keys))
		})

		It("contains only valid keys", func() {
			for _, k := range config.ValidConfigKeys() {
				Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
			}
			Expect(config.IsValidConfigKey("embedding.model")).To(BeFalse())
		})
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("parses valid TOML into a Config", func() {
		cfg, err := config.ParseConfigTOML([]byte("[api]\nlisten = \":1234\"\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":1234"))
		Expect(cfg.Upstream.URL).To(BeEmpty())
	})

	It("returns error for invalid TOML", func() {
		_, err := config.ParseConfigTOML([]byte("[[["))
		Expect(err).To(HaveOccurred())
	})

	It("rejects unsupported config version", func() {
		_, err := config.ParseConfigTOML([]byte("version = 2\n"))
		Expect(err).To(MatchError(ContainSubstring("unsupported config version")))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("upstream.url")).To(Equal(defaults.Upstream.URL))
		Expect(v.GetInt("upstream.max_iterations")).To(Equal(defaults.Upstream.MaxIterations))
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
		Expect(v.GetString("eventstream.kafka_topic")).To(Equal(defaults.EventStream.KafkaTopic))
		Expect(v.GetBool("capture.enabled")).To(BeTrue())
	})

	It("reads config file values over defaults", func() {
		data := "[storage]\nsqlite_path = \"/data/traces.db\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("storage.sqlite_path")).To(Equal("/data/traces.db"))
	})

	It("env vars take precedence over config file values", func() {
		data := "[upstream]\nbackend = \"openai\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("RLMTRACE_UPSTREAM_BACKEND", "gemini")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("upstream.backend")).To(Equal("gemini"))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)

		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())
		Expect(config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})).To(Succeed())

		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		data := "[api]\nlisten = \":5555\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
		Expect(config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})).To(Succeed())

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("rejects keys missing from the registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		Expect(config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})).
			To(MatchError(ContainSubstring(`unregistered flag "nonexistent"`)))
	})

	It("skips registered flags the command does not define", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		Expect(config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})).To(Succeed())
		Expect(v.GetString("api.listen")).To(Equal(config.NewDefaultConfig().API.Listen))
	})

	It("AddStringFlag pulls name, shorthand, and description from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var upstream string
		config.AddStringFlag(cmd, config.Flags, config.FlagUpstream, &upstream)

		f := cmd.Flags().Lookup("upstream")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("u"))
		Expect(f.Usage).To(Equal("Base URL of the RLM producer"))
		Expect(f.DefValue).To(Equal(config.NewDefaultConfig().Upstream.URL))
	})

	It("AddUintFlag defaults max-iterations from the config defaults", func() {
		cmd := &cobra.Command{Use: "test"}
		var n uint
		config.AddUintFlag(cmd, config.Flags, config.FlagMaxIterations, &n)

		f := cmd.Flags().Lookup("max-iterations")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("10"))
	})

	It("ignores unknown registry keys when adding flags", func() {
		cmd := &cobra.Command{Use: "test"}
		var s string
		config.AddStringFlag(cmd, config.Flags, "missing", &s)
		Expect(cmd.Flags().HasFlags()).To(BeFalse())
	})
})
