package config

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag describes a CLI flag shared by several commands, such as --upstream on
// both "rlmtrace run" and "rlmtrace serve". Commands register flags by
// registry key so every command spells them the same way.
type Flag struct {
	// Name is the long flag name (e.g. "upstream").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "upstream.url").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet maps registry keys to flags.
type FlagSet map[string]Flag

// Registry keys of Flags.
const (
	FlagUpstream      = "upstream"
	FlagBackend       = "backend"
	FlagMaxIterations = "max-iterations"
	FlagAPIListen     = "listen"
	FlagSQLite        = "sqlite"
	FlagPostgres      = "postgres"
	FlagLibSQL        = "libsql"
	FlagRedis         = "redis"
	FlagKafkaBrokers  = "kafka-brokers"
	FlagKafkaTopic    = "kafka-topic"
	FlagCaptureDir    = "capture-dir"
)

// Flags is the registry shared by every rlmtrace command.
var Flags = FlagSet{
	FlagUpstream:      {Name: "upstream", Shorthand: "u", ViperKey: "upstream.url", Description: "Base URL of the RLM producer"},
	FlagBackend:       {Name: "backend", Shorthand: "b", ViperKey: "upstream.backend", Description: "Model backend the producer should use"},
	FlagMaxIterations: {Name: "max-iterations", Shorthand: "n", ViperKey: "upstream.max_iterations", Description: "Upper bound on reasoning iterations"},
	FlagAPIListen:     {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for API server to listen on"},
	FlagSQLite:        {Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path", Description: "Path to SQLite database (default: in-memory)"},
	FlagPostgres:      {Name: "postgres", ViperKey: "storage.postgres_dsn", Description: "PostgreSQL connection string"},
	FlagLibSQL:        {Name: "libsql", ViperKey: "storage.libsql_url", Description: "libSQL or Turso database URL"},
	FlagRedis:         {Name: "redis", ViperKey: "storage.redis_url", Description: "Redis URL for trace storage"},
	FlagKafkaBrokers:  {Name: "kafka-brokers", ViperKey: "eventstream.kafka_brokers", Description: "Comma separated Kafka brokers for trace events"},
	FlagKafkaTopic:    {Name: "kafka-topic", ViperKey: "eventstream.kafka_topic", Description: "Kafka topic for trace events"},
	FlagCaptureDir:    {Name: "capture-dir", ViperKey: "capture.dir", Description: "Directory for raw stream captures"},
}

// AddStringFlag registers the string flag key on cmd. Name, shorthand,
// default and description all come from the registry entry.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}
	cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaults().GetString(def.ViperKey), def.Description)
}

// AddUintFlag registers the uint flag key on cmd.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string, target *uint) {
	def, ok := fs[key]
	if !ok {
		return
	}
	cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaults().GetUint(def.ViperKey), def.Description)
}

// BindRegisteredFlags binds the flags registered on cmd for keys to their
// viper keys, so a flag set on the command line beats env, file and default
// values. Keys whose flag is not on cmd are skipped; keys missing from fs
// are an error.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, keys []string) error {
	for _, key := range keys {
		def, ok := fs[key]
		if !ok {
			return fmt.Errorf("unregistered flag %q", key)
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(def.ViperKey, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", def.Name, err)
		}
	}
	return nil
}

// defaults holds NewDefaultConfig under its viper keys.
var defaults = sync.OnceValue(func() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
})
