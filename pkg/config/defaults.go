package config

import (
	"github.com/papercomputeco/rlmtrace/pkg/eventstream/kafka"
	"github.com/papercomputeco/rlmtrace/pkg/storage/redis"
	"github.com/papercomputeco/rlmtrace/pkg/transport"
)

const (
	defaultUpstreamURL = "http://localhost:8000"
	defaultAPIListen   = ":8081"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Upstream: UpstreamConfig{
			URL:           defaultUpstreamURL,
			Backend:       transport.DefaultBackend,
			MaxIterations: transport.DefaultMaxIterations,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Storage: StorageConfig{
			RedisPrefix: redis.DefaultPrefix,
		},
		EventStream: EventStreamConfig{
			KafkaTopic: kafka.DefaultTopic,
		},
		Capture: CaptureConfig{
			Enabled: true,
		},
	}
}
