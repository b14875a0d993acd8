// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Source        SourceConfig
	HTTP          HTTPConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service instance.
type ServiceConfig struct {
	Principal string
}

// SourceConfig describes the external transcript source subscription.
type SourceConfig struct {
	// URL of the transcript WebSocket endpoint.
	URL string
	// RetryDelay between a transport failure and the next attempt.
	RetryDelay time.Duration
}

// HTTPConfig configures the API and rebroadcast surface.
type HTTPConfig struct {
	Addr string
}

// KafkaConfig configures the downstream event sink.
type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	TopicPartial     string
	TopicFinal       string
	TopicTranslation string
	Principal        string
}

// ObservabilityConfig configures metrics and logging.
type ObservabilityConfig struct {
	Addr     string
	LogLevel string
}

// Load reads configuration from the environment, applying defaults for
// anything unset or unparseable.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-transcript-bridge")

	return &Config{
		Service: ServiceConfig{
			Principal: principal,
		},
		Source: SourceConfig{
			URL:        envOrDefault("SOURCE_WS_URL", "ws://localhost:8765"),
			RetryDelay: envOrDefaultDuration("SOURCE_RETRY_DELAY", 3*time.Second),
		},
		HTTP: HTTPConfig{
			Addr: envOrDefault("HTTP_ADDR", ":8080"),
		},
		Kafka: KafkaConfig{
			Enabled:          envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:          envOrDefaultList("KAFKA_BROKERS", nil),
			TopicPartial:     envOrDefault("KAFKA_TOPIC_PARTIAL", "transcript.partial"),
			TopicFinal:       envOrDefault("KAFKA_TOPIC_FINAL", "transcript.final"),
			TopicTranslation: envOrDefault("KAFKA_TOPIC_TRANSLATION", "transcript.translation"),
			Principal:        envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			Addr:     envOrDefault("OBSERVABILITY_ADDR", ":9091"),
			LogLevel: envOrDefault("LOG_LEVEL", "info"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return parsed
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
