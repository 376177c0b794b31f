package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service. Values come
// from the environment so main stays lean; optional collaborators (Postgres,
// Redis, Kafka, the labeler) degrade to in-process substitutes when unset.
type Config struct {
	Addr string

	// CompanyTaxID is "our" identifier, used to tell expenses from income.
	CompanyTaxID string

	// DatabaseURL selects the Postgres event store; empty means in-memory.
	DatabaseURL string

	// RedisURL selects the Redis projection cache; empty means in-memory.
	RedisURL string
	// ProjectionTTL bounds how long a cached snapshot may outlive its last
	// read before the log is replayed again.
	ProjectionTTL time.Duration

	// KafkaBrokers and KafkaTopic configure the audit feed; empty brokers
	// disable it.
	KafkaBrokers []string
	KafkaTopic   string

	// RatesBaseURL overrides the exchange-rate source host (tests, proxies).
	RatesBaseURL  string
	RatesTimeout  time.Duration
	RatesCacheTTL time.Duration

	// OpenAIKey and OpenAIModel configure the classification labeler; an
	// empty key disables the model fallback and leaves rule-only matching.
	OpenAIKey      string
	OpenAIModel    string
	LabelerTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("TAXRELIEF_ADDR", ":8080"),
		CompanyTaxID:   os.Getenv("TAXRELIEF_COMPANY_TAX_ID"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ProjectionTTL:  durationOr("TAXRELIEF_PROJECTION_TTL", time.Hour),
		KafkaTopic:     envOr("TAXRELIEF_AUDIT_TOPIC", "taxrelief.record-events"),
		RatesBaseURL:   os.Getenv("TAXRELIEF_RATES_BASE_URL"),
		RatesTimeout:   durationOr("TAXRELIEF_RATES_TIMEOUT", 5*time.Second),
		RatesCacheTTL:  durationOr("TAXRELIEF_RATES_CACHE_TTL", 12*time.Hour),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    os.Getenv("TAXRELIEF_OPENAI_MODEL"),
		LabelerTimeout: durationOr("TAXRELIEF_LABELER_TIMEOUT", 10*time.Second),
	}
	if brokers := os.Getenv("TAXRELIEF_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
