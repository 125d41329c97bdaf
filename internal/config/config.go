// Package config reads service settings from the environment. A .env file
// in the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	ServiceVersion string
	OTLPEndpoint   string

	PostgresURL string
	RedisURL    string

	KafkaBrokers     []string
	OrderEventsTopic string
	DeliveryTopic    string

	Currency string

	StorefrontURL      string
	CORSAllowedOrigins []string
}

// Load reads the settings shared by every binary. Required settings are
// checked by the Require* helpers so each binary asks only for what it uses.
func Load(defaultPort string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return &Config{
		Port:               getEnv("PORT", defaultPort),
		ServiceVersion:     getEnv("SERVICE_VERSION", "0.1.0"),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		PostgresURL:        os.Getenv("POSTGRES_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic:   getEnv("ORDER_EVENTS_TOPIC", "order.events"),
		DeliveryTopic:      getEnv("DELIVERY_TOPIC", "delivery.confirmed"),
		Currency:           getEnv("CURRENCY", "USD"),
		StorefrontURL:      os.Getenv("STOREFRONT_URL"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}, nil
}

func (c *Config) RequirePostgres() error {
	if c.PostgresURL == "" {
		return errors.New("POSTGRES_URL must be set")
	}
	return nil
}

func (c *Config) RequireKafka() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS must be set")
	}
	return nil
}

func (c *Config) RequireStorefront() error {
	if c.StorefrontURL == "" {
		return errors.New("STOREFRONT_URL must be set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
