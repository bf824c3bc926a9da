package config

import (
	"os"
	"strings"

	xstrings "quorum/pkg/platform/strings"
)

// Server captures process-level configuration. FromEnv keeps main lean.
type Server struct {
	Addr          string
	DatabaseURL   string
	VerifyBaseURL string

	// Object storage (S3-compatible).
	StorageRegion   string
	StorageEndpoint string

	// Optional best-effort collaborators. Empty disables the integration.
	AnalysisEndpoint string
	KafkaBrokers     []string
	KafkaAuditTopic  string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("REGISTRY_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("REGISTRY_DATABASE_URL"),
		VerifyBaseURL:    envOr("REGISTRY_VERIFY_BASE_URL", "https://verify.example.com"),
		StorageRegion:    envOr("REGISTRY_STORAGE_REGION", "us-east-1"),
		StorageEndpoint:  os.Getenv("REGISTRY_STORAGE_ENDPOINT"),
		AnalysisEndpoint: os.Getenv("REGISTRY_ANALYSIS_ENDPOINT"),
		KafkaAuditTopic:  envOr("REGISTRY_KAFKA_AUDIT_TOPIC", "registry.audit"),
	}
	if brokers := os.Getenv("REGISTRY_KAFKA_BROKERS"); brokers != "" {
		// Tolerate stray whitespace and repeated entries in the broker list.
		cfg.KafkaBrokers = xstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
