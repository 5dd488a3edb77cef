package config

import (
	"fmt"
	"strings"
)

// validSSLModes are the PostgreSQL SSL modes accepted by pgx.
var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// Validate checks all configuration values and returns the first problem
// found, wrapped around the matching sentinel error.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (expected gemini, googleai, ollama, or openai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (expected 1-65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}
	if _, ok := validSSLModes[c.PostgresSSLMode]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	if c.RetrievalLimit < 1 || c.RetrievalLimit > MaxRetrievalLimit {
		return fmt.Errorf("%w: %d (expected 1-%d)", ErrInvalidRetrievalLimit, c.RetrievalLimit, MaxRetrievalLimit)
	}
	if c.SimilarityThreshold < MinSimilarityThreshold || c.SimilarityThreshold > 1.0 {
		return fmt.Errorf("%w: %.2f (expected %.1f-1.0)", ErrInvalidThreshold, c.SimilarityThreshold, MinSimilarityThreshold)
	}

	if c.SessionTTLHours < 1 || c.SessionTTLHours > 24*30 {
		return fmt.Errorf("%w: %d hours (expected 1-720)", ErrInvalidSessionTTL, c.SessionTTLHours)
	}

	if c.Scraper.Parallelism < 1 || c.Scraper.Parallelism > 16 {
		return fmt.Errorf("%w: parallelism %d (expected 1-16)", ErrInvalidScraper, c.Scraper.Parallelism)
	}
	if c.Scraper.DelayMs < 0 {
		return fmt.Errorf("%w: negative delay_ms", ErrInvalidScraper)
	}
	if c.Scraper.TimeoutMs < 1000 {
		return fmt.Errorf("%w: timeout_ms %d (expected >= 1000)", ErrInvalidScraper, c.Scraper.TimeoutMs)
	}

	return nil
}
