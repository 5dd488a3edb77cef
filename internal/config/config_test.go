package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		Provider:            ProviderGemini,
		ModelName:           "gemini-2.5-flash",
		EmbedderModel:       DefaultEmbedderModel,
		RetrievalLimit:      DefaultRetrievalLimit,
		SimilarityThreshold: DefaultSimilarityThreshold,
		SessionTTLHours:     24,
		PostgresHost:        "localhost",
		PostgresPort:        5432,
		PostgresUser:        "newsrag",
		PostgresPassword:    "secret",
		PostgresDBName:      "newsrag",
		PostgresSSLMode:     "disable",
		Scraper: ScraperConfig{
			Parallelism: 2,
			DelayMs:     1000,
			TimeoutMs:   30000,
		},
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() on valid config: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"unknown provider", func(c *Config) { c.Provider = "anthropic9000" }, ErrInvalidProvider},
		{"empty model", func(c *Config) { c.ModelName = "  " }, ErrInvalidModelName},
		{"empty embedder", func(c *Config) { c.EmbedderModel = "" }, ErrInvalidEmbedderModel},
		{"empty host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"port too high", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"port zero", func(c *Config) { c.PostgresPort = 0 }, ErrInvalidPostgresPort},
		{"empty db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"bad ssl mode", func(c *Config) { c.PostgresSSLMode = "definitely" }, ErrInvalidPostgresSSLMode},
		{"limit zero", func(c *Config) { c.RetrievalLimit = 0 }, ErrInvalidRetrievalLimit},
		{"limit above cap", func(c *Config) { c.RetrievalLimit = 21 }, ErrInvalidRetrievalLimit},
		{"threshold below floor", func(c *Config) { c.SimilarityThreshold = 0.2 }, ErrInvalidThreshold},
		{"threshold above one", func(c *Config) { c.SimilarityThreshold = 1.5 }, ErrInvalidThreshold},
		{"ttl zero", func(c *Config) { c.SessionTTLHours = 0 }, ErrInvalidSessionTTL},
		{"scraper parallelism", func(c *Config) { c.Scraper.Parallelism = 0 }, ErrInvalidScraper},
		{"scraper timeout", func(c *Config) { c.Scraper.TimeoutMs = 10 }, ErrInvalidScraper},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFullModelName(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{ProviderGemini, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{ProviderOllama, "llama3.3", "ollama/llama3.3"},
		{ProviderOpenAI, "gpt-4o", "openai/gpt-4o"},
		{ProviderGemini, "googleai/gemini-2.5-pro", "googleai/gemini-2.5-pro"},
	}

	for _, tt := range tests {
		cfg := &Config{Provider: tt.provider, ModelName: tt.model}
		if got := cfg.FullModelName(); got != tt.want {
			t.Errorf("FullModelName(%s, %s) = %q, want %q", tt.provider, tt.model, got, tt.want)
		}
	}
}

func TestSessionTTL(t *testing.T) {
	cfg := validConfig()
	if got := cfg.SessionTTL(); got != 24*time.Hour {
		t.Errorf("SessionTTL() = %v, want 24h", got)
	}

	cfg.SessionTTLHours = 0
	if got := cfg.SessionTTL(); got != DefaultSessionTTL {
		t.Errorf("SessionTTL() with zero hours = %v, want default", got)
	}
}

func TestSecretMaskingInString(t *testing.T) {
	cfg := validConfig()
	cfg.PostgresPassword = "super_secret_password_123"

	out := cfg.String()
	if strings.Contains(out, "super_secret_password_123") {
		t.Fatalf("String() leaked password: %s", out)
	}
	if !strings.Contains(out, maskedValue) {
		t.Errorf("String() does not contain mask placeholder: %s", out)
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Errorf("maskSecret(empty) = %q, want empty", got)
	}
	// Short secrets are fully masked to prevent substring matches.
	if got := maskSecret("abc"); got != maskedValue {
		t.Errorf("maskSecret(short) = %q, want %q", got, maskedValue)
	}
	got := maskSecret("my_long_secret_key")
	if strings.Contains(got, "long_secret") {
		t.Errorf("maskSecret leaked middle of secret: %q", got)
	}
	if !strings.HasPrefix(got, "my") || !strings.HasSuffix(got, "ey") {
		t.Errorf("maskSecret should keep 2-char prefix/suffix: %q", got)
	}
}
