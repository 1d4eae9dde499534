// Package config loads the service configuration from defaults, an optional
// TOML file, and TRIAGE_-prefixed environment variables, in that precedence
// order.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the full service configuration.
type Config struct {
	Server    Server    `koanf:"server"`
	Redis     Redis     `koanf:"redis"`
	Generator Generator `koanf:"generator"`
	Data      Data      `koanf:"data"`
	Retrieval Retrieval `koanf:"retrieval"`
	Security  Security  `koanf:"security"`
	Log       Log       `koanf:"log"`
}

type Server struct {
	Addr string `koanf:"addr"`
}

// Redis enables the durable store; when disabled the service falls back to
// the in-memory store and loses threads on restart.
type Redis struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// Generator configures the LLM used for drafting and policy evaluation.
// When disabled, every drafted message comes from the deterministic
// fallback templates.
type Generator struct {
	Enabled bool   `koanf:"enabled"`
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// Data points at the YAML fixtures and the policy document directory.
type Data struct {
	OrdersFile    string `koanf:"orders_file"`
	RulesFile     string `koanf:"rules_file"`
	TemplatesFile string `koanf:"templates_file"`
	PoliciesDir   string `koanf:"policies_dir"`
}

type Retrieval struct {
	TopK           int     `koanf:"top_k"`
	FraudThreshold float64 `koanf:"fraud_threshold"`
}

// Security configures the state-store middleware. A non-empty encryption key
// seals every persisted thread with AES-256-GCM; mask patterns are regular
// expressions whose matches are redacted from persisted free text.
type Security struct {
	EncryptionKey string   `koanf:"encryption_key"`
	MaskPatterns  []string `koanf:"mask_patterns"`
}

type Log struct {
	Level string `koanf:"level"`
}

var defaults = map[string]interface{}{
	"server.addr":               ":8080",
	"redis.enabled":             false,
	"redis.addr":                "localhost:6379",
	"redis.db":                  0,
	"generator.enabled":         false,
	"generator.model":           "gpt-4o-mini",
	"data.orders_file":          "data/orders.yaml",
	"data.rules_file":           "data/rules.yaml",
	"data.templates_file":       "data/templates.yaml",
	"data.policies_dir":         "data/policies",
	"retrieval.top_k":           3,
	"retrieval.fraud_threshold": 80.0,
	"log.level":                 "info",
}

// Load reads configuration from defaults, then path (if non-empty), then the
// environment. A missing file at an explicitly given path is an error; an
// empty path skips the file layer entirely.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// TRIAGE_REDIS_ADDR -> redis.addr, TRIAGE_GENERATOR_API_KEY -> generator.api_key.
	err := k.Load(env.Provider("TRIAGE_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "TRIAGE_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would fail at first use.
func (c *Config) Validate() error {
	if c.Generator.Enabled && c.Generator.APIKey == "" {
		return errors.New("generator.api_key is required when the generator is enabled")
	}
	if c.Retrieval.TopK <= 0 {
		return errors.New("retrieval.top_k must be positive")
	}
	if key := c.Security.EncryptionKey; key != "" && len(key) != 32 {
		return fmt.Errorf("security.encryption_key must be exactly 32 bytes (AES-256), got %d", len(key))
	}
	for _, p := range c.Security.MaskPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("security.mask_patterns %q: %w", p, err)
		}
	}
	return nil
}
