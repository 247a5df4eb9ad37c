package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Load loads configuration from an optional YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (LEDGER_EXCHANGE_RATE, PERSIST_GIST_ID, etc.)
//  2. YAML config file (path passed in, skipped when empty or absent)
//  3. Hardcoded defaults
//
// Environment variables use underscore separator and are uppercased; the
// first underscore splits section from field name:
//
//	LEDGER_STARTING_BALANCE -> ledger.starting_balance
//	PERSIST_REMOTE_TIMEOUT  -> persist.remote_timeout
//	ACCRUAL_COOLDOWN        -> accrual.cooldown
//
// The legacy variables GIST_ID and MY_GITHUB_TOKEN are honored for
// compatibility with existing bot deployments.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		} else {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		// Split on the first underscore only: section.field_name.
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Legacy names from the original deployment take effect only when the
	// namespaced variables did not set a value.
	if cfg.Persist.GistID == "" {
		cfg.Persist.GistID = os.Getenv("GIST_ID")
	}
	if !cfg.Persist.GitHubToken.IsSet() {
		cfg.Persist.GitHubToken = Secret(os.Getenv("MY_GITHUB_TOKEN"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
