// Package config provides configuration loading for ledgerd.
//
// Configuration is loaded from an optional YAML file, then overridden by
// environment variables. Defaults match the behavior of the original bot
// deployment (starting grant of 100 credits, 10 XP = 1 credit).
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete ledgerd configuration.
type Config struct {
	Ledger  LedgerConfig  `koanf:"ledger"`
	Accrual AccrualConfig `koanf:"accrual"`
	Persist PersistConfig `koanf:"persist"`
	Logging LoggingConfig `koanf:"logging"`
}

// LedgerConfig holds ledger service configuration.
type LedgerConfig struct {
	// StartingBalance is granted to every account on first access.
	StartingBalance int64 `koanf:"starting_balance"`

	// ExchangeRate converts experience into credits: credits = floor(xp * rate).
	ExchangeRate float64 `koanf:"exchange_rate"`

	// SaveEveryAccruals batches persistence for passive accrual: only every
	// Nth Accrue call triggers a save. 1 means save on every accrual.
	SaveEveryAccruals int `koanf:"save_every_accruals"`

	// ReservedIDs are identities that can never receive a transfer
	// (automated accounts, the bot itself).
	ReservedIDs []string `koanf:"reserved_ids"`
}

// AccrualConfig holds accrual gate configuration.
type AccrualConfig struct {
	// Cooldown is the minimum interval between XP grants per identity.
	Cooldown Duration `koanf:"cooldown"`

	// Amount is the XP credited per allowed activity event.
	Amount int64 `koanf:"amount"`
}

// PersistConfig holds persistence backend configuration.
type PersistConfig struct {
	// GistID identifies the remote document. Empty disables remote sync.
	GistID string `koanf:"gist_id"`

	// GitHubToken authenticates against the Gist API. Empty disables remote sync.
	GitHubToken Secret `koanf:"github_token"`

	// Filename is the document name inside the gist.
	Filename string `koanf:"filename"`

	// LocalPath is the on-disk snapshot location.
	LocalPath string `koanf:"local_path"`

	// RemoteTimeout bounds every remote call.
	RemoteTimeout Duration `koanf:"remote_timeout"`
}

// LoggingConfig holds logger construction settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Ledger: LedgerConfig{
			StartingBalance:   100,
			ExchangeRate:      0.1,
			SaveEveryAccruals: 1,
		},
		Accrual: AccrualConfig{
			Cooldown: Duration(3 * time.Second),
			Amount:   2,
		},
		Persist: PersistConfig{
			Filename:      "ledger.json",
			LocalPath:     "ledger.json",
			RemoteTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values the services cannot operate on.
func (c *Config) Validate() error {
	if c.Ledger.StartingBalance < 0 {
		return errors.New("ledger.starting_balance cannot be negative")
	}
	if c.Ledger.ExchangeRate <= 0 {
		return errors.New("ledger.exchange_rate must be positive")
	}
	if c.Ledger.SaveEveryAccruals < 1 {
		return errors.New("ledger.save_every_accruals must be at least 1")
	}
	if c.Accrual.Cooldown.Duration() <= 0 {
		return errors.New("accrual.cooldown must be positive")
	}
	if c.Accrual.Amount <= 0 {
		return errors.New("accrual.amount must be positive")
	}
	if c.Persist.LocalPath == "" {
		return errors.New("persist.local_path is required")
	}
	if c.Persist.Filename == "" {
		return errors.New("persist.filename is required")
	}
	if c.Persist.RemoteTimeout.Duration() <= 0 {
		return errors.New("persist.remote_timeout must be positive")
	}
	if c.Persist.GistID != "" && !c.Persist.GitHubToken.IsSet() {
		return fmt.Errorf("persist.gist_id %q set without persist.github_token", c.Persist.GistID)
	}
	return nil
}
