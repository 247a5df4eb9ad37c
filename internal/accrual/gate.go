// Package accrual rate-limits passive experience grants.
//
// One chat message is worth a couple of XP, but only once per identity per
// cooldown window. Gate state is in-memory only: losing it on restart grants
// at most one extra window per identity, which is a bounded, acceptable
// anomaly.
package accrual

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/ledgerd/internal/ledger"
)

// Config configures the accrual gate.
type Config struct {
	// Cooldown is the minimum interval between grants per identity
	// (default: 3s).
	Cooldown time.Duration

	// Amount is the XP granted per allowed activity event (default: 2).
	Amount int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cooldown: 3 * time.Second,
		Amount:   2,
	}
}

// Gate throttles Ledger.Accrue calls per identity.
type Gate struct {
	config *Config
	ledger ledger.Service
	logger *zap.Logger

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
}

// NewGate creates an accrual gate in front of the given ledger.
func NewGate(cfg *Config, svc ledger.Service, logger *zap.Logger) *Gate {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		config:      cfg,
		ledger:      svc,
		logger:      logger,
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}
}

// Activity reports one passive activity event (a chat message) for id.
// Returns true when experience was granted, false when the cooldown
// suppressed the event.
func (g *Gate) Activity(ctx context.Context, id string) (bool, error) {
	if !g.allow(id) {
		return false, nil
	}
	if err := g.ledger.Accrue(ctx, id, g.config.Amount); err != nil {
		return false, err
	}
	return true, nil
}

// allow consumes one token from id's limiter, creating it on first sight.
func (g *Gate) allow(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Drop all limiters every hour to prevent unbounded growth. Identities
	// active at reset time get one extra window, same as after a restart.
	if time.Since(g.lastCleanup) > time.Hour {
		g.limiters = make(map[string]*rate.Limiter)
		g.lastCleanup = time.Now()
	}

	limiter, ok := g.limiters[id]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(g.config.Cooldown), 1)
		g.limiters[id] = limiter
	}
	return limiter.Allow()
}
