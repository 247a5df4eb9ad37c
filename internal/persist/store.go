package persist

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ledgerd/internal/config"
	"github.com/fyrsmithlabs/ledgerd/internal/record"
)

// Store chains the remote document behind the local snapshot.
//
// Load walks down the chain (remote, local, empty) and always yields a
// usable mapping. Save writes through: local snapshot first, then remote
// push; a remote failure never rolls back the local write.
type Store struct {
	remote Backend // nil in local-only mode
	local  Backend
	logger *zap.Logger
}

// NewStore builds the persistence chain from config. When gist credentials
// are absent the store degrades to local-only mode; any other remote setup
// failure is returned.
func NewStore(cfg config.PersistConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		local:  NewFileBackend(cfg.LocalPath),
		logger: logger,
	}

	remote, err := NewGistBackend(cfg)
	switch {
	case errors.Is(err, ErrRemoteDisabled):
		logger.Warn("gist credentials missing, running in local-only persistence mode")
	case err != nil:
		return nil, fmt.Errorf("failed to set up gist backend: %w", err)
	default:
		s.remote = remote
	}
	return s, nil
}

// NewStoreWithBackends wires explicit backends. remote may be nil.
func NewStoreWithBackends(remote, local Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{remote: remote, local: local, logger: logger}
}

// Load fetches the most authoritative copy available. The fallback chain
// never fails: remote errors fall back to the local snapshot, local errors
// fall back to an empty mapping. Data loss at the end of the chain is
// logged, never fatal.
func (s *Store) Load(ctx context.Context) map[string]*record.Account {
	if s.remote != nil {
		accounts, err := s.remote.Load(ctx)
		if err == nil {
			s.logger.Info("ledger loaded from remote document",
				zap.Int("accounts", len(accounts)))
			return accounts
		}
		s.logger.Warn("remote load failed, falling back to local snapshot",
			zap.Error(err))
	}

	accounts, err := s.local.Load(ctx)
	if err == nil {
		s.logger.Info("ledger loaded from local snapshot",
			zap.Int("accounts", len(accounts)))
		return accounts
	}
	s.logger.Warn("local snapshot unavailable, starting from an empty ledger",
		zap.Error(err))
	return make(map[string]*record.Account)
}

// Save writes the snapshot locally, then pushes it to the remote document.
// The returned error is advisory: the in-memory state is already final and
// the next successful save reconciles whatever failed here.
func (s *Store) Save(ctx context.Context, accounts map[string]*record.Account) error {
	var errs []error

	if err := s.local.Save(ctx, accounts); err != nil {
		s.logger.Error("local snapshot write failed", zap.Error(err))
		errs = append(errs, err)
	}

	if s.remote != nil {
		if err := s.remote.Save(ctx, accounts); err != nil {
			s.logger.Warn("remote push failed, local snapshot is current",
				zap.Error(err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
