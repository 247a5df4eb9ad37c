package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ledgerd/internal/persist"
	"github.com/fyrsmithlabs/ledgerd/internal/record"
)

const instrumentationName = "github.com/fyrsmithlabs/ledgerd/internal/ledger"

// Service provides the atomic economy operations.
type Service interface {
	// Load hydrates the store from the persistence chain. Call once at
	// startup, before any other operation.
	Load(ctx context.Context)

	// Account returns the record for id, creating it with default values on
	// first access. Read-only: does not persist.
	Account(id string) *record.Account

	// Grant adds amount to id's balance. Privileged.
	Grant(ctx context.Context, id string, amount int64) error

	// Confiscate subtracts amount from id's balance, clamped at zero.
	// Privileged. Returns the balance after the clamp.
	Confiscate(ctx context.Context, id string, amount int64) (int64, error)

	// Transfer atomically moves amount from one account to another.
	Transfer(ctx context.Context, fromID, toID string, amount int64) error

	// Exchange converts xpAmount experience into credits at the configured
	// rate. Returns the credits granted.
	Exchange(ctx context.Context, id string, xpAmount int64) (int64, error)

	// Accrue adds passive experience and stamps last activity. Only the
	// accrual gate calls this.
	Accrue(ctx context.Context, id string, amount int64) error

	// TopByExperience returns up to n accounts ranked by experience.
	TopByExperience(n int) []Ranked

	// TopByBalance returns up to n accounts ranked by balance.
	TopByBalance(n int) []Ranked

	// Count returns the number of accounts.
	Count() int
}

// Config configures the ledger service.
type Config struct {
	// StartingBalance is granted to new accounts (default: 100).
	StartingBalance int64

	// ExchangeRate converts experience to credits: floor(xp * rate)
	// (default: 0.1, i.e. 10 XP per credit).
	ExchangeRate float64

	// SaveEveryAccruals batches persistence for passive accrual: only every
	// Nth Accrue triggers a save (default: 1).
	SaveEveryAccruals int

	// ReservedIDs can never receive a transfer (automated accounts).
	ReservedIDs []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StartingBalance:   100,
		ExchangeRate:      0.1,
		SaveEveryAccruals: 1,
	}
}

// Ranked is one row of a ranking snapshot.
type Ranked struct {
	ID         string
	Balance    int64
	Experience int64
}

// service implements the Service interface.
type service struct {
	config   *Config
	store    *record.Store
	backend  *persist.Store
	logger   *zap.Logger
	reserved map[string]struct{}

	// Telemetry
	tracer       trace.Tracer
	meter        metric.Meter
	opCounter    metric.Int64Counter
	saveFailures metric.Int64Counter

	// mu serializes every read-modify-write. One global lock, not
	// per-record: transfers need both records consistent at once and the
	// account count is small enough that contention does not matter.
	mu             sync.Mutex
	seq            uint64
	unsavedAccrues int

	// saveMu orders saves; savedSeq drops a snapshot when a newer one
	// already went out.
	saveMu   sync.Mutex
	savedSeq uint64
}

// NewService creates a ledger service backed by the given persistence chain.
func NewService(cfg *Config, backend *persist.Store, logger *zap.Logger) (Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if backend == nil {
		return nil, errors.New("persistence backend is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExchangeRate <= 0 {
		return nil, errors.New("exchange rate must be positive")
	}
	if cfg.SaveEveryAccruals < 1 {
		cfg.SaveEveryAccruals = 1
	}

	reserved := make(map[string]struct{}, len(cfg.ReservedIDs))
	for _, id := range cfg.ReservedIDs {
		reserved[id] = struct{}{}
	}

	s := &service{
		config:   cfg,
		store:    record.NewStore(cfg.StartingBalance),
		backend:  backend,
		logger:   logger,
		reserved: reserved,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}

	s.initMetrics()

	return s, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (s *service) initMetrics() {
	var err error

	s.opCounter, err = s.meter.Int64Counter(
		"ledgerd.ledger.operations_total",
		metric.WithDescription("Total ledger operations by type and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		s.logger.Warn("failed to create operation counter", zap.Error(err))
	}

	s.saveFailures, err = s.meter.Int64Counter(
		"ledgerd.ledger.save_failures_total",
		metric.WithDescription("Total persistence failures after a committed mutation"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		s.logger.Warn("failed to create save failure counter", zap.Error(err))
	}
}

func (s *service) countOp(ctx context.Context, op, outcome string) {
	if s.opCounter == nil {
		return
	}
	s.opCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

// Load hydrates the record store from the persistence chain. The chain never
// fails; at worst the ledger starts empty.
func (s *service) Load(ctx context.Context) {
	accounts := s.backend.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Replace(accounts)
}

// Account delegates to the record store. Creation is idempotent: repeated
// calls never reset an existing record.
func (s *service) Account(id string) *record.Account {
	return s.store.GetOrCreate(id)
}

func (s *service) Grant(ctx context.Context, id string, amount int64) error {
	ctx, span := s.tracer.Start(ctx, "ledger.Grant",
		trace.WithAttributes(attribute.String("account.id", id)))
	defer span.End()

	if amount <= 0 {
		s.countOp(ctx, "grant", "rejected")
		return ErrNonPositiveAmount
	}

	s.mu.Lock()
	a := s.store.GetOrCreate(id)
	a.Balance += amount
	balance := a.Balance
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("granted credits",
		zap.String("account", id),
		zap.Int64("amount", amount),
		zap.Int64("balance", balance))
	s.countOp(ctx, "grant", "ok")
	s.save(ctx, snapshot, seq)
	return nil
}

func (s *service) Confiscate(ctx context.Context, id string, amount int64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Confiscate",
		trace.WithAttributes(attribute.String("account.id", id)))
	defer span.End()

	if amount <= 0 {
		s.countOp(ctx, "confiscate", "rejected")
		return 0, ErrNonPositiveAmount
	}

	s.mu.Lock()
	a := s.store.GetOrCreate(id)
	// Clamp at zero rather than fail: confiscating more than the balance
	// empties the account.
	a.Balance = max(0, a.Balance-amount)
	remaining := a.Balance
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("confiscated credits",
		zap.String("account", id),
		zap.Int64("amount", amount),
		zap.Int64("balance", remaining))
	s.countOp(ctx, "confiscate", "ok")
	s.save(ctx, snapshot, seq)
	return remaining, nil
}

func (s *service) Transfer(ctx context.Context, fromID, toID string, amount int64) error {
	ctx, span := s.tracer.Start(ctx, "ledger.Transfer",
		trace.WithAttributes(
			attribute.String("account.from", fromID),
			attribute.String("account.to", toID),
		))
	defer span.End()

	if amount <= 0 {
		s.countOp(ctx, "transfer", "rejected")
		return ErrNonPositiveAmount
	}
	if fromID == toID {
		s.countOp(ctx, "transfer", "rejected")
		return ErrSelfTransfer
	}
	if _, ok := s.reserved[toID]; ok {
		s.countOp(ctx, "transfer", "rejected")
		return ErrInvalidTarget
	}

	s.mu.Lock()
	src := s.store.GetOrCreate(fromID)
	dst := s.store.GetOrCreate(toID)
	if src.Balance < amount {
		s.mu.Unlock()
		s.countOp(ctx, "transfer", "rejected")
		return ErrInsufficientFunds
	}
	// Both sides move under the same lock hold; the total is conserved and
	// no intermediate state is observable.
	src.Balance -= amount
	dst.Balance += amount
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("transferred credits",
		zap.String("from", fromID),
		zap.String("to", toID),
		zap.Int64("amount", amount))
	s.countOp(ctx, "transfer", "ok")
	s.save(ctx, snapshot, seq)
	return nil
}

func (s *service) Exchange(ctx context.Context, id string, xpAmount int64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Exchange",
		trace.WithAttributes(attribute.String("account.id", id)))
	defer span.End()

	if xpAmount <= 0 {
		s.countOp(ctx, "exchange", "rejected")
		return 0, ErrNonPositiveAmount
	}

	credits := int64(float64(xpAmount) * s.config.ExchangeRate)
	if credits <= 0 {
		s.countOp(ctx, "exchange", "rejected")
		return 0, ErrExchangeTooSmall
	}

	s.mu.Lock()
	a := s.store.GetOrCreate(id)
	if a.Experience < xpAmount {
		s.mu.Unlock()
		s.countOp(ctx, "exchange", "rejected")
		return 0, ErrInsufficientExperience
	}
	a.Experience -= xpAmount
	a.Balance += credits
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("exchanged experience for credits",
		zap.String("account", id),
		zap.Int64("experience", xpAmount),
		zap.Int64("credits", credits))
	s.countOp(ctx, "exchange", "ok")
	s.save(ctx, snapshot, seq)
	return credits, nil
}

func (s *service) Accrue(ctx context.Context, id string, amount int64) error {
	ctx, span := s.tracer.Start(ctx, "ledger.Accrue",
		trace.WithAttributes(attribute.String("account.id", id)))
	defer span.End()

	if amount <= 0 {
		s.countOp(ctx, "accrue", "rejected")
		return ErrNonPositiveAmount
	}

	s.mu.Lock()
	a := s.store.GetOrCreate(id)
	a.Experience += amount
	a.LastActivityAt = time.Now()

	s.unsavedAccrues++
	var snapshot map[string]*record.Account
	var seq uint64
	if s.unsavedAccrues >= s.config.SaveEveryAccruals {
		s.unsavedAccrues = 0
		snapshot, seq = s.snapshotLocked()
	}
	s.mu.Unlock()

	s.countOp(ctx, "accrue", "ok")
	if snapshot != nil {
		s.save(ctx, snapshot, seq)
	}
	return nil
}

func (s *service) TopByExperience(n int) []Ranked {
	return s.top(n, func(r Ranked) int64 { return r.Experience })
}

func (s *service) TopByBalance(n int) []Ranked {
	return s.top(n, func(r Ranked) int64 { return r.Balance })
}

func (s *service) top(n int, key func(Ranked) int64) []Ranked {
	if n <= 0 {
		return nil
	}

	s.mu.Lock()
	snapshot := s.store.Snapshot()
	s.mu.Unlock()

	rows := make([]Ranked, 0, len(snapshot))
	for id, a := range snapshot {
		rows = append(rows, Ranked{ID: id, Balance: a.Balance, Experience: a.Experience})
	}
	sort.Slice(rows, func(i, j int) bool {
		if key(rows[i]) != key(rows[j]) {
			return key(rows[i]) > key(rows[j])
		}
		return rows[i].ID < rows[j].ID
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func (s *service) Count() int {
	return s.store.Len()
}

// snapshotLocked captures the current state together with its mutation
// sequence number. Callers must hold mu.
func (s *service) snapshotLocked() (map[string]*record.Account, uint64) {
	s.seq++
	return s.store.Snapshot(), s.seq
}

// save pushes an already-committed snapshot through the persistence chain.
// Runs outside the main lock: the snapshot was taken atomically at mutation
// time, so slow remote I/O never exposes a torn view and never blocks other
// operations. Stale snapshots are dropped when a newer one already went out,
// keeping the persisted document monotonic. Failures are warnings; the next
// save carries the then-current state.
func (s *service) save(ctx context.Context, snapshot map[string]*record.Account, seq uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if seq < s.savedSeq {
		return
	}
	s.savedSeq = seq

	if err := s.backend.Save(ctx, snapshot); err != nil {
		if s.saveFailures != nil {
			s.saveFailures.Add(ctx, 1)
		}
		s.logger.Warn("persistence failed after committed mutation", zap.Error(err))
	}
}
