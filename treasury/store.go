/*
store.go - RecordStore: sole owner of the mutable treasury state

PURPOSE:
  Holds receipts, expenses, opening-balance overrides, arqueos and the
  church configuration, and persists each collection as one JSON document
  in a key-value store.

PERSISTENCE CONTRACT:
  Every mutation builds the new collection, writes it to the KV store and
  only then swaps it into memory. When the write fails the in-memory state
  is unchanged and the caller gets a PersistenceError.

CONCURRENCY:
  One mutex serializes all writers, so two bulk deletes can never race
  on the same collection and lose an update. Readers take a read lock and
  get copies.

KEYS:
  @treasury_receipts, @treasury_expenses, @treasury_balances,
  @treasury_arqueos, @treasury_config

SEE ALSO:
  - treasury/store/memory.go: in-memory KV
  - store/sqlite: SQLite KV
*/
package treasury

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/warp/treasury-engine/logger"
)

// KV is the persistence interface consumed by RecordStore. Get reports
// false when the key was never set.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

const (
	KeyReceipts = "@treasury_receipts"
	KeyExpenses = "@treasury_expenses"
	KeyBalances = "@treasury_balances"
	KeyArqueos  = "@treasury_arqueos"
	KeyConfig   = "@treasury_config"
)

// DefaultChurchName is used until a name is configured.
const DefaultChurchName = "Iglesia"

// =============================================================================
// RECORD STORE
// =============================================================================

type RecordStore struct {
	kv KV

	mu       sync.RWMutex
	receipts []IncomeReceipt
	expenses []Expense
	balances []PeriodBalance
	arqueos  []Arqueo
	config   ChurchConfig

	newID       func() string
	log         zerolog.Logger
	defaultName string
}

type StoreOption func(*RecordStore)

func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *RecordStore) { s.log = log }
}

// WithIDGenerator replaces the UUID generator, mostly for tests.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *RecordStore) { s.newID = newID }
}

func WithDefaultChurchName(name string) StoreOption {
	return func(s *RecordStore) { s.defaultName = name }
}

// NewRecordStore returns an empty store. Call Load to read persisted state.
func NewRecordStore(kv KV, opts ...StoreOption) *RecordStore {
	s := &RecordStore{
		kv:          kv,
		receipts:    []IncomeReceipt{},
		expenses:    []Expense{},
		balances:    []PeriodBalance{},
		arqueos:     []Arqueo{},
		newID:       uuid.NewString,
		log:         zerolog.Nop(),
		defaultName: DefaultChurchName,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.config = ChurchConfig{Name: s.defaultName}
	s.log = logger.Component(s.log, logger.ComponentStore)
	return s
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads every collection from the KV store. Keys that were never
// written load as empty collections. A stored value that is not valid JSON
// is a ConsistencyError.
func (s *RecordStore) Load(ctx context.Context) error {
	var (
		receipts []IncomeReceipt
		expenses []Expense
		balances []PeriodBalance
		arqueos  []Arqueo
		config   *ChurchConfig
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return load(gctx, s.kv, KeyReceipts, &receipts) })
	g.Go(func() error { return load(gctx, s.kv, KeyExpenses, &expenses) })
	g.Go(func() error { return load(gctx, s.kv, KeyBalances, &balances) })
	g.Go(func() error { return load(gctx, s.kv, KeyArqueos, &arqueos) })
	g.Go(func() error { return load(gctx, s.kv, KeyConfig, &config) })
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Str(logger.FieldOperation, logger.OpLoad).Msg("load failed")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = nonNil(receipts)
	s.expenses = nonNil(expenses)
	s.balances = nonNil(balances)
	s.arqueos = nonNil(arqueos)
	s.config = ChurchConfig{Name: s.defaultName}
	if config != nil && config.Name != "" {
		s.config = *config
	}

	s.log.Info().
		Str(logger.FieldOperation, logger.OpLoad).
		Int("receipts", len(s.receipts)).
		Int("expenses", len(s.expenses)).
		Int("balances", len(s.balances)).
		Int("arqueos", len(s.arqueos)).
		Msg("records loaded")
	return nil
}

func load[T any](ctx context.Context, kv KV, key string, dst *T) error {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return &PersistenceError{Op: "get", Key: key, Err: err}
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return &ConsistencyError{Field: key, Err: err}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// persist writes v under key. Callers hold s.mu.
func (s *RecordStore) persist(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := s.kv.Set(ctx, key, string(b)); err != nil {
		s.log.Error().Err(err).Str(logger.FieldKey, key).Msg("persist failed")
		return &PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// =============================================================================
// RECEIPTS & EXPENSES
// =============================================================================

// AddReceipt assigns an ID and stores the receipt.
func (s *RecordStore) AddReceipt(ctx context.Context, r IncomeReceipt) (IncomeReceipt, error) {
	if err := r.validateRecord(); err != nil {
		return IncomeReceipt{}, err
	}
	r.ID = s.newID()
	r.Categories = r.Categories.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(cloneSlice(s.receipts), r)
	if err := s.persist(ctx, KeyReceipts, next); err != nil {
		return IncomeReceipt{}, err
	}
	s.receipts = next

	s.log.Info().Str(logger.FieldOperation, logger.OpAdd).Str(logger.FieldRecordID, r.ID).Str("date", string(r.Date)).Msg("receipt added")
	return cloneReceipt(r), nil
}

func (s *RecordStore) AddExpense(ctx context.Context, e Expense) (Expense, error) {
	if err := e.validateRecord(); err != nil {
		return Expense{}, err
	}
	e.ID = s.newID()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(cloneSlice(s.expenses), e)
	if err := s.persist(ctx, KeyExpenses, next); err != nil {
		return Expense{}, err
	}
	s.expenses = next

	s.log.Info().Str(logger.FieldOperation, logger.OpAdd).Str(logger.FieldRecordID, e.ID).Str("date", string(e.Date)).Msg("expense added")
	return e, nil
}

// DeleteReceipts removes every listed receipt in one write and returns how
// many were removed. Unknown IDs are ignored; when none match nothing is
// written.
func (s *RecordStore) DeleteReceipts(ctx context.Context, ids ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := without(s.receipts, ids, func(r IncomeReceipt) string { return r.ID })
	if removed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, KeyReceipts, next); err != nil {
		return 0, err
	}
	s.receipts = next
	s.log.Info().Str(logger.FieldOperation, logger.OpDelete).Int(logger.FieldCount, removed).Msg("receipts deleted")
	return removed, nil
}

func (s *RecordStore) DeleteExpenses(ctx context.Context, ids ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := without(s.expenses, ids, func(e Expense) string { return e.ID })
	if removed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, KeyExpenses, next); err != nil {
		return 0, err
	}
	s.expenses = next
	s.log.Info().Str(logger.FieldOperation, logger.OpDelete).Int(logger.FieldCount, removed).Msg("expenses deleted")
	return removed, nil
}

func without[T any](list []T, ids []string, id func(T) string) ([]T, int) {
	drop := make(map[string]bool, len(ids))
	for _, i := range ids {
		drop[i] = true
	}
	out := make([]T, 0, len(list))
	for _, v := range list {
		if !drop[id(v)] {
			out = append(out, v)
		}
	}
	return out, len(list) - len(out)
}

// =============================================================================
// OPENING BALANCES
// =============================================================================

// SetOpeningBalance stores the manual opening balance of period, replacing
// any earlier value for the same period.
func (s *RecordStore) SetOpeningBalance(ctx context.Context, period Month, amount decimal.Decimal) error {
	if err := period.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]PeriodBalance, 0, len(s.balances)+1)
	for _, b := range s.balances {
		if b.Period != period {
			next = append(next, b)
		}
	}
	next = append(next, PeriodBalance{Period: period, OpeningBalance: amount})
	sort.Slice(next, func(i, j int) bool { return next[i].Period < next[j].Period })

	if err := s.persist(ctx, KeyBalances, next); err != nil {
		return err
	}
	s.balances = next
	s.log.Info().Str(logger.FieldOperation, logger.OpSet).Str(logger.FieldPeriod, string(period)).Str("amount", amount.String()).Msg("opening balance set")
	return nil
}

// OpeningBalanceOverride returns the manual opening balance of period, if any.
func (s *RecordStore) OpeningBalanceOverride(period Month) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.balances {
		if b.Period == period {
			return b.OpeningBalance, true
		}
	}
	return decimal.Zero, false
}

// =============================================================================
// CHURCH CONFIG
// =============================================================================

func (s *RecordStore) SetChurchName(ctx context.Context, name string) error {
	cfg := ChurchConfig{Name: strings.TrimSpace(name)}
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, KeyConfig, cfg); err != nil {
		return err
	}
	s.config = cfg
	s.log.Info().Str(logger.FieldOperation, logger.OpSet).Str("church", cfg.Name).Msg("church name set")
	return nil
}

func (s *RecordStore) ChurchConfig() ChurchConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// =============================================================================
// ARQUEOS
// =============================================================================

// ListArqueos returns copies of all arqueos, newest range first.
func (s *RecordStore) ListArqueos() []Arqueo {
	s.mu.RLock()
	out := make([]Arqueo, len(s.arqueos))
	for i, a := range s.arqueos {
		out[i] = a.Clone()
	}
	s.mu.RUnlock()
	sortArqueos(out)
	return out
}

func (s *RecordStore) SaveArqueo(ctx context.Context, a Arqueo) error {
	a = a.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(cloneSlice(s.arqueos), a)
	if err := s.persist(ctx, KeyArqueos, next); err != nil {
		return err
	}
	s.arqueos = next
	s.log.Info().Str(logger.FieldOperation, logger.OpSave).Str(logger.FieldArqueoID, a.ID).Str(logger.FieldRange, a.Range().String()).Msg("arqueo saved")
	return nil
}

// DeleteArqueo removes the arqueo and reports whether it existed.
func (s *RecordStore) DeleteArqueo(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := without(s.arqueos, []string{id}, func(a Arqueo) string { return a.ID })
	if removed == 0 {
		return false, nil
	}
	if err := s.persist(ctx, KeyArqueos, next); err != nil {
		return false, err
	}
	s.arqueos = next
	s.log.Info().Str(logger.FieldOperation, logger.OpDelete).Str(logger.FieldArqueoID, id).Msg("arqueo deleted")
	return true, nil
}

// =============================================================================
// SNAPSHOT & RESET
// =============================================================================

// Snapshot returns a deep copy of the records the engine reads.
func (s *RecordStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	receipts := make([]IncomeReceipt, len(s.receipts))
	for i, r := range s.receipts {
		receipts[i] = cloneReceipt(r)
	}
	return Snapshot{
		Receipts: receipts,
		Expenses: cloneSlice(s.expenses),
		Balances: cloneSlice(s.balances),
	}
}

// Reset empties every record collection. The church configuration is kept.
// If a write fails midway the keys written before it are already empty in
// the KV store while memory still holds the old records; Load resyncs.
func (s *RecordStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{KeyReceipts, KeyExpenses, KeyBalances, KeyArqueos} {
		if err := s.persist(ctx, key, []struct{}{}); err != nil {
			return err
		}
	}
	s.receipts = []IncomeReceipt{}
	s.expenses = []Expense{}
	s.balances = []PeriodBalance{}
	s.arqueos = []Arqueo{}
	s.log.Info().Str(logger.FieldOperation, logger.OpReset).Msg("records reset")
	return nil
}

func cloneReceipt(r IncomeReceipt) IncomeReceipt {
	r.Categories = r.Categories.Clone()
	return r
}

func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
