package treasury

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/treasury-engine/logger"
)

// =============================================================================
// SERVICE - The one entry point screens and handlers talk to
// =============================================================================

// Service wires the record store, the engine and the arqueo ledger. Build
// one at startup and pass it to whatever needs it.
type Service struct {
	store  *RecordStore
	engine Engine
	ledger *ArqueoLedger
	now    func() time.Time
	log    zerolog.Logger
}

type ServiceOption func(*Service)

func WithServiceLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithClock sets the clock used for arqueo timestamps and the default
// "today".
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithArqueoIDs replaces the arqueo ID generator.
func WithArqueoIDs(newID func() string) ServiceOption {
	return func(s *Service) {
		s.ledger.newID = newID
	}
}

func NewService(store *RecordStore, engine Engine, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
		log:    zerolog.Nop(),
	}
	s.ledger = NewArqueoLedger(store)
	for _, opt := range opts {
		opt(s)
	}
	s.ledger.now = func() time.Time { return s.now() }
	s.ledger.log = logger.Component(s.log, logger.ComponentLedger)
	return s
}

func (s *Service) Store() *RecordStore   { return s.store }
func (s *Service) Ledger() *ArqueoLedger { return s.ledger }
func (s *Service) Engine() Engine        { return s.engine }

// Today returns the current date according to the service clock.
func (s *Service) Today() Date { return DateOf(s.now()) }

// =============================================================================
// RECORDS
// =============================================================================

func (s *Service) AddReceipt(ctx context.Context, in ReceiptInput) (IncomeReceipt, error) {
	r, err := in.Build(s.store.ChurchConfig().Name)
	if err != nil {
		return IncomeReceipt{}, err
	}
	return s.store.AddReceipt(ctx, r)
}

func (s *Service) AddExpense(ctx context.Context, in ExpenseInput) (Expense, error) {
	e, err := in.Build()
	if err != nil {
		return Expense{}, err
	}
	return s.store.AddExpense(ctx, e)
}

func (s *Service) DeleteReceipts(ctx context.Context, ids ...string) (int, error) {
	return s.store.DeleteReceipts(ctx, ids...)
}

func (s *Service) DeleteExpenses(ctx context.Context, ids ...string) (int, error) {
	return s.store.DeleteExpenses(ctx, ids...)
}

func (s *Service) Receipts() []IncomeReceipt { return s.store.Snapshot().Receipts }
func (s *Service) Expenses() []Expense       { return s.store.Snapshot().Expenses }

func (s *Service) History(f HistoryFilter) ([]HistoryEntry, error) {
	return History(s.store.Snapshot(), f)
}

// =============================================================================
// BALANCES & RECONCILIATION
// =============================================================================

// BalanceView is the resolved opening balance of a period.
type BalanceView struct {
	Period         Month           `json:"period"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Override       bool            `json:"override"`
}

func (s *Service) SetOpeningBalance(ctx context.Context, in BalanceInput) (PeriodBalance, error) {
	b, err := in.Build()
	if err != nil {
		return PeriodBalance{}, err
	}
	if err := s.store.SetOpeningBalance(ctx, b.Period, b.OpeningBalance); err != nil {
		return PeriodBalance{}, err
	}
	return b, nil
}

func (s *Service) OpeningBalance(period Month) (BalanceView, error) {
	v, err := s.engine.OpeningBalance(s.store.Snapshot(), period)
	if err != nil {
		return BalanceView{}, err
	}
	_, override := s.store.OpeningBalanceOverride(period)
	return BalanceView{Period: period, OpeningBalance: v, Override: override}, nil
}

func (s *Service) Reconcile(rng DateRange) (Reconciliation, error) {
	return s.engine.Aggregate(s.store.Snapshot(), rng)
}

// MonthSummary reconciles one calendar month.
func (s *Service) MonthSummary(period Month) (Reconciliation, error) {
	if err := period.Validate(); err != nil {
		return Reconciliation{}, err
	}
	return s.Reconcile(period.Range())
}

func (s *Service) AnnualSummary(year int) (AnnualSummary, error) {
	return s.engine.AnnualSummary(s.store.Snapshot(), year)
}

// =============================================================================
// ARQUEOS
// =============================================================================

// SaveArqueo reconciles rng over the current records and freezes the result.
func (s *Service) SaveArqueo(ctx context.Context, rng DateRange, description string) (Arqueo, error) {
	rec, err := s.Reconcile(rng)
	if err != nil {
		return Arqueo{}, err
	}
	return s.ledger.Save(ctx, rng, rec, description)
}

func (s *Service) Arqueos() []Arqueo { return s.ledger.List() }

func (s *Service) Arqueo(id string) (Arqueo, error) { return s.ledger.Get(id) }

func (s *Service) DeleteArqueo(ctx context.Context, id string) error {
	return s.ledger.Delete(ctx, id)
}

// Export bundles an arqueo with the reconciliation rebuilt for it.
type Export struct {
	Arqueo         Arqueo         `json:"arqueo"`
	Reconciliation Reconciliation `json:"reconciliation"`
	Divergence     Divergence     `json:"divergence"`
}

func (s *Service) ExportArqueo(id string) (Export, error) {
	a, err := s.ledger.Get(id)
	if err != nil {
		return Export{}, err
	}
	rec, div, err := s.ledger.ReconstructForExport(s.store.Snapshot(), a)
	if err != nil {
		return Export{}, err
	}
	return Export{Arqueo: a, Reconciliation: rec, Divergence: div}, nil
}

// SuggestRange proposes the next range to reconcile. An empty today means
// the service clock's date.
func (s *Service) SuggestRange(today Date) (DateRange, error) {
	if today == "" {
		today = s.Today()
	}
	return SuggestRange(s.ledger.List(), today)
}

// =============================================================================
// CONFIG
// =============================================================================

func (s *Service) ChurchConfig() ChurchConfig { return s.store.ChurchConfig() }

func (s *Service) SetChurchConfig(ctx context.Context, cfg ChurchConfig) (ChurchConfig, error) {
	if err := s.store.SetChurchName(ctx, cfg.Name); err != nil {
		return ChurchConfig{}, err
	}
	return s.store.ChurchConfig(), nil
}

// Reset clears all records, keeping the church configuration.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.Reset(ctx)
}
