/*
Package treasury provides the allocation and reconciliation engine for a
church treasury.

PURPOSE:
  Takes raw itemized income receipts and expenses and deterministically
  computes category totals, the three weighted fund allocations
  (Asociación / Iglesia / Otros), period balances with carry-forward
  opening balances, and frozen reconciliation snapshots (arqueos).

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: one of the 18 fixed income categories (rubros)
  - CategoryAmounts: category -> amount, missing keys read as zero
  - IncomeReceipt / Expense: the two record kinds, immutable once added
  - PeriodBalance: a manual opening-balance override for one month
  - ChurchConfig: organization display name

DESIGN PRINCIPLES:
  1. Immutability: records are added or deleted, never edited
  2. Precision: amounts are decimal.Decimal, rounding happens only when
     presenting (see package report)
  3. Ownership: RecordStore owns all mutable state; the Engine only sees
     read-only Snapshots

SEE ALSO:
  - allocation.go: weight table and Allocate
  - balance.go: opening balance resolution
  - aggregate.go: period reconciliation
  - arqueo.go: persisted reconciliation snapshots
  - store.go: RecordStore and the KV persistence interface
*/
package treasury

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY - Fixed schema of income categories
// =============================================================================

type Category string

const (
	Primicia        Category = "primicia"
	Diezmo          Category = "diezmo"
	Pobres          Category = "pobres"
	Agradecimiento  Category = "agradecimiento"
	Cultos          Category = "cultos"
	EscuelaSabatica Category = "escuelaSabatica"
	Jovenes         Category = "jovenes"
	Adolescentes    Category = "adolescentes"
	Ninos           Category = "ninos"
	Educacion       Category = "educacion"
	Salud           Category = "salud"
	ObraMisionera   Category = "obraMisionera"
	Musica          Category = "musica"
	RenuevaRadio    Category = "renuevaRadio"
	PrimerSabado    Category = "primerSabado"
	SemanaOracion   Category = "semanaOracion"
	MisionExtranj   Category = "misionExtranj"
	Construccion    Category = "construccion"
)

// Categories lists every recognized category in display order.
var Categories = []Category{
	Primicia, Diezmo, Pobres, Agradecimiento, Cultos, EscuelaSabatica,
	Jovenes, Adolescentes, Ninos, Educacion, Salud, ObraMisionera,
	Musica, RenuevaRadio, PrimerSabado, SemanaOracion, MisionExtranj,
	Construccion,
}

var knownCategories = func() map[Category]bool {
	m := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// IsKnown reports whether c is one of the 18 recognized categories.
func (c Category) IsKnown() bool { return knownCategories[c] }

// =============================================================================
// CATEGORY AMOUNTS
// =============================================================================

// CategoryAmounts maps categories to amounts. A missing key reads as zero.
type CategoryAmounts map[Category]decimal.Decimal

// NewCategoryAmounts returns a map with every category set to zero.
func NewCategoryAmounts() CategoryAmounts {
	m := make(CategoryAmounts, len(Categories))
	for _, c := range Categories {
		m[c] = decimal.Zero
	}
	return m
}

func (a CategoryAmounts) Get(c Category) decimal.Decimal {
	if v, ok := a[c]; ok {
		return v
	}
	return decimal.Zero
}

func (a CategoryAmounts) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, c := range a.keys() {
		total = total.Add(a[c])
	}
	return total
}

func (a CategoryAmounts) Clone() CategoryAmounts {
	if a == nil {
		return nil
	}
	out := make(CategoryAmounts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Equal compares two maps treating missing keys as zero.
func (a CategoryAmounts) Equal(b CategoryAmounts) bool {
	for _, c := range Categories {
		if !a.Get(c).Equal(b.Get(c)) {
			return false
		}
	}
	for k := range a {
		if !k.IsKnown() {
			return false
		}
	}
	for k := range b {
		if !k.IsKnown() {
			return false
		}
	}
	return true
}

// Validate rejects unknown keys and negative amounts.
func (a CategoryAmounts) Validate() error {
	for _, c := range a.keys() {
		if !c.IsKnown() {
			return &ConsistencyError{Field: string(c), Err: ErrUnknownCategory}
		}
		if a[c].IsNegative() {
			return &ConsistencyError{Field: string(c), Err: ErrNegativeAmount}
		}
	}
	return nil
}

// keys returns map keys in a stable order so that sums are reproducible.
func (a CategoryAmounts) keys() []Category {
	keys := make([]Category, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// =============================================================================
// RECORDS
// =============================================================================

// IncomeReceipt is one donation event, itemized by category.
// Total is the declared category sum at creation and is not re-validated.
type IncomeReceipt struct {
	ID         string          `json:"id"`
	DonorName  string          `json:"donorName"`
	Date       Date            `json:"date"`
	ChurchName string          `json:"churchName"`
	Categories CategoryAmounts `json:"categories"`
	Total      decimal.Decimal `json:"total"`
}

// Expense is one outflow event.
type Expense struct {
	ID          string          `json:"id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// PeriodBalance is a manual opening balance for one month. At most one
// exists per period; setting it again replaces the previous value.
type PeriodBalance struct {
	Period         Month           `json:"period"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// ChurchConfig holds the organization display name used as the default
// church on receipts and in report headers.
type ChurchConfig struct {
	Name string `json:"name" validate:"required"`
}

// =============================================================================
// SNAPSHOT - Read-only view handed to the engine
// =============================================================================

// Snapshot is an immutable copy of the record state. Engine functions are
// pure over a Snapshot.
type Snapshot struct {
	Receipts []IncomeReceipt
	Expenses []Expense
	Balances []PeriodBalance
}

func (s Snapshot) overrides() map[Month]decimal.Decimal {
	m := make(map[Month]decimal.Decimal, len(s.Balances))
	for _, b := range s.Balances {
		m[b.Period] = b.OpeningBalance
	}
	return m
}

// validate fails on the first record whose date is not a valid YYYY-MM-DD
// string or whose expense amount is negative. Range filtering compares
// strings, so a malformed date would silently land in the wrong period,
// and every period after a bad expense would carry it forward.
func (s Snapshot) validate() error {
	for _, r := range s.Receipts {
		if err := r.Date.Validate(); err != nil {
			return &ConsistencyError{RecordID: r.ID, Field: "date", Err: err}
		}
	}
	for _, e := range s.Expenses {
		if err := e.Date.Validate(); err != nil {
			return &ConsistencyError{RecordID: e.ID, Field: "date", Err: err}
		}
		if e.Amount.IsNegative() {
			return &ConsistencyError{RecordID: e.ID, Field: "amount", Err: ErrNegativeAmount}
		}
	}
	for _, b := range s.Balances {
		if err := b.Period.Validate(); err != nil {
			return &ConsistencyError{Field: "period", Err: err}
		}
	}
	return nil
}
