/*
balance.go - Opening balance resolution with carry-forward

PURPOSE:
  Answers "what did the church fund hold at the start of month P?"

ALGORITHM (for period P):
  1. A manual override for P wins, verbatim.
  2. If the month before P falls before the epoch floor year, the opening
     balance is 0. This is the recursion base case.
  3. Otherwise:
       opening(P) = opening(P-1) + churchTotal(P-1) - expenses(P-1)

  That is a linear recurrence over calendar months. Instead of recursing
  with a full record scan per level, records are bucketed by month once and
  the resolver walks back to the nearest known value (override, memo or
  floor), then forward, memoizing every month it passes.

  The carried value is the closing balance (opening + church net), never the
  bare church net of a month.
*/
package treasury

import (
	"github.com/shopspring/decimal"
)

// DefaultEpochFloorYear is the first year the resolver looks back into.
const DefaultEpochFloorYear = 2000

// =============================================================================
// ENGINE
// =============================================================================

// Engine holds the engine settings. All methods are pure over the Snapshot
// they receive.
type Engine struct {
	// EpochFloorYear stops the carry-forward walk. Zero means
	// DefaultEpochFloorYear.
	EpochFloorYear int
}

func (e Engine) floor() int {
	if e.EpochFloorYear <= 0 {
		return DefaultEpochFloorYear
	}
	return e.EpochFloorYear
}

// OpeningBalance resolves the opening balance of period.
func (e Engine) OpeningBalance(snap Snapshot, period Month) (decimal.Decimal, error) {
	if err := period.Validate(); err != nil {
		return decimal.Zero, err
	}
	if err := snap.validate(); err != nil {
		return decimal.Zero, err
	}
	return newResolver(snap, e.floor()).opening(period)
}

// =============================================================================
// RESOLVER - Memoized walk over monthly buckets
// =============================================================================

type monthFlow struct {
	receipts []IncomeReceipt
	expenses decimal.Decimal

	computed bool
	church   decimal.Decimal
}

type resolver struct {
	overrides map[Month]decimal.Decimal
	months    map[Month]*monthFlow
	floor     int
	memo      map[Month]decimal.Decimal
}

// newResolver expects a snapshot that already passed validate.
func newResolver(snap Snapshot, floor int) *resolver {
	r := &resolver{
		overrides: snap.overrides(),
		months:    make(map[Month]*monthFlow),
		floor:     floor,
		memo:      make(map[Month]decimal.Decimal),
	}
	for _, rc := range snap.Receipts {
		f := r.bucket(rc.Date.Month())
		f.receipts = append(f.receipts, rc)
	}
	for _, ex := range snap.Expenses {
		f := r.bucket(ex.Date.Month())
		f.expenses = f.expenses.Add(ex.Amount)
	}
	return r
}

func (r *resolver) bucket(m Month) *monthFlow {
	f, ok := r.months[m]
	if !ok {
		f = &monthFlow{expenses: decimal.Zero}
		r.months[m] = f
	}
	return f
}

// net returns churchTotal - expenses for month m.
func (r *resolver) net(m Month) (decimal.Decimal, error) {
	f, ok := r.months[m]
	if !ok {
		return decimal.Zero, nil
	}
	if !f.computed {
		alloc, err := Allocate(f.receipts)
		if err != nil {
			return decimal.Zero, err
		}
		f.church = alloc.Funds.Church.Total
		f.computed = true
	}
	return f.church.Sub(f.expenses), nil
}

func (r *resolver) opening(p Month) (decimal.Decimal, error) {
	var chain []Month
	cur := p
	var base decimal.Decimal

	for {
		if v, ok := r.memo[cur]; ok {
			base = v
			break
		}
		if v, ok := r.overrides[cur]; ok {
			base = v
			r.memo[cur] = v
			break
		}
		prev := cur.Previous()
		if prev.Year() < r.floor {
			base = decimal.Zero
			r.memo[cur] = base
			break
		}
		chain = append(chain, cur)
		cur = prev
	}

	// base is opening(cur); chain holds the months after cur, newest first.
	for i := len(chain) - 1; i >= 0; i-- {
		net, err := r.net(cur)
		if err != nil {
			return decimal.Zero, err
		}
		base = base.Add(net)
		cur = chain[i]
		r.memo[cur] = base
	}
	return base, nil
}
