/*
allocation.go - Category totals and weighted fund allocation

PURPOSE:
  Sums receipts per category and splits every category total across the
  three destination funds: Asociación (regional association), Iglesia
  (local church) and Otros (other/minor funds).

THE PARTITION RULE:
  For every category, association + church + other weights == 1 exactly.
  The weights live in one declarative table so the rule can be audited by
  reading a single place (and is checked by ValidateWeightTable).

    category                         association  church  other
    primicia, diezmo, renuevaRadio,
    primerSabado, semanaOracion,
    misionExtranj                       1.00       0.00    0.00
    pobres, agradecimiento,
    escuelaSabatica, jovenes,
    adolescentes, ninos, educacion,
    salud, obraMisionera, musica        0.50       0.45    0.05
    construccion, cultos                0.00       0.90    0.10

PRECISION:
  Weights and amounts are decimals; there is no rounding here.
*/
package treasury

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FUNDS & WEIGHTS
// =============================================================================

type Fund string

const (
	FundAssociation Fund = "association"
	FundChurch      Fund = "church"
	FundOther       Fund = "other"
)

var Funds = []Fund{FundAssociation, FundChurch, FundOther}

// CategoryWeights is one row of the allocation table.
type CategoryWeights struct {
	Category    Category
	Association decimal.Decimal
	Church      decimal.Decimal
	Other       decimal.Decimal
}

func (w CategoryWeights) For(f Fund) decimal.Decimal {
	switch f {
	case FundAssociation:
		return w.Association
	case FundChurch:
		return w.Church
	case FundOther:
		return w.Other
	}
	return decimal.Zero
}

func (w CategoryWeights) Sum() decimal.Decimal {
	return w.Association.Add(w.Church).Add(w.Other)
}

var (
	wFull    = decimal.NewFromInt(1)
	wHalf    = decimal.RequireFromString("0.5")
	wChurch  = decimal.RequireFromString("0.45")
	wOther   = decimal.RequireFromString("0.05")
	wBuild   = decimal.RequireFromString("0.9")
	wBuildOt = decimal.RequireFromString("0.1")
	wNone    = decimal.Zero
)

func fullyAssociation(c Category) CategoryWeights {
	return CategoryWeights{Category: c, Association: wFull, Church: wNone, Other: wNone}
}

func shared(c Category) CategoryWeights {
	return CategoryWeights{Category: c, Association: wHalf, Church: wChurch, Other: wOther}
}

func localChurch(c Category) CategoryWeights {
	return CategoryWeights{Category: c, Association: wNone, Church: wBuild, Other: wBuildOt}
}

var weightTable = []CategoryWeights{
	fullyAssociation(Primicia),
	fullyAssociation(Diezmo),
	shared(Pobres),
	shared(Agradecimiento),
	localChurch(Cultos),
	shared(EscuelaSabatica),
	shared(Jovenes),
	shared(Adolescentes),
	shared(Ninos),
	shared(Educacion),
	shared(Salud),
	shared(ObraMisionera),
	shared(Musica),
	fullyAssociation(RenuevaRadio),
	fullyAssociation(PrimerSabado),
	fullyAssociation(SemanaOracion),
	fullyAssociation(MisionExtranj),
	localChurch(Construccion),
}

// WeightTable returns a copy of the allocation table in category order.
func WeightTable() []CategoryWeights {
	out := make([]CategoryWeights, len(weightTable))
	copy(out, weightTable)
	return out
}

// ValidateWeightTable checks that every category appears exactly once and
// that its three weights add up to exactly one.
func ValidateWeightTable() error {
	return validateWeights(weightTable)
}

func validateWeights(table []CategoryWeights) error {
	seen := make(map[Category]bool, len(table))
	for _, w := range table {
		if !w.Category.IsKnown() {
			return fmt.Errorf("%w: %s", ErrUnknownCategory, w.Category)
		}
		if seen[w.Category] {
			return fmt.Errorf("%w: %s listed twice", ErrPartitionViolated, w.Category)
		}
		seen[w.Category] = true
		if !w.Sum().Equal(wFull) {
			return fmt.Errorf("%w: %s weights sum to %s", ErrPartitionViolated, w.Category, w.Sum())
		}
	}
	for _, c := range Categories {
		if !seen[c] {
			return fmt.Errorf("%w: %s has no weights", ErrPartitionViolated, c)
		}
	}
	return nil
}

// =============================================================================
// ALLOCATION
// =============================================================================

// FundShare is one fund's view of the category totals. Amounts lists every
// category the fund takes a share of, zero values included.
type FundShare struct {
	Amounts CategoryAmounts `json:"amounts"`
	Total   decimal.Decimal `json:"total"`
}

func (s FundShare) clone() FundShare {
	return FundShare{Amounts: s.Amounts.Clone(), Total: s.Total}
}

type FundAllocation struct {
	Association FundShare `json:"association"`
	Church      FundShare `json:"church"`
	Other       FundShare `json:"other"`
}

func (a FundAllocation) Share(f Fund) FundShare {
	switch f {
	case FundAssociation:
		return a.Association
	case FundChurch:
		return a.Church
	case FundOther:
		return a.Other
	}
	return FundShare{}
}

func (a FundAllocation) Clone() FundAllocation {
	return FundAllocation{
		Association: a.Association.clone(),
		Church:      a.Church.clone(),
		Other:       a.Other.clone(),
	}
}

// Allocation is the output of Allocate.
type Allocation struct {
	Totals CategoryAmounts
	Funds  FundAllocation
}

// Allocate sums the receipts per category and applies the weight table.
// It is pure: the same receipts always give the same allocation. An empty
// input gives all-zero totals.
func Allocate(receipts []IncomeReceipt) (Allocation, error) {
	totals := NewCategoryAmounts()
	for _, r := range receipts {
		if err := r.Categories.Validate(); err != nil {
			if ce, ok := err.(*ConsistencyError); ok {
				ce.RecordID = r.ID
			}
			return Allocation{}, err
		}
		for c, v := range r.Categories {
			totals[c] = totals[c].Add(v)
		}
	}
	return AllocateTotals(totals)
}

// AllocateTotals applies the weight table to already summed totals.
func AllocateTotals(totals CategoryAmounts) (Allocation, error) {
	if err := totals.Validate(); err != nil {
		return Allocation{}, err
	}

	shares := map[Fund]*FundShare{
		FundAssociation: {Amounts: CategoryAmounts{}, Total: decimal.Zero},
		FundChurch:      {Amounts: CategoryAmounts{}, Total: decimal.Zero},
		FundOther:       {Amounts: CategoryAmounts{}, Total: decimal.Zero},
	}

	for _, w := range weightTable {
		total := totals.Get(w.Category)
		split := decimal.Zero
		for _, f := range Funds {
			weight := w.For(f)
			if weight.IsZero() {
				continue
			}
			part := total.Mul(weight)
			share := shares[f]
			share.Amounts[w.Category] = part
			share.Total = share.Total.Add(part)
			split = split.Add(part)
		}
		if !split.Equal(total) {
			return Allocation{}, &ConsistencyError{
				Field: string(w.Category),
				Err:   fmt.Errorf("%w: shares %s != total %s", ErrPartitionViolated, split, total),
			}
		}
	}

	full := NewCategoryAmounts()
	for c, v := range totals {
		full[c] = v
	}

	return Allocation{
		Totals: full,
		Funds: FundAllocation{
			Association: *shares[FundAssociation],
			Church:      *shares[FundChurch],
			Other:       *shares[FundOther],
		},
	}, nil
}
