package ledger

import (
	"github.com/shopspring/decimal"
)

type FeeType string

const (
	FeeFlat    FeeType = "flat"
	FeePercent FeeType = "percent"
)

// FeeSchedule is the product-derived fee attached to a disbursement. A zero
// schedule derives a zero fee, which is then omitted from the entry.
type FeeSchedule struct {
	Type  FeeType
	Value decimal.Decimal // flat amount, or percentage of principal
}

func (f FeeSchedule) FeeFor(principal decimal.Decimal) decimal.Decimal {
	switch f.Type {
	case FeeFlat:
		return f.Value.Round(2)
	case FeePercent:
		return principal.Mul(f.Value).Div(decimal.NewFromInt(100)).Round(2)
	default:
		return decimal.Zero
	}
}

type InterestMethod string

const (
	InterestFlat      InterestMethod = "flat"
	InterestDeclining InterestMethod = "declining"
)

// InterestTerms derives one period's interest from the product's rate, type
// and payment frequency.
type InterestTerms struct {
	AnnualRate     decimal.Decimal // percentage, e.g. 24 for 24% p.a.
	Method         InterestMethod
	PaymentsPerYear int
}

// PeriodInterest computes the interest due for one payment period. For flat
// interest the base is the original principal; for declining balance it is
// the outstanding principal.
func (t InterestTerms) PeriodInterest(originalPrincipal, outstanding decimal.Decimal) decimal.Decimal {
	if t.PaymentsPerYear <= 0 || t.AnnualRate.IsZero() {
		return decimal.Zero
	}

	base := originalPrincipal
	if t.Method == InterestDeclining {
		base = outstanding
	}

	periods := decimal.NewFromInt(int64(t.PaymentsPerYear))
	hundred := decimal.NewFromInt(100)
	return base.Mul(t.AnnualRate).Div(hundred).Div(periods).Round(2)
}
