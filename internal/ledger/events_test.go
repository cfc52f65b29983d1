package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfi-core/backoffice-ledger/internal/coa"
	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

func findSpec(t *testing.T, specs []LineSpec, role coa.Role) LineSpec {
	t.Helper()
	for _, s := range specs {
		if s.Role == role {
			return s
		}
	}
	t.Fatalf("no spec for role %s", role)
	return LineSpec{}
}

func totalBySide(specs []LineSpec, side domain.EntrySide) decimal.Decimal {
	total := decimal.Zero
	for _, s := range specs {
		if s.Side == side {
			total = total.Add(s.Amount)
		}
	}
	return total
}

func TestDisbursementLineSpecs(t *testing.T) {
	ev := DisbursementEvent{
		LoanID:    uuid.New(),
		LoanCode:  "L0042",
		Principal: decimal.NewFromInt(1_000_000),
		Fee:       FeeSchedule{Type: FeeFlat, Value: decimal.NewFromInt(30_000)},
	}

	specs, err := ev.LineSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)

	receivable := findSpec(t, specs, coa.RoleLoansReceivable)
	assert.Equal(t, domain.SideDebit, receivable.Side)
	assert.True(t, receivable.Amount.Equal(decimal.NewFromInt(1_030_000)))

	cash := findSpec(t, specs, coa.RoleCash)
	assert.Equal(t, domain.SideCredit, cash.Side)
	assert.True(t, cash.Amount.Equal(decimal.NewFromInt(1_000_000)))

	fee := findSpec(t, specs, coa.RoleFeeIncome)
	assert.Equal(t, domain.SideCredit, fee.Side)
	assert.True(t, fee.Amount.Equal(decimal.NewFromInt(30_000)))

	assert.True(t, totalBySide(specs, domain.SideDebit).Equal(totalBySide(specs, domain.SideCredit)))
	assert.Equal(t, "LOAN-DISB-L0042", ev.Reference())
}

func TestDisbursementZeroFeeOmitsFeeLine(t *testing.T) {
	ev := DisbursementEvent{
		LoanID:    uuid.New(),
		LoanCode:  "L0042",
		Principal: decimal.NewFromInt(500_000),
	}

	specs, err := ev.LineSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)
	for _, s := range specs {
		assert.NotEqual(t, coa.RoleFeeIncome, s.Role)
		assert.False(t, s.Amount.IsZero())
	}
}

func TestDisbursementRejectsNonPositivePrincipal(t *testing.T) {
	for _, principal := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-100)} {
		ev := DisbursementEvent{LoanID: uuid.New(), LoanCode: "L1", Principal: principal}
		_, err := ev.LineSpecs()
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
}

func TestPaymentLineSpecs(t *testing.T) {
	ev := PaymentEvent{
		LoanID:    uuid.New(),
		LoanCode:  "L0042",
		Sequence:  3,
		Principal: decimal.NewFromInt(100_000),
		Interest:  decimal.NewFromInt(20_000),
	}

	specs, err := ev.LineSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)

	cash := findSpec(t, specs, coa.RoleCash)
	assert.Equal(t, domain.SideDebit, cash.Side)
	assert.True(t, cash.Amount.Equal(decimal.NewFromInt(120_000)))

	assert.Equal(t, "LOAN-PMT-L0042-3", ev.Reference())
}

func TestPaymentDerivesInterestFromTerms(t *testing.T) {
	ev := PaymentEvent{
		LoanID:    uuid.New(),
		LoanCode:  "L0042",
		Sequence:  1,
		Principal: decimal.NewFromInt(100_000),
		Terms: &InterestTerms{
			AnnualRate:      decimal.NewFromInt(24),
			Method:          InterestFlat,
			PaymentsPerYear: 12,
		},
		Original: decimal.NewFromInt(1_200_000),
	}

	specs, err := ev.LineSpecs()
	require.NoError(t, err)

	interest := findSpec(t, specs, coa.RoleInterestIncome)
	assert.Equal(t, domain.SideCredit, interest.Side)
	assert.True(t, interest.Amount.Equal(decimal.NewFromInt(24_000)))
}

// A negative principal is a payment reversal: magnitudes survive, sides swap.
func TestPaymentReversalSwapsSides(t *testing.T) {
	ev := PaymentEvent{
		LoanID:    uuid.New(),
		LoanCode:  "L0042",
		Sequence:  3,
		Principal: decimal.NewFromInt(-100_000),
		Interest:  decimal.NewFromInt(20_000),
	}

	specs, err := ev.LineSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)

	cash := findSpec(t, specs, coa.RoleCash)
	assert.Equal(t, domain.SideCredit, cash.Side)
	assert.True(t, cash.Amount.Equal(decimal.NewFromInt(120_000)), "got %s", cash.Amount)

	receivable := findSpec(t, specs, coa.RoleLoansReceivable)
	assert.Equal(t, domain.SideDebit, receivable.Side)
	assert.True(t, receivable.Amount.Equal(decimal.NewFromInt(100_000)))

	interest := findSpec(t, specs, coa.RoleInterestIncome)
	assert.Equal(t, domain.SideDebit, interest.Side)
	assert.True(t, interest.Amount.Equal(decimal.NewFromInt(20_000)))
}

func TestExpenseLineSpecs(t *testing.T) {
	ev := ExpenseEvent{
		ExpenseID: uuid.New(),
		Code:      "E0007",
		Category:  "Office Supplies",
		Amount:    decimal.NewFromInt(50_000),
	}

	specs, err := ev.LineSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "Office Supplies", specs[0].ExpenseCategory)
	assert.Equal(t, domain.SideDebit, specs[0].Side)
	assert.True(t, specs[0].Amount.Equal(decimal.NewFromInt(50_000)))

	cash := findSpec(t, specs, coa.RoleCash)
	assert.Equal(t, domain.SideCredit, cash.Side)
	assert.True(t, cash.Amount.Equal(decimal.NewFromInt(50_000)))
}

func TestWriteOffLineSpecs(t *testing.T) {
	ev := WriteOffEvent{LoanID: uuid.New(), LoanCode: "L0042", Amount: decimal.NewFromInt(75_000)}

	specs, err := ev.LineSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)

	expense := findSpec(t, specs, coa.RoleWriteOffExpense)
	assert.Equal(t, domain.SideDebit, expense.Side)
	receivable := findSpec(t, specs, coa.RoleLoansReceivable)
	assert.Equal(t, domain.SideCredit, receivable.Side)
}

func TestCapitalInjectionLineSpecs(t *testing.T) {
	ev := CapitalInjectionEvent{CapitalID: uuid.New(), Code: "C01", Amount: decimal.NewFromInt(2_000_000)}

	specs, err := ev.LineSpecs()
	require.NoError(t, err)

	cash := findSpec(t, specs, coa.RoleCash)
	assert.Equal(t, domain.SideDebit, cash.Side)
	capital := findSpec(t, specs, coa.RolePaidInCapital)
	assert.Equal(t, domain.SideCredit, capital.Side)
}

func TestCompletionLineSpecs(t *testing.T) {
	ev := CompletionEvent{
		LoanID:             uuid.New(),
		LoanCode:           "L0042",
		RemainingPrincipal: decimal.NewFromInt(200_000),
		ClosingInterest:    decimal.NewFromInt(4_000),
	}

	specs, err := ev.LineSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.True(t, totalBySide(specs, domain.SideDebit).Equal(decimal.NewFromInt(204_000)))
	assert.True(t, totalBySide(specs, domain.SideCredit).Equal(decimal.NewFromInt(204_000)))
}

func TestCompletionRejectsEmptyPayoff(t *testing.T) {
	ev := CompletionEvent{LoanID: uuid.New(), LoanCode: "L0042"}
	_, err := ev.LineSpecs()
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestLegacyReferencePatterns(t *testing.T) {
	assert.Equal(t, []string{
		"LOAN-L0042",
		"LOAN-L0042-%",
		"LOAN-%-L0042",
		"LOAN-%-L0042-%",
	}, LegacyReferencePatterns(domain.ReferenceTypeLoan, "L0042"))

	assert.Equal(t, []string{
		"EXP-E0007",
		"EXP-E0007-%",
		"EXP-%-E0007",
		"EXP-%-E0007-%",
	}, LegacyReferencePatterns(domain.ReferenceTypeExpense, "E0007"))
}

// An empty code must not degenerate into a match-everything pattern.
func TestLegacyReferencePatterns_EmptyCode(t *testing.T) {
	assert.Nil(t, LegacyReferencePatterns(domain.ReferenceTypeLoan, ""))
}

func TestLegacyReferencePatterns_EscapesWildcards(t *testing.T) {
	assert.Equal(t, []string{
		`LOAN-L\%1`,
		`LOAN-L\%1-%`,
		`LOAN-%-L\%1`,
		`LOAN-%-L\%1-%`,
	}, LegacyReferencePatterns(domain.ReferenceTypeLoan, "L%1"))
}
