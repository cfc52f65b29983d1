package statement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

var (
	cashAcct = domain.Account{
		ID: uuid.New(), Code: "1.0.0.1", Name: "Cash on Hand",
		Type: domain.AccountTypeAsset, Category: "current", IsActive: true,
	}
	loansAcct = domain.Account{
		ID: uuid.New(), Code: "1.0.1.1", Name: "Loans Receivable",
		Type: domain.AccountTypeAsset, Category: "current", IsActive: true,
	}
	savingsAcct = domain.Account{
		ID: uuid.New(), Code: "2.0.0.1", Name: "Client Savings",
		Type: domain.AccountTypeLiability, Category: "current", IsActive: true,
	}
	capitalAcct = domain.Account{
		ID: uuid.New(), Code: "3.0.0.1", Name: "Paid-in Capital",
		Type: domain.AccountTypeEquity, Category: "capital", IsActive: true,
	}
	interestAcct = domain.Account{
		ID: uuid.New(), Code: "4.0.0.1", Name: "Interest Income",
		Type: domain.AccountTypeRevenue, Category: "operating", IsActive: true,
	}
	feeAcct = domain.Account{
		ID: uuid.New(), Code: "4.0.1.1", Name: "Fee Income",
		Type: domain.AccountTypeRevenue, Category: "operating", IsActive: true,
	}
	expenseAcct = domain.Account{
		ID: uuid.New(), Code: "5.0.0.1", Name: "Operating Expenses",
		Type: domain.AccountTypeExpense, Category: "operating", IsActive: true,
	}
)

func chart() []domain.Account {
	return []domain.Account{cashAcct, loansAcct, savingsAcct, capitalAcct, interestAcct, feeAcct, expenseAcct}
}

func entry(txnDate time.Time, refType domain.ReferenceType, lines ...domain.JournalLine) domain.JournalEntry {
	year, period := domain.FiscalPeriodOf(txnDate)
	e := domain.JournalEntry{
		ID:              uuid.New(),
		TransactionDate: txnDate,
		ReferenceType:   refType,
		FiscalYear:      year,
		FiscalPeriod:    period,
		Branch:          "HQ",
		Status:          domain.EntryStatusPosted,
		Lines:           lines,
	}
	for _, l := range lines {
		e.TotalDebit = e.TotalDebit.Add(l.Debit)
		e.TotalCredit = e.TotalCredit.Add(l.Credit)
	}
	return e
}

func debit(acct domain.Account, amount int64) domain.JournalLine {
	return domain.JournalLine{
		ID: uuid.New(), AccountID: acct.ID, AccountCode: acct.Code,
		Debit: decimal.NewFromInt(amount),
	}
}

func credit(acct domain.Account, amount int64) domain.JournalLine {
	return domain.JournalLine{
		ID: uuid.New(), AccountID: acct.ID, AccountCode: acct.Code,
		Credit: decimal.NewFromInt(amount),
	}
}

var (
	jan15 = time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	feb10 = time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)
	feb20 = time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC)
)

// A small but complete February: capital in January, then a disbursement
// with a fee, a repayment with interest, and an expense.
func februaryLedger() []domain.JournalEntry {
	return []domain.JournalEntry{
		entry(jan15, domain.ReferenceTypeCapital,
			debit(cashAcct, 2_000_000), credit(capitalAcct, 2_000_000)),
		entry(feb10, domain.ReferenceTypeLoan,
			debit(loansAcct, 1_030_000), credit(cashAcct, 1_000_000), credit(feeAcct, 30_000)),
		entry(feb20, domain.ReferenceTypeLoan,
			debit(cashAcct, 120_000), credit(loansAcct, 100_000), credit(interestAcct, 20_000)),
		entry(feb20, domain.ReferenceTypeExpense,
			debit(expenseAcct, 50_000), credit(cashAcct, 50_000)),
	}
}

func TestComputeTrialBalance(t *testing.T) {
	periodStart, next := periodBounds(2025, 2)
	asOf := next.Add(-time.Second)

	tb := ComputeTrialBalance(asOf, periodStart, "HQ", chart(), februaryLedger())

	require.True(t, tb.IsBalanced)
	assert.True(t, tb.TotalDebit.Equal(decimal.NewFromInt(1_200_000)), "got %s", tb.TotalDebit)
	assert.True(t, tb.TotalCredit.Equal(tb.TotalDebit))

	rows := make(map[string]domain.TrialBalanceRow, len(tb.Rows))
	for _, r := range tb.Rows {
		rows[r.AccountCode] = r
	}

	cash := rows[cashAcct.Code]
	assert.True(t, cash.OpeningBalance.Equal(decimal.NewFromInt(2_000_000)))
	assert.True(t, cash.Debits.Equal(decimal.NewFromInt(120_000)))
	assert.True(t, cash.Credits.Equal(decimal.NewFromInt(1_050_000)))
	assert.True(t, cash.ClosingBalance.Equal(decimal.NewFromInt(1_070_000)))

	loans := rows[loansAcct.Code]
	assert.True(t, loans.OpeningBalance.IsZero())
	assert.True(t, loans.ClosingBalance.Equal(decimal.NewFromInt(930_000)))
}

func TestComputeTrialBalanceEmptyPeriod(t *testing.T) {
	periodStart, next := periodBounds(2025, 6)
	asOf := next.Add(-time.Second)

	tb := ComputeTrialBalance(asOf, periodStart, "HQ", chart(), nil)

	assert.True(t, tb.IsBalanced)
	assert.Empty(t, tb.Rows)
	assert.True(t, tb.TotalDebit.IsZero())
	assert.True(t, tb.TotalCredit.IsZero())
}

func TestComputeProfitLoss(t *testing.T) {
	pl := ComputeProfitLoss(2025, 2, "HQ", chart(), februaryLedger())

	assert.True(t, pl.TotalRevenue.Equal(decimal.NewFromInt(50_000)), "got %s", pl.TotalRevenue)
	assert.True(t, pl.TotalExpense.Equal(decimal.NewFromInt(50_000)))
	assert.True(t, pl.NetIncome.IsZero())
	assert.True(t, pl.NetMargin.IsZero())
	assert.Len(t, pl.Revenue, 2)
	assert.Len(t, pl.Expenses, 1)
}

func TestComputeProfitLossZeroRevenue(t *testing.T) {
	entries := []domain.JournalEntry{
		entry(feb10, domain.ReferenceTypeExpense,
			debit(expenseAcct, 50_000), credit(cashAcct, 50_000)),
	}

	pl := ComputeProfitLoss(2025, 2, "HQ", chart(), entries)

	assert.True(t, pl.TotalRevenue.IsZero())
	assert.True(t, pl.NetIncome.Equal(decimal.NewFromInt(-50_000)))
	assert.True(t, pl.NetMargin.IsZero(), "zero revenue must report a zero margin")
}

func TestComputeProfitLossMargin(t *testing.T) {
	entries := []domain.JournalEntry{
		entry(feb20, domain.ReferenceTypeLoan,
			debit(cashAcct, 100_000), credit(interestAcct, 100_000)),
		entry(feb20, domain.ReferenceTypeExpense,
			debit(expenseAcct, 25_000), credit(cashAcct, 25_000)),
	}

	pl := ComputeProfitLoss(2025, 2, "HQ", chart(), entries)

	assert.True(t, pl.NetIncome.Equal(decimal.NewFromInt(75_000)))
	assert.True(t, pl.NetMargin.Equal(decimal.NewFromInt(75)), "got %s", pl.NetMargin)
}

func TestComputeBalanceSheet(t *testing.T) {
	_, next := periodBounds(2025, 2)
	asOf := next.Add(-time.Second)

	bs := ComputeBalanceSheet(asOf, "HQ", chart(), februaryLedger())

	assert.True(t, bs.TotalAssets.Equal(decimal.NewFromInt(2_000_000)), "got %s", bs.TotalAssets)
	assert.True(t, bs.TotalLiabilities.IsZero())
	assert.True(t, bs.TotalEquity.Equal(decimal.NewFromInt(2_000_000)))
	assert.True(t, bs.Discrepancy.IsZero(), "clean ledger must balance, got %s", bs.Discrepancy)

	// No liabilities: both ratios with liability or zero denominators
	// fall back to zero instead of dividing.
	assert.True(t, bs.CurrentRatio.IsZero())
	assert.True(t, bs.DebtToEquity.IsZero())
	assert.True(t, bs.CapitalAdequacy.Equal(decimal.NewFromInt(1)))
}

func TestComputeBalanceSheetRetainedEarnings(t *testing.T) {
	entries := []domain.JournalEntry{
		entry(feb20, domain.ReferenceTypeLoan,
			debit(cashAcct, 100_000), credit(interestAcct, 100_000)),
	}
	_, next := periodBounds(2025, 2)

	bs := ComputeBalanceSheet(next.Add(-time.Second), "HQ", chart(), entries)

	require.True(t, bs.Discrepancy.IsZero())
	var retained *domain.StatementLine
	for i := range bs.Equity {
		if bs.Equity[i].AccountName == "Retained Earnings" {
			retained = &bs.Equity[i]
		}
	}
	require.NotNil(t, retained)
	assert.True(t, retained.Amount.Equal(decimal.NewFromInt(100_000)))
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		refType domain.ReferenceType
		want    domain.CashFlowBucket
	}{
		{domain.ReferenceTypeLoan, domain.CashFlowOperating},
		{domain.ReferenceTypeExpense, domain.CashFlowOperating},
		{domain.ReferenceTypeSalary, domain.CashFlowOperating},
		{domain.ReferenceTypeCustomer, domain.CashFlowOperating},
		{domain.ReferenceTypeEmployee, domain.CashFlowOperating},
		{domain.ReferenceTypeCapital, domain.CashFlowFinancing},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, bucketFor(tc.refType), "refType %s", tc.refType)
	}
}

func TestComputeCashFlow(t *testing.T) {
	cashSet := map[uuid.UUID]bool{cashAcct.ID: true}
	actual := decimal.NewFromInt(1_070_000)

	cf := ComputeCashFlow(2025, 2, "HQ", cashSet, actual, februaryLedger())

	assert.True(t, cf.BeginningCash.Equal(decimal.NewFromInt(2_000_000)))
	assert.True(t, cf.Operating.Equal(decimal.NewFromInt(-930_000)), "got %s", cf.Operating)
	assert.True(t, cf.Investing.IsZero())
	assert.True(t, cf.Financing.IsZero())
	assert.True(t, cf.EndingCash.Equal(decimal.NewFromInt(1_070_000)))
	assert.True(t, cf.Reconciled)
}

func TestComputeCashFlowUnreconciled(t *testing.T) {
	cashSet := map[uuid.UUID]bool{cashAcct.ID: true}
	// Stored balance drifted from what the entry history supports.
	actual := decimal.NewFromInt(1_000_000)

	cf := ComputeCashFlow(2025, 2, "HQ", cashSet, actual, februaryLedger())

	assert.False(t, cf.Reconciled)
	assert.True(t, cf.EndingCash.Equal(decimal.NewFromInt(1_070_000)))
}

func TestRatio(t *testing.T) {
	assert.True(t, ratio(decimal.NewFromInt(10), decimal.Zero).IsZero())
	assert.True(t, ratio(decimal.NewFromInt(10), decimal.NewFromInt(4)).Equal(decimal.NewFromFloat(2.5)))
}
