package statement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

// ComputeProfitLoss builds the income statement for one fiscal period.
// Revenue and expense accounts are summed from the period's entries only;
// accounts with zero period movement are omitted.
func ComputeProfitLoss(fiscalYear, fiscalPeriod int, branch string, accounts []domain.Account, entries []domain.JournalEntry) *domain.ProfitLoss {
	byID := make(map[uuid.UUID]*domain.Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}

	movement := make(map[uuid.UUID]decimal.Decimal)
	for i := range entries {
		e := &entries[i]
		if !inPeriod(e, fiscalYear, fiscalPeriod) {
			continue
		}
		for j := range e.Lines {
			l := &e.Lines[j]
			acct, ok := byID[l.AccountID]
			if !ok {
				continue
			}
			if acct.Type != domain.AccountTypeRevenue && acct.Type != domain.AccountTypeExpense {
				continue
			}
			movement[l.AccountID] = movement[l.AccountID].Add(acct.BalanceDelta(l.Debit, l.Credit))
		}
	}

	pl := &domain.ProfitLoss{
		FiscalYear:   fiscalYear,
		FiscalPeriod: fiscalPeriod,
		Branch:       branch,
	}
	for i := range accounts {
		acct := &accounts[i]
		amount, ok := movement[acct.ID]
		if !ok || amount.IsZero() {
			continue
		}
		line := domain.StatementLine{
			AccountCode: acct.Code,
			AccountName: acct.Name,
			Amount:      amount,
		}
		if acct.Type == domain.AccountTypeRevenue {
			pl.Revenue = append(pl.Revenue, line)
			pl.TotalRevenue = pl.TotalRevenue.Add(amount)
		} else {
			pl.Expenses = append(pl.Expenses, line)
			pl.TotalExpense = pl.TotalExpense.Add(amount)
		}
	}

	pl.NetIncome = pl.TotalRevenue.Sub(pl.TotalExpense)
	// Zero revenue reports a zero margin, never NaN.
	if !pl.TotalRevenue.IsZero() {
		pl.NetMargin = pl.NetIncome.Div(pl.TotalRevenue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return pl
}
