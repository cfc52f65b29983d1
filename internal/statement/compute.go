package statement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

// periodBounds returns the first instant of a fiscal period and the first
// instant of the next one. Periods are calendar months.
func periodBounds(fiscalYear, fiscalPeriod int) (start, next time.Time) {
	start = time.Date(fiscalYear, time.Month(fiscalPeriod), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// replayBalances folds every entry's lines into per-account balances,
// starting from zero. Statements never trust the mutable balance counter;
// they are derived from the entry history alone.
func replayBalances(accounts []domain.Account, entries []domain.JournalEntry) map[uuid.UUID]decimal.Decimal {
	byID := make(map[uuid.UUID]*domain.Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}

	balances := make(map[uuid.UUID]decimal.Decimal, len(accounts))
	for i := range entries {
		e := &entries[i]
		for j := range e.Lines {
			l := &e.Lines[j]
			acct, ok := byID[l.AccountID]
			if !ok {
				continue
			}
			balances[l.AccountID] = balances[l.AccountID].Add(acct.BalanceDelta(l.Debit, l.Credit))
		}
	}
	return balances
}

// inPeriod reports whether the entry belongs to the given fiscal period.
func inPeriod(e *domain.JournalEntry, fiscalYear, fiscalPeriod int) bool {
	return e.FiscalYear == fiscalYear && e.FiscalPeriod == fiscalPeriod
}

// ratio divides guarding the zero denominator: a sheet with no liabilities
// reports 0, never a division error or an infinity.
func ratio(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.Div(denominator).Round(4)
}
