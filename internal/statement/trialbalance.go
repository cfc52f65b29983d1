package statement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

// ComputeTrialBalance builds the trial balance as of asOf. entries must be
// every posted entry through asOf; movement before periodStart lands in the
// opening balance column, the rest in the period debit/credit columns.
// Accounts with no movement and a zero balance are omitted.
func ComputeTrialBalance(asOf, periodStart time.Time, branch string, accounts []domain.Account, entries []domain.JournalEntry) *domain.TrialBalance {
	type movement struct {
		opening decimal.Decimal
		debits  decimal.Decimal
		credits decimal.Decimal
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID.String()] = &accounts[i]
	}

	moves := make(map[string]*movement, len(accounts))
	for i := range entries {
		e := &entries[i]
		for j := range e.Lines {
			l := &e.Lines[j]
			acct, ok := byID[l.AccountID.String()]
			if !ok {
				continue
			}
			m, ok := moves[l.AccountID.String()]
			if !ok {
				m = &movement{}
				moves[l.AccountID.String()] = m
			}
			if e.TransactionDate.Before(periodStart) {
				m.opening = m.opening.Add(acct.BalanceDelta(l.Debit, l.Credit))
				continue
			}
			m.debits = m.debits.Add(l.Debit)
			m.credits = m.credits.Add(l.Credit)
		}
	}

	tb := &domain.TrialBalance{AsOf: asOf, Branch: branch}
	for i := range accounts {
		acct := &accounts[i]
		m, ok := moves[acct.ID.String()]
		if !ok {
			continue
		}
		closing := m.opening.Add(acct.BalanceDelta(m.debits, m.credits))
		if m.opening.IsZero() && m.debits.IsZero() && m.credits.IsZero() && closing.IsZero() {
			continue
		}
		tb.Rows = append(tb.Rows, domain.TrialBalanceRow{
			AccountCode:    acct.Code,
			AccountName:    acct.Name,
			AccountType:    acct.Type,
			OpeningBalance: m.opening,
			Debits:         m.debits,
			Credits:        m.credits,
			ClosingBalance: closing,
		})
		tb.TotalDebit = tb.TotalDebit.Add(m.debits)
		tb.TotalCredit = tb.TotalCredit.Add(m.credits)
	}

	tb.IsBalanced = tb.TotalDebit.Sub(tb.TotalCredit).Abs().LessThan(domain.BalanceTolerance)
	return tb
}
