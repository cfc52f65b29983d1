package statement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

// ComputeBalanceSheet builds the balance sheet as of asOf from every posted
// entry through asOf. Net income to date rolls into equity as retained
// earnings, so on a clean ledger assets equal liabilities plus equity and
// the discrepancy is zero. Any nonzero discrepancy is reported, never hidden.
func ComputeBalanceSheet(asOf time.Time, branch string, accounts []domain.Account, entries []domain.JournalEntry) *domain.BalanceSheet {
	balances := replayBalances(accounts, entries)

	bs := &domain.BalanceSheet{AsOf: asOf, Branch: branch}
	retained := decimal.Zero
	currentAssets := decimal.Zero
	currentLiabilities := decimal.Zero

	for i := range accounts {
		acct := &accounts[i]
		balance := balances[acct.ID]

		// Revenue and expense balances roll into retained earnings rather
		// than appearing as sheet lines.
		switch acct.Type {
		case domain.AccountTypeRevenue:
			retained = retained.Add(balance)
			continue
		case domain.AccountTypeExpense:
			retained = retained.Sub(balance)
			continue
		}

		if balance.IsZero() {
			continue
		}
		line := domain.StatementLine{
			AccountCode: acct.Code,
			AccountName: acct.Name,
			Amount:      balance,
		}
		switch acct.Type {
		case domain.AccountTypeAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(balance)
			if acct.Category == "current" {
				currentAssets = currentAssets.Add(balance)
			}
		case domain.AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(balance)
			if acct.Category == "current" {
				currentLiabilities = currentLiabilities.Add(balance)
			}
		case domain.AccountTypeEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(balance)
		}
	}

	if !retained.IsZero() {
		bs.Equity = append(bs.Equity, domain.StatementLine{
			AccountCode: "",
			AccountName: "Retained Earnings",
			Amount:      retained,
		})
		bs.TotalEquity = bs.TotalEquity.Add(retained)
	}

	bs.Discrepancy = bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity))
	bs.CurrentRatio = ratio(currentAssets, currentLiabilities)
	bs.DebtToEquity = ratio(bs.TotalLiabilities, bs.TotalEquity)
	bs.CapitalAdequacy = ratio(bs.TotalEquity, bs.TotalAssets)
	return bs
}
