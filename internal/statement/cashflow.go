package statement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

// bucketFor assigns an entry's cash movement to a cash-flow bucket by its
// reference type. Lending, repayments and the cost base are the institution's
// operating activity; capital movements are financing.
func bucketFor(refType domain.ReferenceType) domain.CashFlowBucket {
	switch refType {
	case domain.ReferenceTypeCapital:
		return domain.CashFlowFinancing
	case domain.ReferenceTypeLoan, domain.ReferenceTypeCustomer,
		domain.ReferenceTypeExpense, domain.ReferenceTypeSalary,
		domain.ReferenceTypeEmployee:
		return domain.CashFlowOperating
	default:
		return domain.CashFlowInvesting
	}
}

// ComputeCashFlow builds the cash-flow statement for one fiscal period.
// entries must be every posted entry through the period's end; cashAccounts
// is the set of account ids treated as cash. actualCash is the stored closing
// balance of the primary cash account, cross-checked against the derived
// ending figure.
func ComputeCashFlow(fiscalYear, fiscalPeriod int, branch string, cashAccounts map[uuid.UUID]bool, actualCash decimal.Decimal, entries []domain.JournalEntry) *domain.CashFlow {
	cf := &domain.CashFlow{
		FiscalYear:   fiscalYear,
		FiscalPeriod: fiscalPeriod,
		Branch:       branch,
		ActualCash:   actualCash,
	}

	for i := range entries {
		e := &entries[i]

		delta := decimal.Zero
		for j := range e.Lines {
			l := &e.Lines[j]
			if !cashAccounts[l.AccountID] {
				continue
			}
			delta = delta.Add(l.Debit).Sub(l.Credit)
		}
		if delta.IsZero() {
			continue
		}

		if !inPeriod(e, fiscalYear, fiscalPeriod) {
			cf.BeginningCash = cf.BeginningCash.Add(delta)
			continue
		}
		switch bucketFor(e.ReferenceType) {
		case domain.CashFlowOperating:
			cf.Operating = cf.Operating.Add(delta)
		case domain.CashFlowInvesting:
			cf.Investing = cf.Investing.Add(delta)
		case domain.CashFlowFinancing:
			cf.Financing = cf.Financing.Add(delta)
		}
	}

	cf.EndingCash = cf.BeginningCash.
		Add(cf.Operating).
		Add(cf.Investing).
		Add(cf.Financing)
	cf.Reconciled = cf.EndingCash.Sub(cf.ActualCash).Abs().LessThan(domain.BalanceTolerance)
	return cf
}
