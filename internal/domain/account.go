package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	default:
		return false
	}
}

type EntrySide string

const (
	SideDebit  EntrySide = "debit"
	SideCredit EntrySide = "credit"
)

// Opposite returns the other side, used when a reversal swaps lines.
func (s EntrySide) Opposite() EntrySide {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// NormalSide is the side on which an account's balance grows:
// debit for asset/expense, credit for liability/equity/revenue.
func (t AccountType) NormalSide() EntrySide {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// Account is one row in the chart of accounts. Codes are hierarchical
// ("1.0.1.1"); legacy charts use flat numeric codes ("1100").
type Account struct {
	ID             uuid.UUID
	Code           string
	Name           string
	Type           AccountType
	Category       string
	CurrentBalance decimal.Decimal
	IsActive       bool
	Version        int64
	CreatedAt      time.Time
}

// BalanceDelta is the signed effect of a (debit, credit) pair on this
// account's current balance, respecting its normal side.
func (a *Account) BalanceDelta(debit, credit decimal.Decimal) decimal.Decimal {
	if a.Type.NormalSide() == SideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}
