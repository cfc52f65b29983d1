package coa

import "github.com/mfi-core/backoffice-ledger/internal/domain"

// DefaultAccount is one row of the chart seeded into a fresh installation.
type DefaultAccount struct {
	Code     string
	Name     string
	Type     domain.AccountType
	Category string
}

// DefaultChart is the standard microfinance chart of accounts. Codes follow
// the hierarchical primary scheme; legacy flat codes only exist on migrated
// installations and are never seeded here.
func DefaultChart() []DefaultAccount {
	return []DefaultAccount{
		{"1.0.0.1", "Cash on Hand", domain.AccountTypeAsset, "current"},
		{"1.0.0.2", "Bank", domain.AccountTypeAsset, "current"},
		{"1.0.1.1", "Loans Receivable", domain.AccountTypeAsset, "current"},
		{"1.0.1.2", "Interest Receivable", domain.AccountTypeAsset, "current"},
		{"1.0.9.1", "Office Equipment", domain.AccountTypeAsset, "fixed"},
		{"2.0.0.1", "Client Savings", domain.AccountTypeLiability, "current"},
		{"2.0.1.1", "Taxes Payable", domain.AccountTypeLiability, "current"},
		{"3.0.0.1", "Paid-in Capital", domain.AccountTypeEquity, "capital"},
		{"3.0.0.2", "Retained Earnings", domain.AccountTypeEquity, "capital"},
		{"4.0.0.1", "Interest Income", domain.AccountTypeRevenue, "operating"},
		{"4.0.1.1", "Fee Income", domain.AccountTypeRevenue, "operating"},
		{"5.0.0.1", "Operating Expenses", domain.AccountTypeExpense, "operating"},
		{"5.0.0.2", "Office Supplies Expense", domain.AccountTypeExpense, "operating"},
		{"5.0.0.3", "Rent Expense", domain.AccountTypeExpense, "operating"},
		{"5.0.0.4", "Utilities Expense", domain.AccountTypeExpense, "operating"},
		{"5.0.0.5", "Transport Expense", domain.AccountTypeExpense, "operating"},
		{"5.0.1.1", "Salary Expense", domain.AccountTypeExpense, "operating"},
		{"5.0.2.1", "Loan Write-off Expense", domain.AccountTypeExpense, "operating"},
	}
}
