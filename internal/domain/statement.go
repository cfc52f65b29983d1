package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StatementType string

const (
	StatementTypeTrialBalance StatementType = "trial_balance"
	StatementTypeProfitLoss   StatementType = "profit_loss"
	StatementTypeBalanceSheet StatementType = "balance_sheet"
	StatementTypeCashFlow     StatementType = "cash_flow"
)

// FinancialStatement is the persisted envelope for one generated statement.
// Regeneration for the same (type, year, period, branch) key overwrites in
// place; it is an upsert, never an insert.
type FinancialStatement struct {
	ID                uuid.UUID
	Type              StatementType
	FiscalYear        int
	FiscalPeriod      int
	Branch            string
	Data              []byte // JSON body of one of the statement structs below
	IsBalanced        bool
	NeedsRegeneration bool
	GeneratedAt       time.Time
}

type TrialBalanceRow struct {
	AccountCode    string          `json:"account_code"`
	AccountName    string          `json:"account_name"`
	AccountType    AccountType     `json:"account_type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Debits         decimal.Decimal `json:"debits"`
	Credits        decimal.Decimal `json:"credits"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Branch      string            `json:"branch"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	IsBalanced  bool              `json:"is_balanced"`
}

type StatementLine struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
}

type ProfitLoss struct {
	FiscalYear   int             `json:"fiscal_year"`
	FiscalPeriod int             `json:"fiscal_period"`
	Branch       string          `json:"branch"`
	Revenue      []StatementLine `json:"revenue"`
	Expenses     []StatementLine `json:"expenses"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetIncome    decimal.Decimal `json:"net_income"`
	// NetMargin is 0, never NaN, when revenue is zero.
	NetMargin decimal.Decimal `json:"net_margin"`
}

type BalanceSheet struct {
	AsOf             time.Time       `json:"as_of"`
	Branch           string          `json:"branch"`
	Assets           []StatementLine `json:"assets"`
	Liabilities      []StatementLine `json:"liabilities"`
	Equity           []StatementLine `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	// Discrepancy is assets − (liabilities + equity); zero on a clean ledger.
	Discrepancy     decimal.Decimal `json:"discrepancy"`
	CurrentRatio    decimal.Decimal `json:"current_ratio"`
	DebtToEquity    decimal.Decimal `json:"debt_to_equity"`
	CapitalAdequacy decimal.Decimal `json:"capital_adequacy"`
}

type CashFlowBucket string

const (
	CashFlowOperating CashFlowBucket = "operating"
	CashFlowInvesting CashFlowBucket = "investing"
	CashFlowFinancing CashFlowBucket = "financing"
)

type CashFlow struct {
	FiscalYear    int             `json:"fiscal_year"`
	FiscalPeriod  int             `json:"fiscal_period"`
	Branch        string          `json:"branch"`
	BeginningCash decimal.Decimal `json:"beginning_cash"`
	Operating     decimal.Decimal `json:"operating"`
	Investing     decimal.Decimal `json:"investing"`
	Financing     decimal.Decimal `json:"financing"`
	EndingCash    decimal.Decimal `json:"ending_cash"`
	// ActualCash is the cash account's stored closing balance; Reconciled
	// reports whether the derived ending cash matches it within tolerance.
	ActualCash decimal.Decimal `json:"actual_cash"`
	Reconciled bool            `json:"reconciled"`
}
