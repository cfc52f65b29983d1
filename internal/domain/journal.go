package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceTolerance is the rounding slack allowed between total debits and
// credits of one entry, and between ledger-wide totals on the trial balance.
var BalanceTolerance = decimal.New(1, -2) // 0.01

type EntryStatus string

const (
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
)

// ReferenceType links a journal entry to the business record that caused it.
// The records themselves are owned by external collaborators.
type ReferenceType string

const (
	ReferenceTypeLoan     ReferenceType = "loan"
	ReferenceTypeCustomer ReferenceType = "customer"
	ReferenceTypeExpense  ReferenceType = "expense"
	ReferenceTypeSalary   ReferenceType = "salary"
	ReferenceTypeEmployee ReferenceType = "employee"
	ReferenceTypeCapital  ReferenceType = "capital"
)

type JournalLine struct {
	ID          uuid.UUID
	EntryID     uuid.UUID
	AccountID   uuid.UUID
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	// Balance snapshots let a replay from zero be checked against the
	// stored account balance without trusting the mutable counter.
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Position      int
	CreatedAt     time.Time
}

// Side reports which side the line posts on. Lines with amounts on both
// sides are invalid and rejected by Validate.
func (l *JournalLine) Side() EntrySide {
	if !l.Debit.IsZero() {
		return SideDebit
	}
	return SideCredit
}

func (l *JournalLine) Amount() decimal.Decimal {
	if !l.Debit.IsZero() {
		return l.Debit
	}
	return l.Credit
}

type JournalEntry struct {
	ID              uuid.UUID
	TransactionDate time.Time
	// Reference is the deterministic idempotency key, e.g. "LOAN-DISB-L0042".
	Reference     string
	ReferenceType ReferenceType
	// ReferenceID is nil for legacy entries; those are matched by reference
	// string pattern during cleanup.
	ReferenceID  *uuid.UUID
	Description  string
	Lines        []JournalLine
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	FiscalYear   int
	FiscalPeriod int
	Branch       string
	CreatedBy    string
	Status       EntryStatus
	CreatedAt    time.Time
}

// Validate enforces the entry invariants: at least one line, each line
// nonzero on exactly one side, and totals balanced within tolerance.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) == 0 {
		return ErrEmptyEntry
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i := range e.Lines {
		l := &e.Lines[i]
		hasDebit := !l.Debit.IsZero()
		hasCredit := !l.Credit.IsZero()
		if hasDebit == hasCredit {
			return ErrInvalidLine
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return ErrInvalidLine
		}
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
	}

	if totalDebit.Sub(totalCredit).Abs().GreaterThanOrEqual(BalanceTolerance) {
		return ErrUnbalancedEntry
	}
	return nil
}

// FiscalPeriodOf buckets a transaction date into (year, month).
func FiscalPeriodOf(t time.Time) (year, period int) {
	return t.Year(), int(t.Month())
}
