package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/coa"
	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

// LineSpec is one journal line before account resolution: a role (or an
// expense category), a side, and a positive amount. Builders never emit
// zero-amount specs; derived amounts that come out zero are omitted.
type LineSpec struct {
	Role            coa.Role
	ExpenseCategory string // used instead of Role when non-empty
	Side            domain.EntrySide
	Amount          decimal.Decimal
}

// Event is a business occurrence the recorder turns into a balanced entry.
// Reference strings are deterministic so re-posting the same event is
// detected and ignored.
type Event interface {
	Reference() string
	ReferenceType() domain.ReferenceType
	ReferenceID() uuid.UUID
	Description() string
	LineSpecs() ([]LineSpec, error)
}

// referencePrefixes maps a reference type to the leading token of every
// reference it produces. Cleanup uses these to pattern-match legacy entries
// that were posted before reference ids existed.
var referencePrefixes = map[domain.ReferenceType]string{
	domain.ReferenceTypeLoan:     "LOAN",
	domain.ReferenceTypeCustomer: "CUST",
	domain.ReferenceTypeExpense:  "EXP",
	domain.ReferenceTypeSalary:   "SAL",
	domain.ReferenceTypeEmployee: "EMP",
	domain.ReferenceTypeCapital:  "CAP",
}

// LegacyReferencePatterns builds the SQL LIKE patterns matching legacy
// entries for a record code, e.g. "LOAN-%-L0042" and "LOAN-%-L0042-%". The
// code is matched only as a whole dash-delimited token, so cleaning "L1"
// never touches "L12". An empty code yields no patterns and legacy matching
// is skipped entirely; entries are then found by reference id alone.
func LegacyReferencePatterns(refType domain.ReferenceType, code string) []string {
	if code == "" {
		return nil
	}
	prefix, ok := referencePrefixes[refType]
	if !ok {
		prefix = string(refType)
	}
	code = escapeLike(code)
	return []string{
		prefix + "-" + code,
		prefix + "-" + code + "-%",
		prefix + "-%-" + code,
		prefix + "-%-" + code + "-%",
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// spec builds a LineSpec, swapping sides when amount is negative: a negative
// amount denotes a reversal and swaps debit/credit, never the magnitude.
func spec(role coa.Role, side domain.EntrySide, amount decimal.Decimal) LineSpec {
	if amount.IsNegative() {
		return LineSpec{Role: role, Side: side.Opposite(), Amount: amount.Abs()}
	}
	return LineSpec{Role: role, Side: side, Amount: amount}
}

func appendNonZero(specs []LineSpec, s LineSpec) []LineSpec {
	if s.Amount.IsZero() {
		return specs
	}
	return append(specs, s)
}

// DisbursementEvent: loan principal leaves cash, the receivable is set up
// for principal plus the product fee, and the fee is recognized as income.
type DisbursementEvent struct {
	LoanID    uuid.UUID
	LoanCode  string
	Principal decimal.Decimal
	Fee       FeeSchedule
}

func (e DisbursementEvent) Reference() string { return fmt.Sprintf("LOAN-DISB-%s", e.LoanCode) }

func (e DisbursementEvent) ReferenceType() domain.ReferenceType { return domain.ReferenceTypeLoan }

func (e DisbursementEvent) ReferenceID() uuid.UUID { return e.LoanID }

func (e DisbursementEvent) Description() string {
	return fmt.Sprintf("Loan disbursement %s", e.LoanCode)
}

func (e DisbursementEvent) LineSpecs() ([]LineSpec, error) {
	if e.Principal.IsZero() || e.Principal.IsNegative() {
		return nil, fmt.Errorf("disbursement %s: principal %s: %w", e.LoanCode, e.Principal, domain.ErrInvalidAmount)
	}

	fee := e.Fee.FeeFor(e.Principal)

	var specs []LineSpec
	specs = appendNonZero(specs, spec(coa.RoleLoansReceivable, domain.SideDebit, e.Principal.Add(fee)))
	specs = appendNonZero(specs, spec(coa.RoleCash, domain.SideCredit, e.Principal))
	specs = appendNonZero(specs, spec(coa.RoleFeeIncome, domain.SideCredit, fee))
	return specs, nil
}

// PaymentEvent: a repayment brings cash in against the receivable, with the
// interest portion recognized as income. Interest is taken from Interest
// when set, otherwise derived from the product terms. A negative Principal
// records a payment reversal: same magnitudes, swapped sides.
type PaymentEvent struct {
	LoanID      uuid.UUID
	LoanCode    string
	Sequence    int
	Principal   decimal.Decimal
	Interest    decimal.Decimal
	Terms       *InterestTerms
	Original    decimal.Decimal // original principal, for flat interest
	Outstanding decimal.Decimal // outstanding principal, for declining interest
}

func (e PaymentEvent) Reference() string {
	return fmt.Sprintf("LOAN-PMT-%s-%d", e.LoanCode, e.Sequence)
}

func (e PaymentEvent) ReferenceType() domain.ReferenceType { return domain.ReferenceTypeLoan }

func (e PaymentEvent) ReferenceID() uuid.UUID { return e.LoanID }

func (e PaymentEvent) Description() string {
	return fmt.Sprintf("Loan payment %s #%d", e.LoanCode, e.Sequence)
}

func (e PaymentEvent) LineSpecs() ([]LineSpec, error) {
	if e.Principal.IsZero() {
		return nil, fmt.Errorf("payment %s #%d: %w", e.LoanCode, e.Sequence, domain.ErrInvalidAmount)
	}

	interest := e.Interest
	if interest.IsZero() && e.Terms != nil {
		interest = e.Terms.PeriodInterest(e.Original, e.Outstanding)
	}
	if e.Principal.IsNegative() {
		// Reversal of a prior payment reverses its interest too.
		interest = interest.Abs().Neg()
	}

	var specs []LineSpec
	specs = appendNonZero(specs, spec(coa.RoleCash, domain.SideDebit, e.Principal.Add(interest)))
	specs = appendNonZero(specs, spec(coa.RoleLoansReceivable, domain.SideCredit, e.Principal))
	specs = appendNonZero(specs, spec(coa.RoleInterestIncome, domain.SideCredit, interest))
	return specs, nil
}

// ExpenseEvent: an operating expense paid from cash, mapped to the expense
// account for its category.
type ExpenseEvent struct {
	ExpenseID uuid.UUID
	Code      string
	Category  string
	Amount    decimal.Decimal
}

func (e ExpenseEvent) Reference() string { return fmt.Sprintf("EXP-%s", e.Code) }

func (e ExpenseEvent) ReferenceType() domain.ReferenceType { return domain.ReferenceTypeExpense }

func (e ExpenseEvent) ReferenceID() uuid.UUID { return e.ExpenseID }

func (e ExpenseEvent) Description() string {
	return fmt.Sprintf("Expense %s (%s)", e.Code, e.Category)
}

func (e ExpenseEvent) LineSpecs() ([]LineSpec, error) {
	if e.Amount.IsZero() {
		return nil, fmt.Errorf("expense %s: %w", e.Code, domain.ErrInvalidAmount)
	}

	var specs []LineSpec
	specs = appendNonZero(specs, specExpense(e.Category, domain.SideDebit, e.Amount))
	specs = appendNonZero(specs, spec(coa.RoleCash, domain.SideCredit, e.Amount))
	return specs, nil
}

func specExpense(category string, side domain.EntrySide, amount decimal.Decimal) LineSpec {
	s := spec("", side, amount)
	s.ExpenseCategory = category
	return s
}

// SalaryEvent: a payroll run paid from cash.
type SalaryEvent struct {
	SalaryID uuid.UUID
	Code     string
	Amount   decimal.Decimal
}

func (e SalaryEvent) Reference() string { return fmt.Sprintf("SAL-%s", e.Code) }

func (e SalaryEvent) ReferenceType() domain.ReferenceType { return domain.ReferenceTypeSalary }

func (e SalaryEvent) ReferenceID() uuid.UUID { return e.SalaryID }

func (e SalaryEvent) Description() string { return fmt.Sprintf("Salary payment %s", e.Code) }

func (e SalaryEvent) LineSpecs() ([]LineSpec, error) {
	if e.Amount.IsZero() {
		return nil, fmt.Errorf("salary %s: %w", e.Code, domain.ErrInvalidAmount)
	}

	var specs []LineSpec
	specs = appendNonZero(specs, spec(coa.RoleSalaryExpense, domain.SideDebit, e.Amount))
	specs = appendNonZero(specs, spec(coa.RoleCash, domain.SideCredit, e.Amount))
	return specs, nil
}

// WriteOffEvent: an uncollectable loan moves off the receivable into
// expense.
type WriteOffEvent struct {
	LoanID   uuid.UUID
	LoanCode string
	Amount   decimal.Decimal
}

func (e WriteOffEvent) Reference() string { return fmt.Sprintf("LOAN-WO-%s", e.LoanCode) }

func (e WriteOffEvent) ReferenceType() domain.ReferenceType { return domain.ReferenceTypeLoan }

func (e WriteOffEvent) ReferenceID() uuid.UUID { return e.LoanID }

func (e WriteOffEvent) Description() string { return fmt.Sprintf("Loan write-off %s", e.LoanCode) }

func (e WriteOffEvent) LineSpecs() ([]LineSpec, error) {
	if e.Amount.IsZero() {
		return nil, fmt.Errorf("write-off %s: %w", e.LoanCode, domain.ErrInvalidAmount)
	}

	var specs []LineSpec
	specs = appendNonZero(specs, spec(coa.RoleWriteOffExpense, domain.SideDebit, e.Amount))
	specs = appendNonZero(specs, spec(coa.RoleLoansReceivable, domain.SideCredit, e.Amount))
	return specs, nil
}

// CapitalInjectionEvent: owner capital enters cash against paid-in capital.
type CapitalInjectionEvent struct {
	CapitalID uuid.UUID
	Code      string
	Amount    decimal.Decimal
}

func (e CapitalInjectionEvent) Reference() string { return fmt.Sprintf("CAP-%s", e.Code) }

func (e CapitalInjectionEvent) ReferenceType() domain.ReferenceType {
	return domain.ReferenceTypeCapital
}

func (e CapitalInjectionEvent) ReferenceID() uuid.UUID { return e.CapitalID }

func (e CapitalInjectionEvent) Description() string {
	return fmt.Sprintf("Capital injection %s", e.Code)
}

func (e CapitalInjectionEvent) LineSpecs() ([]LineSpec, error) {
	if e.Amount.IsZero() {
		return nil, fmt.Errorf("capital injection %s: %w", e.Code, domain.ErrInvalidAmount)
	}

	var specs []LineSpec
	specs = appendNonZero(specs, spec(coa.RoleCash, domain.SideDebit, e.Amount))
	specs = appendNonZero(specs, spec(coa.RolePaidInCapital, domain.SideCredit, e.Amount))
	return specs, nil
}

// CompletionEvent: the final payoff closing a loan, clearing the remaining
// receivable and recognizing any closing interest.
type CompletionEvent struct {
	LoanID             uuid.UUID
	LoanCode           string
	RemainingPrincipal decimal.Decimal
	ClosingInterest    decimal.Decimal
}

func (e CompletionEvent) Reference() string { return fmt.Sprintf("LOAN-COMP-%s", e.LoanCode) }

func (e CompletionEvent) ReferenceType() domain.ReferenceType { return domain.ReferenceTypeLoan }

func (e CompletionEvent) ReferenceID() uuid.UUID { return e.LoanID }

func (e CompletionEvent) Description() string { return fmt.Sprintf("Loan completion %s", e.LoanCode) }

func (e CompletionEvent) LineSpecs() ([]LineSpec, error) {
	if e.RemainingPrincipal.IsZero() && e.ClosingInterest.IsZero() {
		return nil, fmt.Errorf("completion %s: %w", e.LoanCode, domain.ErrInvalidAmount)
	}

	var specs []LineSpec
	specs = appendNonZero(specs, spec(coa.RoleCash, domain.SideDebit, e.RemainingPrincipal.Add(e.ClosingInterest)))
	specs = appendNonZero(specs, spec(coa.RoleLoansReceivable, domain.SideCredit, e.RemainingPrincipal))
	specs = appendNonZero(specs, spec(coa.RoleInterestIncome, domain.SideCredit, e.ClosingInterest))
	return specs, nil
}
