package coa

import (
	"context"
	"errors"
	"fmt"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

// Role names a slot in a journal entry that must resolve to a real account.
// Each role carries an ordered candidate list: the primary hierarchical code
// first, then the flat legacy code kept for charts migrated from the old
// back office. First match wins.
type Role string

const (
	RoleCash               Role = "cash"
	RoleLoansReceivable    Role = "loans_receivable"
	RoleInterestReceivable Role = "interest_receivable"
	RoleInterestIncome     Role = "interest_income"
	RoleFeeIncome          Role = "fee_income"
	RoleOperatingExpense   Role = "operating_expense"
	RoleSalaryExpense      Role = "salary_expense"
	RoleWriteOffExpense    Role = "write_off_expense"
	RolePaidInCapital      Role = "paid_in_capital"
	RoleClientSavings      Role = "client_savings"
)

var roleCandidates = map[Role][]string{
	RoleCash:               {"1.0.0.1", "1000"},
	RoleLoansReceivable:    {"1.0.1.1", "1100"},
	RoleInterestReceivable: {"1.0.1.2", "1150"},
	RoleInterestIncome:     {"4.0.0.1", "4000"},
	RoleFeeIncome:          {"4.0.1.1", "4100"},
	RoleOperatingExpense:   {"5.0.0.1", "5000"},
	RoleSalaryExpense:      {"5.0.1.1", "5100"},
	RoleWriteOffExpense:    {"5.0.2.1", "5200"},
	RolePaidInCapital:      {"3.0.0.1", "3000"},
	RoleClientSavings:      {"2.0.0.1", "2000"},
}

// expenseCategoryCandidates maps well-known expense categories to dedicated
// accounts. Unlisted categories fall back to the operating expense role.
var expenseCategoryCandidates = map[string][]string{
	"Office Supplies": {"5.0.0.2", "5010"},
	"Rent":            {"5.0.0.3", "5020"},
	"Utilities":       {"5.0.0.4", "5030"},
	"Transport":       {"5.0.0.5", "5040"},
}

// Candidates returns the ordered code list for a role.
func Candidates(role Role) []string {
	return roleCandidates[role]
}

// CandidatesForExpenseCategory returns the candidate codes for an expense
// category, ending with the generic operating expense codes so a thin chart
// still resolves.
func CandidatesForExpenseCategory(category string) []string {
	if codes, ok := expenseCategoryCandidates[category]; ok {
		return append(append([]string{}, codes...), roleCandidates[RoleOperatingExpense]...)
	}
	return roleCandidates[RoleOperatingExpense]
}

type accountLookup interface {
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
}

// Resolver resolves roles to chart-of-accounts entries through the ordered
// candidate lists.
type Resolver struct {
	accounts accountLookup
}

func NewResolver(accounts accountLookup) *Resolver {
	return &Resolver{accounts: accounts}
}

func (r *Resolver) Resolve(ctx context.Context, role Role) (*domain.Account, error) {
	codes, ok := roleCandidates[role]
	if !ok {
		return nil, fmt.Errorf("Resolve: unknown role %q: %w", role, domain.ErrAccountNotFound)
	}
	return r.resolveCodes(ctx, string(role), codes)
}

// ResolveExpense resolves the expense account for a category.
func (r *Resolver) ResolveExpense(ctx context.Context, category string) (*domain.Account, error) {
	return r.resolveCodes(ctx, "expense:"+category, CandidatesForExpenseCategory(category))
}

func (r *Resolver) resolveCodes(ctx context.Context, what string, codes []string) (*domain.Account, error) {
	for _, code := range codes {
		acct, err := r.accounts.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolveCodes: %s: %w", what, err)
		}
		if !acct.IsActive {
			continue
		}
		return acct, nil
	}
	return nil, fmt.Errorf("resolveCodes: %s: tried %v: %w", what, codes, domain.ErrAccountNotFound)
}
