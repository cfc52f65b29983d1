package coa

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

type fakeLookup struct {
	accounts map[string]*domain.Account
}

func (f *fakeLookup) GetByCode(_ context.Context, code string) (*domain.Account, error) {
	if a, ok := f.accounts[code]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func lookupWith(codes ...string) *fakeLookup {
	f := &fakeLookup{accounts: map[string]*domain.Account{}}
	for _, c := range codes {
		f.accounts[c] = &domain.Account{ID: uuid.New(), Code: c, IsActive: true}
	}
	return f
}

func TestResolvePrefersHierarchicalCode(t *testing.T) {
	lookup := lookupWith("1.0.0.1", "1000")
	r := NewResolver(lookup)

	acct, err := r.Resolve(context.Background(), RoleCash)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0.1", acct.Code)
}

func TestResolveFallsBackToLegacyCode(t *testing.T) {
	lookup := lookupWith("1000")
	r := NewResolver(lookup)

	acct, err := r.Resolve(context.Background(), RoleCash)
	require.NoError(t, err)
	assert.Equal(t, "1000", acct.Code)
}

func TestResolveSkipsInactiveAccounts(t *testing.T) {
	lookup := lookupWith("1.0.0.1", "1000")
	lookup.accounts["1.0.0.1"].IsActive = false
	r := NewResolver(lookup)

	acct, err := r.Resolve(context.Background(), RoleCash)
	require.NoError(t, err)
	assert.Equal(t, "1000", acct.Code)
}

func TestResolveNoCandidateOnFile(t *testing.T) {
	r := NewResolver(lookupWith())

	_, err := r.Resolve(context.Background(), RoleCash)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestResolveUnknownRole(t *testing.T) {
	r := NewResolver(lookupWith("1.0.0.1"))

	_, err := r.Resolve(context.Background(), Role("petty_cash"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestResolveExpenseKnownCategory(t *testing.T) {
	lookup := lookupWith("5.0.0.2", "5.0.0.1")
	r := NewResolver(lookup)

	acct, err := r.ResolveExpense(context.Background(), "Office Supplies")
	require.NoError(t, err)
	assert.Equal(t, "5.0.0.2", acct.Code)
}

func TestResolveExpenseUnknownCategoryFallsBack(t *testing.T) {
	lookup := lookupWith("5.0.0.1")
	r := NewResolver(lookup)

	acct, err := r.ResolveExpense(context.Background(), "Catering")
	require.NoError(t, err)
	assert.Equal(t, "5.0.0.1", acct.Code)
}

func TestResolveExpenseKnownCategoryWithThinChart(t *testing.T) {
	// Category account missing; the generic operating expense account serves.
	lookup := lookupWith("5000")
	r := NewResolver(lookup)

	acct, err := r.ResolveExpense(context.Background(), "Rent")
	require.NoError(t, err)
	assert.Equal(t, "5000", acct.Code)
}

func TestDefaultChartCoversEveryRole(t *testing.T) {
	byCode := map[string]bool{}
	for _, d := range DefaultChart() {
		byCode[d.Code] = true
	}
	for role, codes := range roleCandidates {
		found := false
		for _, c := range codes {
			if byCode[c] {
				found = true
			}
		}
		assert.True(t, found, "role %s has no account in the default chart", role)
	}
}
