package cleanup

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

var assessNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func postedEntry(amount int64, age time.Duration) domain.JournalEntry {
	return domain.JournalEntry{
		ID:              uuid.New(),
		TransactionDate: assessNow.Add(-age),
		TotalDebit:      decimal.NewFromInt(amount),
		TotalCredit:     decimal.NewFromInt(amount),
		Status:          domain.EntryStatusPosted,
	}
}

func TestAssessDeletionRiskLevels(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   domain.RiskLevel
	}{
		{"small record is low risk", 500_000, domain.RiskLow},
		{"boundary stays low", 1_000_000, domain.RiskLow},
		{"above a million is medium", 1_000_001, domain.RiskMedium},
		{"above ten million is high", 10_000_001, domain.RiskHigh},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries := []domain.JournalEntry{postedEntry(tc.amount, 90*24*time.Hour)}
			report := assessDeletion(domain.ReferenceTypeLoan, uuid.New(), entries, nil, assessNow)
			assert.Equal(t, tc.want, report.Risk)
		})
	}
}

func TestAssessDeletionHighRiskIsUnsafe(t *testing.T) {
	entries := []domain.JournalEntry{
		postedEntry(12_000_000, 90*24*time.Hour),
	}

	report := assessDeletion(domain.ReferenceTypeLoan, uuid.New(), entries, nil, assessNow)

	assert.Equal(t, domain.RiskHigh, report.Risk)
	assert.False(t, report.IsSafe)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "archive")
}

func TestAssessDeletionRecentEntriesWarn(t *testing.T) {
	entries := []domain.JournalEntry{
		postedEntry(100_000, 5*24*time.Hour),
		postedEntry(100_000, 10*24*time.Hour),
		postedEntry(100_000, 60*24*time.Hour),
	}

	report := assessDeletion(domain.ReferenceTypeLoan, uuid.New(), entries, nil, assessNow)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "2 entries posted within the last 30 days")
	assert.True(t, report.IsSafe)
}

func TestAssessDeletionTaxRecordsWarn(t *testing.T) {
	loanID := uuid.New()
	entries := []domain.JournalEntry{postedEntry(100_000, 60*24*time.Hour)}
	taxRecords := []domain.TaxRecord{
		{ID: uuid.New(), EntityType: "loan", EntityID: loanID, Amount: decimal.NewFromInt(5_000)},
	}

	report := assessDeletion(domain.ReferenceTypeLoan, loanID, entries, taxRecords, assessNow)

	assert.Equal(t, 1, report.TaxRecordCount)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "tax records")
	assert.Contains(t, report.Recommendations, "amend or detach the linked tax records before deletion")
}

func TestAssessDeletionTooManyWarningsIsUnsafe(t *testing.T) {
	loanID := uuid.New()
	// Recent entries, tax records, and a high-risk total: three warnings.
	entries := []domain.JournalEntry{postedEntry(11_000_000, 2*24*time.Hour)}
	taxRecords := []domain.TaxRecord{
		{ID: uuid.New(), EntityType: "loan", EntityID: loanID},
	}

	report := assessDeletion(domain.ReferenceTypeLoan, loanID, entries, taxRecords, assessNow)

	assert.Len(t, report.Warnings, 3)
	assert.False(t, report.IsSafe)
}

func TestAssessDeletionEmptyFootprint(t *testing.T) {
	report := assessDeletion(domain.ReferenceTypeExpense, uuid.New(), nil, nil, assessNow)

	assert.Equal(t, 0, report.EntryCount)
	assert.True(t, report.TotalAmount.IsZero())
	assert.Equal(t, domain.RiskLow, report.Risk)
	assert.True(t, report.IsSafe)
	assert.Empty(t, report.Warnings)
}
