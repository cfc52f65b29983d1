package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

var (
	riskHighThreshold   = decimal.NewFromInt(10_000_000)
	riskMediumThreshold = decimal.NewFromInt(1_000_000)

	// recentEntryWindow flags entries young enough that the business record
	// behind them is probably still live.
	recentEntryWindow = 30 * 24 * time.Hour

	// maxSafeWarnings is the warning count above which deletion is blocked
	// unless forced.
	maxSafeWarnings = 2
)

type entryFinder interface {
	ListByReferenceRecord(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID, legacyPatterns []string) ([]domain.JournalEntry, error)
}

type taxRecordLister interface {
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]domain.TaxRecord, error)
}

// Validator previews the impact of deleting a business record's ledger
// footprint. It never mutates anything; callers must refuse the deletion
// when the report says it is unsafe, unless the operation is forced.
type Validator struct {
	entries    entryFinder
	taxRecords taxRecordLister
}

func NewValidator(entries entryFinder, taxRecords taxRecordLister) *Validator {
	return &Validator{entries: entries, taxRecords: taxRecords}
}

// PreviewDeletion reports what a cleanup of the record would touch and how
// risky it is.
func (v *Validator) PreviewDeletion(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID, legacyPatterns []string) (*domain.SafetyReport, error) {
	entries, err := v.entries.ListByReferenceRecord(ctx, refType, refID, legacyPatterns)
	if err != nil {
		return nil, fmt.Errorf("PreviewDeletion: %w", err)
	}
	taxRecords, err := v.taxRecords.ListByEntity(ctx, string(refType), refID)
	if err != nil {
		return nil, fmt.Errorf("PreviewDeletion: %w", err)
	}

	report := assessDeletion(refType, refID, entries, taxRecords, time.Now().UTC())
	return report, nil
}

// assessDeletion is the pure risk assessment over already-loaded data.
func assessDeletion(refType domain.ReferenceType, refID uuid.UUID, entries []domain.JournalEntry, taxRecords []domain.TaxRecord, now time.Time) *domain.SafetyReport {
	report := &domain.SafetyReport{
		EntityType:     refType,
		EntityID:       refID,
		EntryCount:     len(entries),
		TaxRecordCount: len(taxRecords),
	}

	recent := 0
	for i := range entries {
		report.TotalAmount = report.TotalAmount.Add(entries[i].TotalDebit)
		if now.Sub(entries[i].TransactionDate) < recentEntryWindow {
			recent++
		}
	}

	switch {
	case report.TotalAmount.GreaterThan(riskHighThreshold):
		report.Risk = domain.RiskHigh
	case report.TotalAmount.GreaterThan(riskMediumThreshold):
		report.Risk = domain.RiskMedium
	default:
		report.Risk = domain.RiskLow
	}

	if recent > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d entries posted within the last 30 days", recent))
	}
	if len(taxRecords) > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d tax records reference this %s", len(taxRecords), refType))
	}
	if report.Risk == domain.RiskHigh {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("total reversal amount %s exceeds the high-risk threshold", report.TotalAmount))
	}

	report.IsSafe = report.Risk != domain.RiskHigh && len(report.Warnings) <= maxSafeWarnings

	if report.Risk == domain.RiskHigh {
		report.Recommendations = append(report.Recommendations,
			"archive the record instead of deleting it")
	}
	if len(taxRecords) > 0 {
		report.Recommendations = append(report.Recommendations,
			"amend or detach the linked tax records before deletion")
	}
	if report.EntryCount > 0 && report.Risk != domain.RiskHigh {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("review the %d affected entries before proceeding", report.EntryCount))
	}
	return report
}
