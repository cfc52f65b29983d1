package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/audit"
	"github.com/mfi-core/backoffice-ledger/internal/auth"
	"github.com/mfi-core/backoffice-ledger/internal/domain"
	"github.com/mfi-core/backoffice-ledger/internal/ledger"
	"github.com/mfi-core/backoffice-ledger/internal/logging"
)

type entryDeleter interface {
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type lineReverser interface {
	ReverseLines(ctx context.Context, tx *sql.Tx, entry *domain.JournalEntry) error
}

type statementFlagger interface {
	FlagForRegeneration(ctx context.Context, tx *sql.Tx, fiscalYear, fiscalPeriod int, branch string) error
}

type txRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type eventPoster interface {
	Post(ctx context.Context, ev ledger.Event, txnDate time.Time) (*domain.JournalEntry, error)
}

type safetyChecker interface {
	PreviewDeletion(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID, legacyPatterns []string) (*domain.SafetyReport, error)
}

type auditSink interface {
	Record(ctx context.Context, actor string, action audit.Action, entityType, entityID string, amount *decimal.Decimal, details audit.Details)
}

// Service reverses and deletes the ledger footprint of a business record.
// Each entry is handled in its own transaction so one bad entry cannot hold
// the rest of the batch hostage; failures are collected, not fatal.
type Service struct {
	entries    entryFinder
	deleter    entryDeleter
	reverser   lineReverser
	statements statementFlagger
	validator  safetyChecker
	poster     eventPoster
	db         txRunner
	sink       auditSink
	branch     string
}

func NewService(entries entryFinder, deleter entryDeleter, reverser lineReverser, statements statementFlagger, validator safetyChecker, poster eventPoster, db txRunner, sink auditSink, branch string) *Service {
	return &Service{
		entries:    entries,
		deleter:    deleter,
		reverser:   reverser,
		statements: statements,
		validator:  validator,
		poster:     poster,
		db:         db,
		sink:       sink,
		branch:     branch,
	}
}

// Cleanup reverses and deletes every posted entry tied to the record. The
// safety validator runs first and blocks the operation unless force is set.
// The summary reports what was actually undone, including per-entry errors.
func (s *Service) Cleanup(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID, recordCode string, force bool) (*domain.CleanupSummary, error) {
	log := logging.FromContext(ctx)
	patterns := ledger.LegacyReferencePatterns(refType, recordCode)

	report, err := s.validator.PreviewDeletion(ctx, refType, refID, patterns)
	if err != nil {
		return nil, fmt.Errorf("Cleanup: %w", err)
	}
	if !report.IsSafe && !force {
		return nil, fmt.Errorf("Cleanup: %s %s: risk %s, %d warnings: %w",
			refType, refID, report.Risk, len(report.Warnings), domain.ErrDeletionUnsafe)
	}

	entries, err := s.entries.ListByReferenceRecord(ctx, refType, refID, patterns)
	if err != nil {
		return nil, fmt.Errorf("Cleanup: %w", err)
	}

	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		actor = "system"
	}

	summary := &domain.CleanupSummary{
		ReferenceType: refType,
		ReferenceID:   refID,
	}
	type period struct {
		year, month int
		branch      string
	}
	touched := make(map[period]bool)

	for i := range entries {
		e := &entries[i]
		err := s.db.InTx(ctx, func(tx *sql.Tx) error {
			if err := s.reverser.ReverseLines(ctx, tx, e); err != nil {
				return err
			}
			if err := s.deleter.Delete(ctx, tx, e.ID); err != nil {
				return err
			}
			key := period{e.FiscalYear, e.FiscalPeriod, e.Branch}
			if !touched[key] {
				if err := s.statements.FlagForRegeneration(ctx, tx, e.FiscalYear, e.FiscalPeriod, e.Branch); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Error("cleanup entry failed",
				"reference", e.Reference, "entry_id", e.ID, "error", err)
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("%s: %v", e.Reference, err))
			continue
		}
		touched[period{e.FiscalYear, e.FiscalPeriod, e.Branch}] = true
		summary.DeletedTransactions++
		summary.TotalReversedAmount = summary.TotalReversedAmount.Add(e.TotalDebit)

		amount := e.TotalDebit
		s.sink.Record(ctx, actor, audit.ActionEntryReversed,
			"journal_entry", e.ID.String(), &amount,
			audit.EntryDetails{
				Reference:     e.Reference,
				ReferenceType: e.ReferenceType,
				LineCount:     len(e.Lines),
				FiscalYear:    e.FiscalYear,
				FiscalPeriod:  e.FiscalPeriod,
				Branch:        e.Branch,
			})
	}

	log.Info("cleanup completed",
		"reference_type", refType,
		"reference_id", refID,
		"deleted", summary.DeletedTransactions,
		"reversed_amount", summary.TotalReversedAmount,
		"errors", len(summary.Errors),
	)

	total := summary.TotalReversedAmount
	s.sink.Record(ctx, actor, audit.ActionCleanupCompleted,
		string(refType), refID.String(), &total,
		audit.CleanupDetails{
			ReferenceType:       refType,
			DeletedTransactions: summary.DeletedTransactions,
			ErrorCount:          len(summary.Errors),
			Forced:              force,
		})

	return summary, nil
}

// Repost is one event to re-record after a cleanup.
type Repost struct {
	Event           ledger.Event
	TransactionDate time.Time
}

// Transition applies a status change to a record's ledger footprint: the old
// entries are cleaned up in full and the new state's entries are posted from
// scratch. No incremental correction is attempted. Reposting stops at the
// first failure so the caller can retry idempotently.
func (s *Service) Transition(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID, recordCode string, reposts []Repost) (*domain.CleanupSummary, error) {
	summary, err := s.Cleanup(ctx, refType, refID, recordCode, true)
	if err != nil {
		return nil, fmt.Errorf("Transition: %w", err)
	}
	if len(summary.Errors) > 0 {
		return summary, fmt.Errorf("Transition: %s %s: %d entries failed cleanup, not reposting",
			refType, refID, len(summary.Errors))
	}

	for _, rp := range reposts {
		if _, err := s.poster.Post(ctx, rp.Event, rp.TransactionDate); err != nil {
			return summary, fmt.Errorf("Transition: repost %s: %w", rp.Event.Reference(), err)
		}
	}
	return summary, nil
}
