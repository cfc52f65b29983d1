package cleanup_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfi-core/backoffice-ledger/internal/audit"
	"github.com/mfi-core/backoffice-ledger/internal/cleanup"
	"github.com/mfi-core/backoffice-ledger/internal/coa"
	"github.com/mfi-core/backoffice-ledger/internal/domain"
	"github.com/mfi-core/backoffice-ledger/internal/ledger"
	"github.com/mfi-core/backoffice-ledger/internal/repository"
	"github.com/mfi-core/backoffice-ledger/internal/testutil"
)

type services struct {
	ledger     *ledger.Service
	cleanup    *cleanup.Service
	validator  *cleanup.Validator
	journal    *repository.JournalRepository
	statements *repository.StatementRepository
}

func setupCleanup(t *testing.T, db *sql.DB) services {
	t.Helper()
	accounts := repository.NewAccountRepository(db)
	journal := repository.NewJournalRepository(db)
	statements := repository.NewStatementRepository(db)
	sink := audit.NewSink(repository.NewAuditRepository(db))
	wrapped := repository.NewDB(db)

	ledgerSvc := ledger.NewService(journal, accounts, coa.NewResolver(accounts), wrapped, sink, "HQ")
	validator := cleanup.NewValidator(journal, repository.NewTaxRecordRepository(db))
	cleanupSvc := cleanup.NewService(journal, journal, ledgerSvc, statements,
		validator, ledgerSvc, wrapped, sink, "HQ")

	return services{
		ledger:     ledgerSvc,
		cleanup:    cleanupSvc,
		validator:  validator,
		journal:    journal,
		statements: statements,
	}
}

var cleanupTxnDate = time.Date(2025, time.April, 5, 0, 0, 0, 0, time.UTC)

func postLoanHistory(t *testing.T, svc *ledger.Service, loanID uuid.UUID, code string) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Post(ctx, ledger.DisbursementEvent{
		LoanID: loanID, LoanCode: code, Principal: decimal.NewFromInt(1_000_000),
	}, cleanupTxnDate)
	require.NoError(t, err)

	for seq := 1; seq <= 2; seq++ {
		_, err := svc.Post(ctx, ledger.PaymentEvent{
			LoanID: loanID, LoanCode: code, Sequence: seq,
			Principal: decimal.NewFromInt(100_000),
		}, cleanupTxnDate.AddDate(0, 0, seq*10))
		require.NoError(t, err)
	}
}

// Deleting a loan with a disbursement and two payments reverses all three
// entries and restores every balance to zero.
func TestCleanup_LoanFootprint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedDefaultChart(t, db)
	svcs := setupCleanup(t, db)
	ctx := context.Background()

	loanID := uuid.New()
	postLoanHistory(t, svcs.ledger, loanID, "L0077")
	require.Equal(t, 3, testutil.CountEntries(t, db, "LOAN-%L0077%"))

	summary, err := svcs.cleanup.Cleanup(ctx, domain.ReferenceTypeLoan, loanID, "L0077", false)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.DeletedTransactions)
	assert.True(t, summary.TotalReversedAmount.Equal(decimal.NewFromInt(1_200_000)),
		"got %s", summary.TotalReversedAmount)
	assert.Empty(t, summary.Errors)

	assert.Equal(t, 0, testutil.CountEntries(t, db, "LOAN-%L0077%"))
	assert.True(t, testutil.GetAccountBalance(t, db, "1.0.0.1").IsZero())
	assert.True(t, testutil.GetAccountBalance(t, db, "1.0.1.1").IsZero())

	// One reversal audit event per deleted entry.
	var reversed int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM audit_events WHERE action = 'entry.reversed'`,
	).Scan(&reversed))
	assert.Equal(t, 3, reversed)
}

// Legacy matching is token-exact: cleaning loan L1 must leave loan L12's
// entries untouched even when neither has a reference id on file.
func TestCleanup_LegacyCodeCollision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedDefaultChart(t, db)
	svcs := setupCleanup(t, db)
	ctx := context.Background()

	shortID, longID := uuid.New(), uuid.New()
	postLoanHistory(t, svcs.ledger, shortID, "L1")
	postLoanHistory(t, svcs.ledger, longID, "L12")

	_, err := db.Exec(`UPDATE journal_entries SET reference_id = NULL`)
	require.NoError(t, err)

	summary, err := svcs.cleanup.Cleanup(ctx, domain.ReferenceTypeLoan, shortID, "L1", false)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.DeletedTransactions)
	assert.Equal(t, 0, testutil.CountEntries(t, db, "LOAN-DISB-L1"))
	assert.Equal(t, 1, testutil.CountEntries(t, db, "LOAN-DISB-L12"))
	assert.Equal(t, 2, testutil.CountEntries(t, db, "LOAN-PMT-L12-%"))
}

// Without a record code there is no legacy pattern to match on; only
// entries carrying the reference id are swept.
func TestCleanup_EmptyCodeMatchesByReferenceIDOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedDefaultChart(t, db)
	svcs := setupCleanup(t, db)
	ctx := context.Background()

	loanID := uuid.New()
	postLoanHistory(t, svcs.ledger, loanID, "L0055")

	_, err := db.Exec(`UPDATE journal_entries SET reference_id = NULL WHERE reference = 'LOAN-PMT-L0055-2'`)
	require.NoError(t, err)

	summary, err := svcs.cleanup.Cleanup(ctx, domain.ReferenceTypeLoan, loanID, "", false)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.DeletedTransactions)
	assert.Equal(t, 1, testutil.CountEntries(t, db, "LOAN-PMT-L0055-2"))
}

func TestCleanup_MatchesLegacyEntriesByReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	chart := testutil.SeedDefaultChart(t, db)
	svcs := setupCleanup(t, db)
	ctx := context.Background()

	loanID := uuid.New()
	postLoanHistory(t, svcs.ledger, loanID, "L0088")

	// Age one entry into a legacy record: no reference id on file.
	_, err := db.Exec(`UPDATE journal_entries SET reference_id = NULL WHERE reference = 'LOAN-PMT-L0088-1'`)
	require.NoError(t, err)

	summary, err := svcs.cleanup.Cleanup(ctx, domain.ReferenceTypeLoan, loanID, "L0088", false)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.DeletedTransactions)
	assert.True(t, testutil.GetAccountBalance(t, db, chart["1.0.1.1"].Code).IsZero())
}

func TestCleanup_UnsafeDeletionBlockedUnlessForced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedDefaultChart(t, db)
	svcs := setupCleanup(t, db)
	ctx := context.Background()

	loanID := uuid.New()
	_, err := svcs.ledger.Post(ctx, ledger.DisbursementEvent{
		LoanID: loanID, LoanCode: "LBIG", Principal: decimal.NewFromInt(12_000_000),
	}, cleanupTxnDate)
	require.NoError(t, err)

	_, err = svcs.cleanup.Cleanup(ctx, domain.ReferenceTypeLoan, loanID, "LBIG", false)
	require.ErrorIs(t, err, domain.ErrDeletionUnsafe)
	assert.Equal(t, 1, testutil.CountEntries(t, db, "LOAN-DISB-LBIG"))

	summary, err := svcs.cleanup.Cleanup(ctx, domain.ReferenceTypeLoan, loanID, "LBIG", true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DeletedTransactions)
	assert.Equal(t, 0, testutil.CountEntries(t, db, "LOAN-DISB-LBIG"))
}

func TestCleanup_FlagsStatementsForRegeneration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedDefaultChart(t, db)
	svcs := setupCleanup(t, db)
	ctx := context.Background()

	loanID := uuid.New()
	postLoanHistory(t, svcs.ledger, loanID, "L0099")

	stored := &domain.FinancialStatement{
		ID:           uuid.New(),
		Type:         domain.StatementTypeTrialBalance,
		FiscalYear:   2025,
		FiscalPeriod: 4,
		Branch:       "HQ",
		Data:         []byte(`{}`),
		IsBalanced:   true,
		GeneratedAt:  time.Now().UTC(),
	}
	require.NoError(t, svcs.statements.Upsert(ctx, stored))

	_, err := svcs.cleanup.Cleanup(ctx, domain.ReferenceTypeLoan, loanID, "L0099", false)
	require.NoError(t, err)

	st, err := svcs.statements.Get(ctx, domain.StatementTypeTrialBalance, 2025, 4, "HQ")
	require.NoError(t, err)
	assert.True(t, st.NeedsRegeneration)
}

func TestPreviewDeletion_DoesNotMutate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedDefaultChart(t, db)
	svcs := setupCleanup(t, db)
	ctx := context.Background()

	loanID := uuid.New()
	postLoanHistory(t, svcs.ledger, loanID, "L0100")
	testutil.SeedTaxRecord(t, db, "loan", loanID, decimal.NewFromInt(15_000), "2025-Q2")

	patterns := ledger.LegacyReferencePatterns(domain.ReferenceTypeLoan, "L0100")
	report, err := svcs.validator.PreviewDeletion(ctx, domain.ReferenceTypeLoan, loanID, patterns)
	require.NoError(t, err)

	assert.Equal(t, 3, report.EntryCount)
	assert.Equal(t, 1, report.TaxRecordCount)
	assert.True(t, report.TotalAmount.Equal(decimal.NewFromInt(1_200_000)))
	assert.Equal(t, 3, testutil.CountEntries(t, db, "LOAN-%L0100%"))
}

func TestTransition_CleanupThenRepost(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedDefaultChart(t, db)
	svcs := setupCleanup(t, db)
	ctx := context.Background()

	loanID := uuid.New()
	postLoanHistory(t, svcs.ledger, loanID, "L0101")

	// A disbursed loan moving back to approved keeps no ledger footprint.
	summary, err := svcs.cleanup.Transition(ctx, domain.ReferenceTypeLoan, loanID, "L0101", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.DeletedTransactions)
	assert.Equal(t, 0, testutil.CountEntries(t, db, "LOAN-%L0101%"))

	// Completing it afterwards rebuilds the footprint from scratch.
	_, err = svcs.cleanup.Transition(ctx, domain.ReferenceTypeLoan, loanID, "L0101", []cleanup.Repost{
		{
			Event: ledger.DisbursementEvent{
				LoanID: loanID, LoanCode: "L0101", Principal: decimal.NewFromInt(1_000_000),
			},
			TransactionDate: cleanupTxnDate,
		},
		{
			Event: ledger.CompletionEvent{
				LoanID: loanID, LoanCode: "L0101",
				RemainingPrincipal: decimal.NewFromInt(1_000_000),
				ClosingInterest:    decimal.NewFromInt(60_000),
			},
			TransactionDate: cleanupTxnDate.AddDate(0, 2, 0),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CountEntries(t, db, "LOAN-DISB-L0101"))
	assert.Equal(t, 1, testutil.CountEntries(t, db, "LOAN-COMP-L0101"))
	assert.True(t, testutil.GetAccountBalance(t, db, "1.0.1.1").IsZero())
	assert.True(t, testutil.GetAccountBalance(t, db, "4.0.0.1").Equal(decimal.NewFromInt(60_000)))
}
