package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

const entryColumns = `id, transaction_date, reference, reference_type, reference_id,
	description, total_debit, total_credit, fiscal_year, fiscal_period, branch,
	created_by, status, created_at`

const lineColumns = `id, entry_id, account_id, account_code, debit, credit,
	balance_before, balance_after, position, created_at`

type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create persists the entry and its lines inside tx.
func (r *JournalRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.JournalEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO journal_entries (
			id, transaction_date, reference, reference_type, reference_id,
			description, total_debit, total_credit, fiscal_year, fiscal_period,
			branch, created_by, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID, entry.TransactionDate, entry.Reference, entry.ReferenceType,
		entry.ReferenceID, entry.Description, entry.TotalDebit, entry.TotalCredit,
		entry.FiscalYear, entry.FiscalPeriod, entry.Branch, entry.CreatedBy,
		entry.Status, entry.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("Create: entry: %w", domain.ErrDuplicateReference)
		}
		return fmt.Errorf("Create: entry: %w", err)
	}

	for i := range entry.Lines {
		l := &entry.Lines[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO journal_lines (
				id, entry_id, account_id, account_code, debit, credit,
				balance_before, balance_after, position, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			l.ID, l.EntryID, l.AccountID, l.AccountCode, l.Debit, l.Credit,
			l.BalanceBefore, l.BalanceAfter, l.Position, l.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("Create: line %d: %w", i, err)
		}
	}
	return nil
}

func (r *JournalRepository) GetByReference(ctx context.Context, reference string) (*domain.JournalEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE reference = $1`, reference,
	)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByReference: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	if err := r.loadLines(ctx, e); err != nil {
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	return e, nil
}

func (r *JournalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE id = $1`, id,
	)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	if err := r.loadLines(ctx, e); err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

// ListByReferenceRecord finds every posted entry tied to a business record:
// by (reference_type, reference_id), plus legacy entries that predate
// reference ids and are matched on the reference string instead. An empty
// pattern list matches by reference id only.
func (r *JournalRepository) ListByReferenceRecord(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID, legacyPatterns []string) ([]domain.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries
		WHERE status = 'posted'
		  AND reference_type = $1
		  AND (reference_id = $2 OR (reference_id IS NULL AND reference LIKE ANY($3)))
		ORDER BY transaction_date, created_at`,
		refType, refID, pq.Array(legacyPatterns),
	)
	if err != nil {
		return nil, fmt.Errorf("ListByReferenceRecord: %w", err)
	}
	entries, err := r.collectWithLines(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("ListByReferenceRecord: %w", err)
	}
	return entries, nil
}

// ListPostedThrough returns posted entries for a branch up to and including
// asOf, lines loaded, oldest first. Reversed entries are excluded.
func (r *JournalRepository) ListPostedThrough(ctx context.Context, branch string, asOf time.Time) ([]domain.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM journal_entries
		WHERE status = 'posted' AND branch = $1 AND transaction_date <= $2
		ORDER BY transaction_date, created_at`,
		branch, asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("ListPostedThrough: %w", err)
	}
	entries, err := r.collectWithLines(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("ListPostedThrough: %w", err)
	}
	return entries, nil
}

// Delete removes the entry; lines cascade. Used only by the cleanup engine
// after the entry's balance effects have been reversed in the same tx.
func (r *JournalRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// ListByAccount returns the full posted line history for one account,
// oldest first. Statement generation and drift checks replay this.
func (r *JournalRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.JournalLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+prefixedLineColumns("l")+` FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE l.account_id = $1 AND e.status = 'posted'
		ORDER BY e.transaction_date, l.created_at, l.position`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	var lines []domain.JournalLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		lines = append(lines, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByAccount: rows: %w", err)
	}
	return lines, nil
}

func (r *JournalRepository) collectWithLines(ctx context.Context, rows *sql.Rows) ([]domain.JournalEntry, error) {
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range entries {
		if err := r.loadLines(ctx, &entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *JournalRepository) loadLines(ctx context.Context, e *domain.JournalEntry) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+lineColumns+` FROM journal_lines WHERE entry_id = $1 ORDER BY position`,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("loadLines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return fmt.Errorf("loadLines: scan: %w", err)
		}
		e.Lines = append(e.Lines, *l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("loadLines: rows: %w", err)
	}
	return nil
}

func prefixedLineColumns(alias string) string {
	return alias + `.id, ` + alias + `.entry_id, ` + alias + `.account_id, ` +
		alias + `.account_code, ` + alias + `.debit, ` + alias + `.credit, ` +
		alias + `.balance_before, ` + alias + `.balance_after, ` +
		alias + `.position, ` + alias + `.created_at`
}

func scanEntry(s scanner) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := s.Scan(
		&e.ID, &e.TransactionDate, &e.Reference, &e.ReferenceType, &e.ReferenceID,
		&e.Description, &e.TotalDebit, &e.TotalCredit, &e.FiscalYear,
		&e.FiscalPeriod, &e.Branch, &e.CreatedBy, &e.Status, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanLine(s scanner) (*domain.JournalLine, error) {
	var l domain.JournalLine
	err := s.Scan(
		&l.ID, &l.EntryID, &l.AccountID, &l.AccountCode, &l.Debit, &l.Credit,
		&l.BalanceBefore, &l.BalanceAfter, &l.Position, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
