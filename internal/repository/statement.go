package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

const statementColumns = `id, statement_type, fiscal_year, fiscal_period, branch,
	data, is_balanced, needs_regeneration, generated_at`

type StatementRepository struct {
	db *sql.DB
}

func NewStatementRepository(db *sql.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

// Upsert overwrites any statement already generated for the same key.
// Regeneration never duplicates.
func (r *StatementRepository) Upsert(ctx context.Context, st *domain.FinancialStatement) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO financial_statements (
			id, statement_type, fiscal_year, fiscal_period, branch,
			data, is_balanced, needs_regeneration, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (statement_type, fiscal_year, fiscal_period, branch)
		DO UPDATE SET
			data = EXCLUDED.data,
			is_balanced = EXCLUDED.is_balanced,
			needs_regeneration = FALSE,
			generated_at = EXCLUDED.generated_at`,
		st.ID, st.Type, st.FiscalYear, st.FiscalPeriod, st.Branch,
		st.Data, st.IsBalanced, st.NeedsRegeneration, st.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

func (r *StatementRepository) Get(ctx context.Context, stType domain.StatementType, fiscalYear, fiscalPeriod int, branch string) (*domain.FinancialStatement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM financial_statements
		WHERE statement_type = $1 AND fiscal_year = $2 AND fiscal_period = $3 AND branch = $4`,
		stType, fiscalYear, fiscalPeriod, branch,
	)

	var st domain.FinancialStatement
	err := row.Scan(
		&st.ID, &st.Type, &st.FiscalYear, &st.FiscalPeriod, &st.Branch,
		&st.Data, &st.IsBalanced, &st.NeedsRegeneration, &st.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrStatementNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &st, nil
}

// FlagForRegeneration marks every statement covering the period stale.
// Cleanup calls this after deleting entries so readers know the stored
// figures no longer reflect the ledger.
func (r *StatementRepository) FlagForRegeneration(ctx context.Context, tx *sql.Tx, fiscalYear, fiscalPeriod int, branch string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE financial_statements SET needs_regeneration = TRUE
		WHERE fiscal_year = $1 AND fiscal_period = $2 AND branch = $3`,
		fiscalYear, fiscalPeriod, branch,
	)
	if err != nil {
		return fmt.Errorf("FlagForRegeneration: %w", err)
	}
	return nil
}
