package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

type TaxRecordRepository struct {
	db *sql.DB
}

func NewTaxRecordRepository(db *sql.DB) *TaxRecordRepository {
	return &TaxRecordRepository{db: db}
}

func (r *TaxRecordRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]domain.TaxRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entity_type, entity_id, amount, period, created_at
		FROM tax_records WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByEntity: %w", err)
	}
	defer rows.Close()

	var records []domain.TaxRecord
	for rows.Next() {
		var t domain.TaxRecord
		if err := rows.Scan(&t.ID, &t.EntityType, &t.EntityID, &t.Amount, &t.Period, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListByEntity: scan: %w", err)
		}
		records = append(records, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByEntity: rows: %w", err)
	}
	return records, nil
}
