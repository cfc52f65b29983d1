package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditRow is one append-only record for the external audit sink. The sink
// owns retention and querying; this side only appends.
type AuditRow struct {
	ID         uuid.UUID
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Amount     *decimal.Decimal
	Details    []byte
}

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, row *AuditRow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, actor, action, entity_type, entity_id, amount, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.ID, row.Actor, row.Action, row.EntityType, row.EntityID, row.Amount, row.Details,
	)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}
