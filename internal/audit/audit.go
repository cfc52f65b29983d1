package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
	"github.com/mfi-core/backoffice-ledger/internal/logging"
	"github.com/mfi-core/backoffice-ledger/internal/repository"
)

type Action string

const (
	ActionEntryPosted        Action = "entry.posted"
	ActionEntryReversed      Action = "entry.reversed"
	ActionCleanupCompleted   Action = "cleanup.completed"
	ActionStatementGenerated Action = "statement.generated"
)

// Details is the tagged payload attached to an audit event. Each variant is
// typed per entity; the free-form map of the old back office is gone.
type Details interface {
	kind() string
}

type EntryDetails struct {
	Reference     string               `json:"reference"`
	ReferenceType domain.ReferenceType `json:"reference_type"`
	LineCount     int                  `json:"line_count"`
	FiscalYear    int                  `json:"fiscal_year"`
	FiscalPeriod  int                  `json:"fiscal_period"`
	Branch        string               `json:"branch"`
}

func (EntryDetails) kind() string { return "journal_entry" }

type CleanupDetails struct {
	ReferenceType       domain.ReferenceType `json:"reference_type"`
	DeletedTransactions int                  `json:"deleted_transactions"`
	ErrorCount          int                  `json:"error_count"`
	Forced              bool                 `json:"forced"`
}

func (CleanupDetails) kind() string { return "cleanup" }

type StatementDetails struct {
	StatementType domain.StatementType `json:"statement_type"`
	FiscalYear    int                  `json:"fiscal_year"`
	FiscalPeriod  int                  `json:"fiscal_period"`
	Branch        string               `json:"branch"`
	IsBalanced    bool                 `json:"is_balanced"`
}

func (StatementDetails) kind() string { return "statement" }

type envelope struct {
	Kind string  `json:"kind"`
	Data Details `json:"data"`
}

type appender interface {
	Append(ctx context.Context, row *repository.AuditRow) error
}

// Sink appends {actor, action, entityType, entityId, amount, timestamp} to
// the external audit log. Appending is best-effort: a sink failure is logged
// and never aborts the business operation that produced the event.
type Sink struct {
	rows appender
}

func NewSink(rows appender) *Sink {
	return &Sink{rows: rows}
}

func (s *Sink) Record(ctx context.Context, actor string, action Action, entityType, entityID string, amount *decimal.Decimal, details Details) {
	log := logging.FromContext(ctx)

	var payload []byte
	if details != nil {
		b, err := json.Marshal(envelope{Kind: details.kind(), Data: details})
		if err != nil {
			log.Error("audit details marshal failed", "action", action, "error", err)
		} else {
			payload = b
		}
	}

	row := &repository.AuditRow{
		ID:         uuid.New(),
		Actor:      actor,
		Action:     string(action),
		EntityType: entityType,
		EntityID:   entityID,
		Amount:     amount,
		Details:    payload,
	}
	if err := s.rows.Append(ctx, row); err != nil {
		log.Error("audit append failed",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", fmt.Errorf("Record: %w", err),
		)
	}
}
