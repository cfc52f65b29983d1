package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CleanupSummary is the ephemeral result of reversing the entries tied to a
// deleted or transitioned source record. It is returned, not persisted.
type CleanupSummary struct {
	ReferenceType       ReferenceType
	ReferenceID         uuid.UUID
	DeletedTransactions int
	TotalReversedAmount decimal.Decimal
	Errors              []string
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// TaxRecord is a read-only view of a tax filing linked to a business record.
// Tax filing itself is owned by an external collaborator.
type TaxRecord struct {
	ID         uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	Amount     decimal.Decimal
	Period     string
	CreatedAt  time.Time
}

// SafetyReport is the non-mutating preview of a cleanup's impact. Callers
// must block the destructive operation when IsSafe is false, unless the
// operation is explicitly forced.
type SafetyReport struct {
	EntityType      ReferenceType   `json:"entity_type"`
	EntityID        uuid.UUID       `json:"entity_id"`
	EntryCount      int             `json:"entry_count"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TaxRecordCount  int             `json:"tax_record_count"`
	Risk            RiskLevel       `json:"risk"`
	IsSafe          bool            `json:"is_safe"`
	Warnings        []string        `json:"warnings"`
	Recommendations []string        `json:"recommendations"`
}
