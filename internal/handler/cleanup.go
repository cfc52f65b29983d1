package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/cleanup"
	"github.com/mfi-core/backoffice-ledger/internal/domain"
	"github.com/mfi-core/backoffice-ledger/internal/ledger"
	"github.com/mfi-core/backoffice-ledger/internal/logging"
)

type cleanupService interface {
	Cleanup(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID, recordCode string, force bool) (*domain.CleanupSummary, error)
	Transition(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID, recordCode string, reposts []cleanup.Repost) (*domain.CleanupSummary, error)
}

type deletionChecker interface {
	PreviewDeletion(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID, legacyPatterns []string) (*domain.SafetyReport, error)
}

type CleanupHandler struct {
	cleanup   cleanupService
	validator deletionChecker
}

func NewCleanupHandler(cleanup cleanupService, validator deletionChecker) *CleanupHandler {
	return &CleanupHandler{cleanup: cleanup, validator: validator}
}

var referenceTypesByPath = map[string]domain.ReferenceType{
	"loans":     domain.ReferenceTypeLoan,
	"customers": domain.ReferenceTypeCustomer,
	"expenses":  domain.ReferenceTypeExpense,
	"salaries":  domain.ReferenceTypeSalary,
	"employees": domain.ReferenceTypeEmployee,
	"capital":   domain.ReferenceTypeCapital,
}

func parseEntity(r *http.Request) (domain.ReferenceType, uuid.UUID, *AppError) {
	refType, ok := referenceTypesByPath[r.PathValue("entityType")]
	if !ok {
		return "", uuid.Nil, ErrResourceNotFound
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return "", uuid.Nil, ErrResourceNotFound
	}
	return refType, id, nil
}

type cleanupSummaryDTO struct {
	ReferenceType       string          `json:"reference_type"`
	ReferenceID         uuid.UUID       `json:"reference_id"`
	DeletedTransactions int             `json:"deleted_transactions"`
	TotalReversedAmount decimal.Decimal `json:"total_reversed_amount"`
	Errors              []string        `json:"errors"`
}

// Cleanup reverses and deletes every entry tied to the record. The safety
// validator blocks unsafe deletions unless ?force=true. Partial failures
// come back in the summary's errors, not as an HTTP error.
func (h *CleanupHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	refType, id, appErr := parseEntity(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	code := r.URL.Query().Get("code")
	force := r.URL.Query().Get("force") == "true"

	summary, err := h.cleanup.Cleanup(r.Context(), refType, id, code, force)
	if err != nil {
		log.Warn("cleanup failed", "entity_type", refType, "entity_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, cleanupSummaryDTO{
		ReferenceType:       string(summary.ReferenceType),
		ReferenceID:         summary.ReferenceID,
		DeletedTransactions: summary.DeletedTransactions,
		TotalReversedAmount: summary.TotalReversedAmount,
		Errors:              summary.Errors,
	})
}

type repostSpec struct {
	Type string `json:"type"`
}

type transitionRequest struct {
	Code   string            `json:"code"`
	Events []json.RawMessage `json:"events"`
}

// Transition moves a record's ledger footprint to a new state: the old
// entries are force-cleaned and the given events are posted in their place.
// Each event carries the same body as POST /events/{type} plus a "type"
// field naming it.
func (h *CleanupHandler) Transition(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	refType, id, appErr := parseEntity(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var body transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var reposts []cleanup.Repost
	for i, raw := range body.Events {
		var spec repostSpec
		if err := json.Unmarshal(raw, &spec); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
		req, ok := eventRequestFor(spec.Type)
		if !ok {
			RespondValidationError(w, []FieldError{{
				Field: "events", Message: "unknown event type at index " + strconv.Itoa(i),
			}})
			return
		}
		if err := json.Unmarshal(raw, req); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
		if fields := req.Validate(); len(fields) > 0 {
			RespondValidationError(w, fields)
			return
		}
		txnDate := time.Now().UTC()
		if d := req.txnDate(); d != nil {
			txnDate = d.UTC()
		}
		reposts = append(reposts, cleanup.Repost{Event: req.event(), TransactionDate: txnDate})
	}

	summary, err := h.cleanup.Transition(r.Context(), refType, id, body.Code, reposts)
	if err != nil {
		log.Warn("transition failed", "entity_type", refType, "entity_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, cleanupSummaryDTO{
		ReferenceType:       string(summary.ReferenceType),
		ReferenceID:         summary.ReferenceID,
		DeletedTransactions: summary.DeletedTransactions,
		TotalReversedAmount: summary.TotalReversedAmount,
		Errors:              summary.Errors,
	})
}

// Preview runs the deletion-safety check without touching anything.
func (h *CleanupHandler) Preview(w http.ResponseWriter, r *http.Request) {
	refType, id, appErr := parseEntity(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	patterns := ledger.LegacyReferencePatterns(refType, r.URL.Query().Get("code"))

	report, err := h.validator.PreviewDeletion(r.Context(), refType, id, patterns)
	if err != nil {
		logging.FromContext(r.Context()).Warn("deletion preview failed",
			"entity_type", refType, "entity_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, report)
}
