package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
	"github.com/mfi-core/backoffice-ledger/internal/logging"
)

type statementService interface {
	Get(ctx context.Context, stType domain.StatementType, fiscalYear, fiscalPeriod int) (*domain.FinancialStatement, error)
	GenerateTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error)
	GenerateProfitLoss(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.ProfitLoss, error)
	GenerateBalanceSheet(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.BalanceSheet, error)
	GenerateCashFlow(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.CashFlow, error)
}

type StatementHandler struct {
	statements statementService
}

func NewStatementHandler(statements statementService) *StatementHandler {
	return &StatementHandler{statements: statements}
}

var statementTypesByPath = map[string]domain.StatementType{
	"trial-balance": domain.StatementTypeTrialBalance,
	"profit-loss":   domain.StatementTypeProfitLoss,
	"balance-sheet": domain.StatementTypeBalanceSheet,
	"cash-flow":     domain.StatementTypeCashFlow,
}

// parsePeriod reads ?year= and ?period= query params, defaulting to the
// current fiscal period.
func parsePeriod(r *http.Request) (fiscalYear, fiscalPeriod int, fields []FieldError) {
	now := time.Now().UTC()
	fiscalYear, fiscalPeriod = domain.FiscalPeriodOf(now)

	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1900 || n > 9999 {
			fields = append(fields, FieldError{Field: "year", Message: "must be a four-digit year"})
		} else {
			fiscalYear = n
		}
	}
	if v := r.URL.Query().Get("period"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			fields = append(fields, FieldError{Field: "period", Message: "must be 1 through 12"})
		} else {
			fiscalPeriod = n
		}
	}
	return fiscalYear, fiscalPeriod, fields
}

// Generate regenerates the statement named in the path for the requested
// period, overwriting any stored copy, and returns the fresh figures.
func (h *StatementHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	stType, ok := statementTypesByPath[r.PathValue("type")]
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	fiscalYear, fiscalPeriod, fields := parsePeriod(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	var (
		body any
		err  error
	)
	switch stType {
	case domain.StatementTypeTrialBalance:
		body, err = h.statements.GenerateTrialBalance(r.Context(), fiscalYear, fiscalPeriod)
	case domain.StatementTypeProfitLoss:
		body, err = h.statements.GenerateProfitLoss(r.Context(), fiscalYear, fiscalPeriod)
	case domain.StatementTypeBalanceSheet:
		body, err = h.statements.GenerateBalanceSheet(r.Context(), fiscalYear, fiscalPeriod)
	case domain.StatementTypeCashFlow:
		body, err = h.statements.GenerateCashFlow(r.Context(), fiscalYear, fiscalPeriod)
	}
	if err != nil {
		log.Warn("statement generation failed",
			"type", stType, "fiscal_year", fiscalYear, "fiscal_period", fiscalPeriod, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, body)
}

type storedStatementDTO struct {
	Type              string          `json:"type"`
	FiscalYear        int             `json:"fiscal_year"`
	FiscalPeriod      int             `json:"fiscal_period"`
	Branch            string          `json:"branch"`
	Data              json.RawMessage `json:"data"`
	IsBalanced        bool            `json:"is_balanced"`
	NeedsRegeneration bool            `json:"needs_regeneration"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// Get returns the stored statement without regenerating. A statement flagged
// needs_regeneration is still returned; the flag tells the caller the stored
// figures predate a cleanup.
func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	stType, ok := statementTypesByPath[r.PathValue("type")]
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	fiscalYear, fiscalPeriod, fields := parsePeriod(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	st, err := h.statements.Get(r.Context(), stType, fiscalYear, fiscalPeriod)
	if err != nil {
		logging.FromContext(r.Context()).Warn("statement lookup failed", "type", stType, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, storedStatementDTO{
		Type:              string(st.Type),
		FiscalYear:        st.FiscalYear,
		FiscalPeriod:      st.FiscalPeriod,
		Branch:            st.Branch,
		Data:              st.Data,
		IsBalanced:        st.IsBalanced,
		NeedsRegeneration: st.NeedsRegeneration,
		GeneratedAt:       st.GeneratedAt,
	})
}
