package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
	"github.com/mfi-core/backoffice-ledger/internal/ledger"
	"github.com/mfi-core/backoffice-ledger/internal/logging"
)

type eventPoster interface {
	Post(ctx context.Context, ev ledger.Event, txnDate time.Time) (*domain.JournalEntry, error)
}

type entryGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error)
}

type EventHandler struct {
	ledger  eventPoster
	entries entryGetter
}

func NewEventHandler(ledger eventPoster, entries entryGetter) *EventHandler {
	return &EventHandler{ledger: ledger, entries: entries}
}

type eventEnvelope struct {
	// TransactionDate defaults to now when omitted.
	TransactionDate *time.Time `json:"transaction_date"`
}

func (e eventEnvelope) txnDate() *time.Time { return e.TransactionDate }

type disbursementRequest struct {
	eventEnvelope
	LoanID    uuid.UUID       `json:"loan_id"`
	LoanCode  string          `json:"loan_code"`
	Principal decimal.Decimal `json:"principal"`
	FeeType   string          `json:"fee_type"`
	FeeValue  decimal.Decimal `json:"fee_value"`
}

func (r disbursementRequest) Validate() []FieldError {
	var errs []FieldError
	if r.LoanID == uuid.Nil {
		errs = append(errs, FieldError{Field: "loan_id", Message: "required"})
	}
	if r.LoanCode == "" {
		errs = append(errs, FieldError{Field: "loan_code", Message: "required"})
	}
	if !r.Principal.IsPositive() {
		errs = append(errs, FieldError{Field: "principal", Message: "must be greater than 0"})
	}
	switch ledger.FeeType(r.FeeType) {
	case "", ledger.FeeFlat, ledger.FeePercent:
	default:
		errs = append(errs, FieldError{Field: "fee_type", Message: "must be flat or percent"})
	}
	return errs
}

func (r disbursementRequest) event() ledger.Event {
	return ledger.DisbursementEvent{
		LoanID:    r.LoanID,
		LoanCode:  r.LoanCode,
		Principal: r.Principal,
		Fee:       ledger.FeeSchedule{Type: ledger.FeeType(r.FeeType), Value: r.FeeValue},
	}
}

type paymentRequest struct {
	eventEnvelope
	LoanID    uuid.UUID       `json:"loan_id"`
	LoanCode  string          `json:"loan_code"`
	Sequence  int             `json:"sequence"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`

	// Interest derivation inputs, used when interest is omitted.
	AnnualRate           decimal.Decimal `json:"annual_rate"`
	InterestMethod       string          `json:"interest_method"`
	PaymentsPerYear      int             `json:"payments_per_year"`
	OriginalPrincipal    decimal.Decimal `json:"original_principal"`
	OutstandingPrincipal decimal.Decimal `json:"outstanding_principal"`
}

func (r paymentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.LoanID == uuid.Nil {
		errs = append(errs, FieldError{Field: "loan_id", Message: "required"})
	}
	if r.LoanCode == "" {
		errs = append(errs, FieldError{Field: "loan_code", Message: "required"})
	}
	if r.Sequence <= 0 {
		errs = append(errs, FieldError{Field: "sequence", Message: "must be greater than 0"})
	}
	if r.Principal.IsZero() {
		errs = append(errs, FieldError{Field: "principal", Message: "must be nonzero"})
	}
	switch ledger.InterestMethod(r.InterestMethod) {
	case "", ledger.InterestFlat, ledger.InterestDeclining:
	default:
		errs = append(errs, FieldError{Field: "interest_method", Message: "must be flat or declining"})
	}
	return errs
}

func (r paymentRequest) event() ledger.Event {
	ev := ledger.PaymentEvent{
		LoanID:      r.LoanID,
		LoanCode:    r.LoanCode,
		Sequence:    r.Sequence,
		Principal:   r.Principal,
		Interest:    r.Interest,
		Original:    r.OriginalPrincipal,
		Outstanding: r.OutstandingPrincipal,
	}
	if r.Interest.IsZero() && !r.AnnualRate.IsZero() {
		ev.Terms = &ledger.InterestTerms{
			AnnualRate:      r.AnnualRate,
			Method:          ledger.InterestMethod(r.InterestMethod),
			PaymentsPerYear: r.PaymentsPerYear,
		}
	}
	return ev
}

type expenseRequest struct {
	eventEnvelope
	ExpenseID uuid.UUID       `json:"expense_id"`
	Code      string          `json:"code"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
}

func (r expenseRequest) Validate() []FieldError {
	var errs []FieldError
	if r.ExpenseID == uuid.Nil {
		errs = append(errs, FieldError{Field: "expense_id", Message: "required"})
	}
	if r.Code == "" {
		errs = append(errs, FieldError{Field: "code", Message: "required"})
	}
	if r.Category == "" {
		errs = append(errs, FieldError{Field: "category", Message: "required"})
	}
	if r.Amount.IsZero() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be nonzero"})
	}
	return errs
}

func (r expenseRequest) event() ledger.Event {
	return ledger.ExpenseEvent{
		ExpenseID: r.ExpenseID,
		Code:      r.Code,
		Category:  r.Category,
		Amount:    r.Amount,
	}
}

type salaryRequest struct {
	eventEnvelope
	SalaryID uuid.UUID       `json:"salary_id"`
	Code     string          `json:"code"`
	Amount   decimal.Decimal `json:"amount"`
}

func (r salaryRequest) Validate() []FieldError {
	var errs []FieldError
	if r.SalaryID == uuid.Nil {
		errs = append(errs, FieldError{Field: "salary_id", Message: "required"})
	}
	if r.Code == "" {
		errs = append(errs, FieldError{Field: "code", Message: "required"})
	}
	if r.Amount.IsZero() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be nonzero"})
	}
	return errs
}

func (r salaryRequest) event() ledger.Event {
	return ledger.SalaryEvent{SalaryID: r.SalaryID, Code: r.Code, Amount: r.Amount}
}

type writeOffRequest struct {
	eventEnvelope
	LoanID   uuid.UUID       `json:"loan_id"`
	LoanCode string          `json:"loan_code"`
	Amount   decimal.Decimal `json:"amount"`
}

func (r writeOffRequest) Validate() []FieldError {
	var errs []FieldError
	if r.LoanID == uuid.Nil {
		errs = append(errs, FieldError{Field: "loan_id", Message: "required"})
	}
	if r.LoanCode == "" {
		errs = append(errs, FieldError{Field: "loan_code", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

func (r writeOffRequest) event() ledger.Event {
	return ledger.WriteOffEvent{LoanID: r.LoanID, LoanCode: r.LoanCode, Amount: r.Amount}
}

type capitalRequest struct {
	eventEnvelope
	CapitalID uuid.UUID       `json:"capital_id"`
	Code      string          `json:"code"`
	Amount    decimal.Decimal `json:"amount"`
}

func (r capitalRequest) Validate() []FieldError {
	var errs []FieldError
	if r.CapitalID == uuid.Nil {
		errs = append(errs, FieldError{Field: "capital_id", Message: "required"})
	}
	if r.Code == "" {
		errs = append(errs, FieldError{Field: "code", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

func (r capitalRequest) event() ledger.Event {
	return ledger.CapitalInjectionEvent{CapitalID: r.CapitalID, Code: r.Code, Amount: r.Amount}
}

type completionRequest struct {
	eventEnvelope
	LoanID             uuid.UUID       `json:"loan_id"`
	LoanCode           string          `json:"loan_code"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	ClosingInterest    decimal.Decimal `json:"closing_interest"`
}

func (r completionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.LoanID == uuid.Nil {
		errs = append(errs, FieldError{Field: "loan_id", Message: "required"})
	}
	if r.LoanCode == "" {
		errs = append(errs, FieldError{Field: "loan_code", Message: "required"})
	}
	if r.RemainingPrincipal.IsZero() && r.ClosingInterest.IsZero() {
		errs = append(errs, FieldError{Field: "remaining_principal", Message: "payoff must be nonzero"})
	}
	return errs
}

func (r completionRequest) event() ledger.Event {
	return ledger.CompletionEvent{
		LoanID:             r.LoanID,
		LoanCode:           r.LoanCode,
		RemainingPrincipal: r.RemainingPrincipal,
		ClosingInterest:    r.ClosingInterest,
	}
}

type lineDTO struct {
	AccountCode   string          `json:"account_code"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

type entryDTO struct {
	ID              uuid.UUID       `json:"id"`
	TransactionDate time.Time       `json:"transaction_date"`
	Reference       string          `json:"reference"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     *uuid.UUID      `json:"reference_id"`
	Description     string          `json:"description"`
	Lines           []lineDTO       `json:"lines"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	FiscalYear      int             `json:"fiscal_year"`
	FiscalPeriod    int             `json:"fiscal_period"`
	Branch          string          `json:"branch"`
	CreatedBy       string          `json:"created_by"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toEntryDTO(e *domain.JournalEntry) entryDTO {
	dto := entryDTO{
		ID:              e.ID,
		TransactionDate: e.TransactionDate,
		Reference:       e.Reference,
		ReferenceType:   string(e.ReferenceType),
		ReferenceID:     e.ReferenceID,
		Description:     e.Description,
		TotalDebit:      e.TotalDebit,
		TotalCredit:     e.TotalCredit,
		FiscalYear:      e.FiscalYear,
		FiscalPeriod:    e.FiscalPeriod,
		Branch:          e.Branch,
		CreatedBy:       e.CreatedBy,
		Status:          string(e.Status),
		CreatedAt:       e.CreatedAt,
	}
	for i := range e.Lines {
		l := &e.Lines[i]
		dto.Lines = append(dto.Lines, lineDTO{
			AccountCode:   l.AccountCode,
			Debit:         l.Debit,
			Credit:        l.Credit,
			BalanceBefore: l.BalanceBefore,
			BalanceAfter:  l.BalanceAfter,
		})
	}
	return dto
}

type eventRequest interface {
	Validate() []FieldError
	event() ledger.Event
	txnDate() *time.Time
}

// eventRequestFor returns a fresh request for the wire name of an event
// type, or false for a name no event carries.
func eventRequestFor(eventType string) (eventRequest, bool) {
	switch eventType {
	case "disbursement":
		return &disbursementRequest{}, true
	case "payment":
		return &paymentRequest{}, true
	case "expense":
		return &expenseRequest{}, true
	case "salary":
		return &salaryRequest{}, true
	case "write-off":
		return &writeOffRequest{}, true
	case "capital":
		return &capitalRequest{}, true
	case "completion":
		return &completionRequest{}, true
	default:
		return nil, false
	}
}

// Post records one business event as a journal entry. The event type comes
// from the path. Reposting the same event is idempotent and returns the
// entry already on file.
func (h *EventHandler) Post(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	req, ok := eventRequestFor(r.PathValue("type"))
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
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

	entry, err := h.ledger.Post(r.Context(), req.event(), txnDate)
	if err != nil {
		log.Warn("event posting failed", "event_type", r.PathValue("type"), "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/entries/%s", entry.ID))
	RespondSuccess(w, http.StatusCreated, toEntryDTO(entry))
}

// Get returns one journal entry, lines included.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	entry, err := h.entries.GetByID(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("entry lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toEntryDTO(entry))
}
