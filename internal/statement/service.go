package statement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/audit"
	"github.com/mfi-core/backoffice-ledger/internal/auth"
	"github.com/mfi-core/backoffice-ledger/internal/coa"
	"github.com/mfi-core/backoffice-ledger/internal/domain"
	"github.com/mfi-core/backoffice-ledger/internal/logging"
)

type accountLister interface {
	List(ctx context.Context) ([]domain.Account, error)
}

type entryLister interface {
	ListPostedThrough(ctx context.Context, branch string, asOf time.Time) ([]domain.JournalEntry, error)
}

type statementStore interface {
	Upsert(ctx context.Context, st *domain.FinancialStatement) error
	Get(ctx context.Context, stType domain.StatementType, fiscalYear, fiscalPeriod int, branch string) (*domain.FinancialStatement, error)
}

type auditSink interface {
	Record(ctx context.Context, actor string, action audit.Action, entityType, entityID string, amount *decimal.Decimal, details audit.Details)
}

// Service generates financial statements on demand. The compute functions
// are pure; the service loads the entry history, bounds the scan with a
// timeout, and persists the result keyed by (type, year, period, branch).
type Service struct {
	accounts   accountLister
	entries    entryLister
	statements statementStore
	sink       auditSink
	branch     string
	timeout    time.Duration
}

func NewService(accounts accountLister, entries entryLister, statements statementStore, sink auditSink, branch string, timeout time.Duration) *Service {
	return &Service{
		accounts:   accounts,
		entries:    entries,
		statements: statements,
		sink:       sink,
		branch:     branch,
		timeout:    timeout,
	}
}

// Get returns the stored statement for the key, generated or not.
func (s *Service) Get(ctx context.Context, stType domain.StatementType, fiscalYear, fiscalPeriod int) (*domain.FinancialStatement, error) {
	return s.statements.Get(ctx, stType, fiscalYear, fiscalPeriod, s.branch)
}

// GenerateTrialBalance regenerates the trial balance for the period,
// overwriting any stored copy.
func (s *Service) GenerateTrialBalance(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.TrialBalance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	accounts, entries, periodStart, asOf, err := s.load(ctx, fiscalYear, fiscalPeriod)
	if err != nil {
		return nil, fmt.Errorf("GenerateTrialBalance: %w", err)
	}

	tb := ComputeTrialBalance(asOf, periodStart, s.branch, accounts, entries)
	if err := s.store(ctx, domain.StatementTypeTrialBalance, fiscalYear, fiscalPeriod, tb, tb.IsBalanced); err != nil {
		return nil, fmt.Errorf("GenerateTrialBalance: %w", err)
	}
	return tb, nil
}

// GenerateProfitLoss regenerates the income statement for the period.
func (s *Service) GenerateProfitLoss(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.ProfitLoss, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	accounts, entries, _, _, err := s.load(ctx, fiscalYear, fiscalPeriod)
	if err != nil {
		return nil, fmt.Errorf("GenerateProfitLoss: %w", err)
	}

	pl := ComputeProfitLoss(fiscalYear, fiscalPeriod, s.branch, accounts, entries)
	if err := s.store(ctx, domain.StatementTypeProfitLoss, fiscalYear, fiscalPeriod, pl, true); err != nil {
		return nil, fmt.Errorf("GenerateProfitLoss: %w", err)
	}
	return pl, nil
}

// GenerateBalanceSheet regenerates the balance sheet as of the period's end.
func (s *Service) GenerateBalanceSheet(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.BalanceSheet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	accounts, entries, _, asOf, err := s.load(ctx, fiscalYear, fiscalPeriod)
	if err != nil {
		return nil, fmt.Errorf("GenerateBalanceSheet: %w", err)
	}

	bs := ComputeBalanceSheet(asOf, s.branch, accounts, entries)
	balanced := bs.Discrepancy.Abs().LessThan(domain.BalanceTolerance)
	if err := s.store(ctx, domain.StatementTypeBalanceSheet, fiscalYear, fiscalPeriod, bs, balanced); err != nil {
		return nil, fmt.Errorf("GenerateBalanceSheet: %w", err)
	}
	return bs, nil
}

// GenerateCashFlow regenerates the cash-flow statement for the period. The
// derived ending cash is cross-checked against the cash account's stored
// closing balance.
func (s *Service) GenerateCashFlow(ctx context.Context, fiscalYear, fiscalPeriod int) (*domain.CashFlow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	accounts, entries, _, _, err := s.load(ctx, fiscalYear, fiscalPeriod)
	if err != nil {
		return nil, fmt.Errorf("GenerateCashFlow: %w", err)
	}

	cashAccounts := make(map[uuid.UUID]bool)
	actualCash := decimal.Zero
	cashCodes := make(map[string]bool)
	for _, code := range coa.Candidates(coa.RoleCash) {
		cashCodes[code] = true
	}
	for i := range accounts {
		if cashCodes[accounts[i].Code] {
			cashAccounts[accounts[i].ID] = true
			actualCash = actualCash.Add(accounts[i].CurrentBalance)
		}
	}

	cf := ComputeCashFlow(fiscalYear, fiscalPeriod, s.branch, cashAccounts, actualCash, entries)
	if err := s.store(ctx, domain.StatementTypeCashFlow, fiscalYear, fiscalPeriod, cf, cf.Reconciled); err != nil {
		return nil, fmt.Errorf("GenerateCashFlow: %w", err)
	}
	return cf, nil
}

// load pulls the chart and every posted entry through the period's end.
func (s *Service) load(ctx context.Context, fiscalYear, fiscalPeriod int) (accounts []domain.Account, entries []domain.JournalEntry, periodStart, asOf time.Time, err error) {
	periodStart, next := periodBounds(fiscalYear, fiscalPeriod)
	asOf = next.Add(-time.Second)

	accounts, err = s.accounts.List(ctx)
	if err != nil {
		return nil, nil, periodStart, asOf, err
	}
	entries, err = s.entries.ListPostedThrough(ctx, s.branch, asOf)
	if err != nil {
		return nil, nil, periodStart, asOf, err
	}
	return accounts, entries, periodStart, asOf, nil
}

func (s *Service) store(ctx context.Context, stType domain.StatementType, fiscalYear, fiscalPeriod int, body any, isBalanced bool) error {
	log := logging.FromContext(ctx)

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", stType, err)
	}

	st := &domain.FinancialStatement{
		ID:           uuid.New(),
		Type:         stType,
		FiscalYear:   fiscalYear,
		FiscalPeriod: fiscalPeriod,
		Branch:       s.branch,
		Data:         data,
		IsBalanced:   isBalanced,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := s.statements.Upsert(ctx, st); err != nil {
		return fmt.Errorf("store: %s: %w", stType, err)
	}

	log.Info("statement generated",
		"type", stType,
		"fiscal_year", fiscalYear,
		"fiscal_period", fiscalPeriod,
		"branch", s.branch,
		"is_balanced", isBalanced,
	)

	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		actor = "system"
	}
	s.sink.Record(ctx, actor, audit.ActionStatementGenerated,
		"statement", st.ID.String(), nil,
		audit.StatementDetails{
			StatementType: stType,
			FiscalYear:    fiscalYear,
			FiscalPeriod:  fiscalPeriod,
			Branch:        s.branch,
			IsBalanced:    isBalanced,
		})
	return nil
}
