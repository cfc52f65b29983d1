package ledger

import (
	"context"
	"database/sql"
	"errors"
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

type journalRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.JournalEntry) error
	GetByReference(ctx context.Context, reference string) (*domain.JournalEntry, error)
}

type accountStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
}

type accountResolver interface {
	Resolve(ctx context.Context, role coa.Role) (*domain.Account, error)
	ResolveExpense(ctx context.Context, category string) (*domain.Account, error)
}

type txRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type auditSink interface {
	Record(ctx context.Context, actor string, action audit.Action, entityType, entityID string, amount *decimal.Decimal, details audit.Details)
}

// Service is the journal entry recorder: it turns business events into
// balanced entries and applies their balance effects atomically.
type Service struct {
	journal  journalRepo
	accounts accountStore
	resolver accountResolver
	db       txRunner
	sink     auditSink
	branch   string
}

func NewService(journal journalRepo, accounts accountStore, resolver accountResolver, db txRunner, sink auditSink, branch string) *Service {
	return &Service{
		journal:  journal,
		accounts: accounts,
		resolver: resolver,
		db:       db,
		sink:     sink,
		branch:   branch,
	}
}

// Post records one business event. The entry, its lines, and every touched
// account balance are persisted in a single transaction; on any failure
// nothing is applied. Posting the same reference twice returns the entry
// already on file.
func (s *Service) Post(ctx context.Context, ev Event, txnDate time.Time) (*domain.JournalEntry, error) {
	log := logging.FromContext(ctx)

	specs, err := ev.LineSpecs()
	if err != nil {
		return nil, fmt.Errorf("Post: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("Post: %s: %w", ev.Reference(), domain.ErrEmptyEntry)
	}

	if existing, err := s.journal.GetByReference(ctx, ev.Reference()); err == nil {
		log.Info("reference already posted, returning existing entry",
			"reference", ev.Reference(), "entry_id", existing.ID)
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Post: %w", err)
	}

	resolved, err := s.resolveSpecs(ctx, specs)
	if err != nil {
		return nil, fmt.Errorf("Post: %s: %w", ev.Reference(), err)
	}

	entry, err := s.buildEntry(ctx, ev, txnDate, specs, resolved)
	if err != nil {
		return nil, fmt.Errorf("Post: %s: %w", ev.Reference(), err)
	}

	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		codesByID := make(map[uuid.UUID]string, len(resolved))
		for _, acct := range resolved {
			codesByID[acct.ID] = acct.Code
		}

		locked, err := lockAccountsInOrder(ctx, tx, s.accounts, codesByID)
		if err != nil {
			return err
		}
		for _, acct := range locked {
			if !acct.IsActive {
				return fmt.Errorf("account %s: %w", acct.Code, domain.ErrAccountInactive)
			}
		}

		if _, err := applyEntryBalances(entry, locked); err != nil {
			return err
		}
		if err := s.journal.Create(ctx, tx, entry); err != nil {
			return err
		}
		return writeBalances(ctx, tx, s.accounts, locked)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			// Lost a race to another poster of the same event.
			existing, getErr := s.journal.GetByReference(ctx, ev.Reference())
			if getErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("Post: %s: %w", ev.Reference(), err)
	}

	log.Info("journal entry posted",
		"reference", entry.Reference,
		"entry_id", entry.ID,
		"total", entry.TotalDebit,
		"lines", len(entry.Lines),
	)

	total := entry.TotalDebit
	s.sink.Record(ctx, entry.CreatedBy, audit.ActionEntryPosted,
		string(entry.ReferenceType), entry.ID.String(), &total,
		audit.EntryDetails{
			Reference:     entry.Reference,
			ReferenceType: entry.ReferenceType,
			LineCount:     len(entry.Lines),
			FiscalYear:    entry.FiscalYear,
			FiscalPeriod:  entry.FiscalPeriod,
			Branch:        entry.Branch,
		})

	return entry, nil
}

// ReverseLines undoes the entry's balance effects inside the caller's
// transaction. The caller is responsible for deleting or re-flagging the
// entry itself in the same transaction.
func (s *Service) ReverseLines(ctx context.Context, tx *sql.Tx, entry *domain.JournalEntry) error {
	if entry.Status != domain.EntryStatusPosted {
		return fmt.Errorf("ReverseLines: %s: %w", entry.Reference, domain.ErrEntryNotPosted)
	}

	codesByID := make(map[uuid.UUID]string, len(entry.Lines))
	for i := range entry.Lines {
		codesByID[entry.Lines[i].AccountID] = entry.Lines[i].AccountCode
	}

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, codesByID)
	if err != nil {
		return fmt.Errorf("ReverseLines: %s: %w", entry.Reference, err)
	}
	if err := reverseEntryBalances(entry, locked); err != nil {
		return fmt.Errorf("ReverseLines: %s: %w", entry.Reference, err)
	}
	if err := writeBalances(ctx, tx, s.accounts, locked); err != nil {
		return fmt.Errorf("ReverseLines: %s: %w", entry.Reference, err)
	}
	return nil
}

func (s *Service) resolveSpecs(ctx context.Context, specs []LineSpec) ([]*domain.Account, error) {
	resolved := make([]*domain.Account, len(specs))
	for i, sp := range specs {
		var (
			acct *domain.Account
			err  error
		)
		if sp.ExpenseCategory != "" {
			acct, err = s.resolver.ResolveExpense(ctx, sp.ExpenseCategory)
		} else {
			acct, err = s.resolver.Resolve(ctx, sp.Role)
		}
		if err != nil {
			return nil, err
		}
		resolved[i] = acct
	}
	return resolved, nil
}

func (s *Service) buildEntry(ctx context.Context, ev Event, txnDate time.Time, specs []LineSpec, resolved []*domain.Account) (*domain.JournalEntry, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		actor = "system"
	}

	now := time.Now().UTC()
	fiscalYear, fiscalPeriod := domain.FiscalPeriodOf(txnDate)
	refID := ev.ReferenceID()

	entry := &domain.JournalEntry{
		ID:              uuid.New(),
		TransactionDate: txnDate,
		Reference:       ev.Reference(),
		ReferenceType:   ev.ReferenceType(),
		ReferenceID:     &refID,
		Description:     ev.Description(),
		FiscalYear:      fiscalYear,
		FiscalPeriod:    fiscalPeriod,
		Branch:          s.branch,
		CreatedBy:       actor,
		Status:          domain.EntryStatusPosted,
		CreatedAt:       now,
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i, sp := range specs {
		line := domain.JournalLine{
			ID:          uuid.New(),
			EntryID:     entry.ID,
			AccountID:   resolved[i].ID,
			AccountCode: resolved[i].Code,
			Position:    i,
			CreatedAt:   now,
		}
		if sp.Side == domain.SideDebit {
			line.Debit = sp.Amount
			totalDebit = totalDebit.Add(sp.Amount)
		} else {
			line.Credit = sp.Amount
			totalCredit = totalCredit.Add(sp.Amount)
		}
		entry.Lines = append(entry.Lines, line)
	}
	entry.TotalDebit = totalDebit
	entry.TotalCredit = totalCredit

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}
