package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

// lockAccountsInOrder takes row locks on every account in ascending code
// order so concurrent postings touching overlapping accounts cannot
// deadlock. Codes are fetched inside the lock, so the deterministic order is
// taken from the caller's view of (id, code) pairs.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountStore, byID map[uuid.UUID]string) (map[uuid.UUID]*domain.Account, error) {
	ids := make([]uuid.UUID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ci, cj := byID[ids[i]], byID[ids[j]]
		if ci != cj {
			return ci < cj
		}
		return ids[i].String() < ids[j].String()
	})

	locked := make(map[uuid.UUID]*domain.Account, len(ids))
	for _, id := range ids {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		locked[id] = acct
	}
	return locked, nil
}

// applyEntryBalances walks the entry's lines against the locked accounts,
// stamping balance_before/balance_after on each line and returning the final
// balance per account. Forward posting only; reversal is the exact inverse
// in reverseEntryBalances.
func applyEntryBalances(entry *domain.JournalEntry, locked map[uuid.UUID]*domain.Account) (map[uuid.UUID]*domain.Account, error) {
	for i := range entry.Lines {
		l := &entry.Lines[i]
		acct, ok := locked[l.AccountID]
		if !ok {
			return nil, fmt.Errorf("applyEntryBalances: line %d account %s not locked", i, l.AccountID)
		}
		l.BalanceBefore = acct.CurrentBalance
		acct.CurrentBalance = acct.CurrentBalance.Add(acct.BalanceDelta(l.Debit, l.Credit))
		l.BalanceAfter = acct.CurrentBalance
	}
	return locked, nil
}

// reverseEntryBalances subtracts each line's original delta from the locked
// accounts, restoring the exact contribution the entry made regardless of
// intervening postings to other accounts.
func reverseEntryBalances(entry *domain.JournalEntry, locked map[uuid.UUID]*domain.Account) error {
	for i := range entry.Lines {
		l := &entry.Lines[i]
		acct, ok := locked[l.AccountID]
		if !ok {
			return fmt.Errorf("reverseEntryBalances: line %d account %s not locked", i, l.AccountID)
		}
		acct.CurrentBalance = acct.CurrentBalance.Sub(acct.BalanceDelta(l.Debit, l.Credit))
	}
	return nil
}

func writeBalances(ctx context.Context, tx *sql.Tx, accounts accountStore, locked map[uuid.UUID]*domain.Account) error {
	for id, acct := range locked {
		if err := accounts.UpdateBalance(ctx, tx, id, acct.CurrentBalance, acct.Version+1); err != nil {
			return fmt.Errorf("writeBalances: account %s: %w", acct.Code, err)
		}
	}
	return nil
}
