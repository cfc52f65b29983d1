package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mfi-core/backoffice-ledger/internal/coa"
	"github.com/mfi-core/backoffice-ledger/internal/domain"
)

// SeedDefaultChart inserts the standard chart of accounts and returns the
// accounts keyed by code.
func SeedDefaultChart(t *testing.T, db *sql.DB) map[string]*domain.Account {
	t.Helper()

	accounts := make(map[string]*domain.Account)
	for _, d := range coa.DefaultChart() {
		a := &domain.Account{
			ID:        uuid.New(),
			Code:      d.Code,
			Name:      d.Name,
			Type:      d.Type,
			Category:  d.Category,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		}
		_, err := db.Exec(
			`INSERT INTO accounts (id, code, name, account_type, category, current_balance,
				is_active, version, created_at)
			 VALUES ($1, $2, $3, $4, $5, 0, TRUE, 0, $6)
			 ON CONFLICT (code) DO NOTHING`,
			a.ID, a.Code, a.Name, a.Type, a.Category, a.CreatedAt,
		)
		if err != nil {
			t.Fatalf("seed account %s: %v", d.Code, err)
		}
		accounts[d.Code] = a
	}
	return accounts
}

// SeedTaxRecord links a tax filing to a business record, for the
// deletion-safety checks.
func SeedTaxRecord(t *testing.T, db *sql.DB, entityType string, entityID uuid.UUID, amount decimal.Decimal, period string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO tax_records (id, entity_type, entity_id, amount, period, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, entityType, entityID, amount, period, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("seed tax record for %s %s: %v", entityType, entityID, err)
	}
	return id
}

// GetAccountBalance reads the stored balance counter for an account code.
func GetAccountBalance(t *testing.T, db *sql.DB, code string) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT current_balance FROM accounts WHERE code = $1`, code).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", code, err)
	}
	return balance
}

// CountEntries counts journal entries matching a reference pattern.
func CountEntries(t *testing.T, db *sql.DB, referencePattern string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM journal_entries WHERE reference LIKE $1`, referencePattern).Scan(&count)
	if err != nil {
		t.Fatalf("count entries for %s: %v", referencePattern, err)
	}
	return count
}

// CountLines counts the journal lines attached to one entry.
func CountLines(t *testing.T, db *sql.DB, entryID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM journal_lines WHERE entry_id = $1`, entryID).Scan(&count)
	if err != nil {
		t.Fatalf("count lines for entry %s: %v", entryID, err)
	}
	return count
}
