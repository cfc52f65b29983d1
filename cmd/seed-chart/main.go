package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mfi-core/backoffice-ledger/internal/coa"
	"github.com/mfi-core/backoffice-ledger/internal/config"
	"github.com/mfi-core/backoffice-ledger/internal/domain"
	"github.com/mfi-core/backoffice-ledger/internal/logging"
	"github.com/mfi-core/backoffice-ledger/internal/repository"
)

// Seeds the default chart of accounts into a fresh installation. Accounts
// already on file are left untouched, so reruns are harmless.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("seed-chart", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	accounts := repository.NewAccountRepository(pool)

	created := 0
	for _, d := range coa.DefaultChart() {
		if _, err := accounts.GetByCode(ctx, d.Code); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("account lookup failed", "code", d.Code, "error", err)
			os.Exit(1)
		}

		account := &domain.Account{
			ID:        uuid.New(),
			Code:      d.Code,
			Name:      d.Name,
			Type:      d.Type,
			Category:  d.Category,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		}
		if err := accounts.Create(ctx, account); err != nil {
			slog.Error("failed to seed account", "code", d.Code, "error", err)
			os.Exit(1)
		}
		slog.Info("account seeded", "code", d.Code, "name", d.Name)
		created++
	}

	slog.Info("chart seeding complete", "created", created, "total", len(coa.DefaultChart()))
}
