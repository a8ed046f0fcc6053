// Package scheduler содержит сборку фонового воркера продления кредитных циклов.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/mentorship-booking/internal/config"
	ledgerservice "github.com/magabrotheeeer/mentorship-booking/internal/services/ledger"
	renewalservice "github.com/magabrotheeeer/mentorship-booking/internal/services/renewal"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

// App представляет приложение планировщика продлений.
type App struct {
	renewalService *renewalservice.RenewalService
	interval       time.Duration
	db             *repository.Storage
	logger         *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		return nil, err
	}

	ledger := ledgerservice.NewLedgerService(db, logger)
	renewalService := renewalservice.NewRenewalService(db, ledger, logger)

	interval := cfg.RenewalCheckInterval
	if interval <= 0 {
		interval = time.Hour
	}

	return &App{
		renewalService: renewalService,
		interval:       interval,
		db:             db,
		logger:         logger,
	}, nil
}

// Run запускает цикл продления до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	a.renewalService.Run(ctx, a.interval)

	a.logger.Info("shutting down renewal scheduler")
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}
	return nil
}
