// Package services содержит планировщик продления кредитных циклов.
// Он страхует продление-по-чтению: аккаунты, к которым никто не обращался
// после наступления срока, продлеваются фоновым проходом.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
)

// AccountRepository определяет методы хранилища для поиска аккаунтов к продлению.
type AccountRepository interface {
	ListDueForRenewal(ctx context.Context, now time.Time) ([]*models.CreditAccount, error)
}

// Ledger описывает операцию продления одного аккаунта.
type Ledger interface {
	Renew(ctx context.Context, subscriberUID string) (*models.CreditAccount, error)
}

// RenewalService периодически продлевает просроченные расчётные периоды.
type RenewalService struct {
	repo   AccountRepository
	ledger Ledger
	log    *slog.Logger
	now    func() time.Time
}

// NewRenewalService создает новый экземпляр RenewalService.
func NewRenewalService(repo AccountRepository, ledger Ledger, log *slog.Logger) *RenewalService {
	return &RenewalService{
		repo:   repo,
		ledger: ledger,
		log:    log,
		now:    time.Now,
	}
}

// Run запускает цикл продления с заданным интервалом до отмены контекста.
func (s *RenewalService) Run(ctx context.Context, interval time.Duration) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("renewal loop stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход: находит аккаунты с наступившим сроком
// и продлевает каждый. Ошибка одного аккаунта не прерывает проход.
// Возвращает число продлённых аккаунтов.
func (s *RenewalService) RunOnce(ctx context.Context) int {
	s.log.Info("starting renewal pass")
	accounts, err := s.repo.ListDueForRenewal(ctx, s.now())
	if err != nil {
		s.log.Error("failed to list accounts due for renewal", sl.Err(err))
		return 0
	}
	if len(accounts) == 0 {
		s.log.Info("no accounts due for renewal")
		return 0
	}
	s.log.Info("found accounts due for renewal", "count", len(accounts))

	renewed := 0
	for _, acc := range accounts {
		if _, err := s.ledger.Renew(ctx, acc.SubscriberUID); err != nil {
			s.log.Error("failed to renew account",
				slog.String("subscriber_uid", acc.SubscriberUID), sl.Err(err))
			continue
		}
		renewed++
	}
	s.log.Info("renewal pass finished", "renewed", renewed)
	return renewed
}
