// Package services содержит бизнес-логику кредитного журнала:
// месячная квота подписчика, списание и возврат кредитов, продление цикла.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/mentorship-booking/internal/lib/month"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

// Причины ineligibility для ответа клиенту.
const (
	ReasonPaymentInactive     = "payment is not active"
	ReasonInsufficientCredits = "no credits remaining this month"
)

// События платёжного провайдера, приходящие через webhook.
const (
	EventSubscriptionCreated   = "subscription.created"
	EventPaymentSucceeded      = "payment.succeeded"
	EventPaymentFailed         = "payment.failed"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// AccountRepository определяет методы хранилища для кредитных аккаунтов и журнала.
type AccountRepository interface {
	// CreateAccount создаёт аккаунт с полной квотой и стартовой earned-записью.
	CreateAccount(ctx context.Context, acc models.CreditAccount) error
	// ReadAccount возвращает аккаунт подписчика.
	ReadAccount(ctx context.Context, subscriberUID string) (*models.CreditAccount, error)
	// ReserveCredit атомарно списывает один кредит.
	ReserveCredit(ctx context.Context, subscriberUID, sessionID, reason string) (*models.CreditAccount, error)
	// RefundCredit возвращает кредит за сессию, идемпотентно по sessionID.
	RefundCredit(ctx context.Context, subscriberUID, sessionID, reason string) (*models.CreditAccount, bool, error)
	// RenewAccount продлевает расчётный период, если срок наступил или force=true.
	RenewAccount(ctx context.Context, subscriberUID string, now time.Time, force bool) (*models.CreditAccount, bool, error)
	// SetPaymentStatus переводит статус оплаты.
	SetPaymentStatus(ctx context.Context, subscriberUID, status string) (*models.CreditAccount, error)
	// ListTransactions возвращает последние записи журнала.
	ListTransactions(ctx context.Context, subscriberUID string, limit int) ([]*models.CreditTransaction, error)
}

// LedgerService реализует бизнес-логику кредитного журнала.
type LedgerService struct {
	repo AccountRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewLedgerService создает новый экземпляр LedgerService.
func NewLedgerService(repo AccountRepository, log *slog.Logger) *LedgerService {
	return &LedgerService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Initialize создаёт кредитный аккаунт подписчика со статусом pending и полной квотой.
// Возвращает ошибку с repository.ErrAccountExists при повторной инициализации.
func (s *LedgerService) Initialize(ctx context.Context, subscriberUID, email string) (*models.CreditAccount, error) {
	now := s.now()
	acc := models.CreditAccount{
		SubscriberUID:     subscriberUID,
		Email:             email,
		MonthlyQuota:      models.DefaultMonthlyQuota,
		CreditsUsed:       0,
		CreditsRemaining:  models.DefaultMonthlyQuota,
		PaymentStatus:     models.PaymentStatusPending,
		SubscriptionStart: now,
		LastRenewal:       now,
		NextRenewal:       month.AddRenewalMonth(now),
	}
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	s.log.Info("initialized credit account",
		slog.String("subscriber_uid", subscriberUID),
		slog.Int("quota", acc.MonthlyQuota))
	return &acc, nil
}

// GetAccount возвращает кредитный аккаунт подписчика.
func (s *LedgerService) GetAccount(ctx context.Context, subscriberUID string) (*models.CreditAccount, error) {
	return s.repo.ReadAccount(ctx, subscriberUID)
}

// RenewIfDue продлевает расчётный период, если наступил срок.
// Вынесено в отдельный метод, чтобы продление-по-чтению было явным
// и тестировалось независимо от проверки eligibility.
func (s *LedgerService) RenewIfDue(ctx context.Context, subscriberUID string) (*models.CreditAccount, bool, error) {
	acc, renewed, err := s.repo.RenewAccount(ctx, subscriberUID, s.now(), false)
	if err != nil {
		return nil, false, err
	}
	if renewed {
		s.log.Info("renewed credit account",
			slog.String("subscriber_uid", subscriberUID),
			slog.Time("next_renewal", acc.NextRenewal))
	}
	return acc, renewed, nil
}

// CheckEligibility проверяет право подписчика на бронирование.
// Сначала выполняет продление, если его срок наступил, поэтому запрос
// на границе расчётного периода не увидит устаревший нулевой баланс.
// Это документированный побочный эффект, а не чистое чтение.
func (s *LedgerService) CheckEligibility(ctx context.Context, subscriberUID string) (*models.Eligibility, error) {
	acc, _, err := s.RenewIfDue(ctx, subscriberUID)
	if err != nil {
		return nil, err
	}

	result := &models.Eligibility{
		Account:          acc,
		DaysUntilRenewal: month.DaysUntil(s.now(), acc.NextRenewal),
	}
	switch {
	case acc.PaymentStatus != models.PaymentStatusActive:
		result.Reason = ReasonPaymentInactive
	case acc.CreditsRemaining <= 0:
		result.Reason = ReasonInsufficientCredits
	default:
		result.Eligible = true
	}
	return result, nil
}

// ReserveAndConsume атомарно перепроверяет eligibility и списывает один кредит,
// добавляя used-запись журнала с привязкой к сессии. Это авторитетная проверка:
// оптимистичный CheckEligibility перед ней не даёт никаких гарантий.
func (s *LedgerService) ReserveAndConsume(ctx context.Context, subscriberUID, sessionID string) (*models.CreditAccount, error) {
	if _, _, err := s.RenewIfDue(ctx, subscriberUID); err != nil {
		return nil, err
	}

	acc, err := s.repo.ReserveCredit(ctx, subscriberUID, sessionID, "mentorship session booking")
	if err != nil {
		return nil, err
	}
	s.log.Info("consumed credit",
		slog.String("subscriber_uid", subscriberUID),
		slog.String("session_id", sessionID),
		slog.Int("credits_remaining", acc.CreditsRemaining))
	return acc, nil
}

// Refund возвращает кредит за отменённую сессию. Идемпотентен по sessionID:
// повторный возврат не меняет баланс, refunded=false.
func (s *LedgerService) Refund(ctx context.Context, subscriberUID, sessionID, reason string) (*models.CreditAccount, bool, error) {
	acc, refunded, err := s.repo.RefundCredit(ctx, subscriberUID, sessionID, reason)
	if err != nil {
		return nil, false, err
	}
	if refunded {
		s.log.Info("refunded credit",
			slog.String("subscriber_uid", subscriberUID),
			slog.String("session_id", sessionID),
			slog.Int("credits_remaining", acc.CreditsRemaining))
	} else {
		s.log.Warn("credit already refunded for session, skipping",
			slog.String("session_id", sessionID))
	}
	return acc, refunded, nil
}

// UpdatePaymentStatus переводит статус оплаты аккаунта. Активация аккаунта
// с нулевым балансом немедленно выдаёт свежую квоту, чтобы вернувшийся
// подписчик не ждал календарного продления.
func (s *LedgerService) UpdatePaymentStatus(ctx context.Context, subscriberUID, status string) (*models.CreditAccount, error) {
	acc, err := s.repo.SetPaymentStatus(ctx, subscriberUID, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("updated payment status",
		slog.String("subscriber_uid", subscriberUID),
		slog.String("status", status))

	if status == models.PaymentStatusActive && acc.CreditsRemaining == 0 {
		acc, _, err = s.repo.RenewAccount(ctx, subscriberUID, s.now(), true)
		if err != nil {
			return nil, err
		}
		s.log.Info("granted fresh quota on reactivation",
			slog.String("subscriber_uid", subscriberUID))
	}
	return acc, nil
}

// Renew продлевает расчётный период подписчика. Неактивный аккаунт
// не продлевается — только сигнал в лог. Повторный вызов в том же
// периоде ничего не делает.
func (s *LedgerService) Renew(ctx context.Context, subscriberUID string) (*models.CreditAccount, error) {
	acc, renewed, err := s.repo.RenewAccount(ctx, subscriberUID, s.now(), false)
	if err != nil {
		return nil, err
	}
	if !renewed {
		if acc.PaymentStatus != models.PaymentStatusActive {
			s.log.Warn("skipping renewal: payment is not active",
				slog.String("subscriber_uid", subscriberUID),
				slog.String("status", acc.PaymentStatus))
		}
		return acc, nil
	}
	s.log.Info("renewed credit account",
		slog.String("subscriber_uid", subscriberUID),
		slog.Time("next_renewal", acc.NextRenewal))
	return acc, nil
}

// ProcessPaymentEvent применяет событие платёжного провайдера к аккаунту.
// Первое событие подписки создаёт аккаунт, подтверждённый платёж активирует его.
func (s *LedgerService) ProcessPaymentEvent(ctx context.Context, event, subscriberUID, email string) (*models.CreditAccount, error) {
	const op = "services.ledger.ProcessPaymentEvent"

	switch event {
	case EventSubscriptionCreated:
		acc, err := s.Initialize(ctx, subscriberUID, email)
		if errors.Is(err, repository.ErrAccountExists) {
			s.log.Warn("account already initialized, ignoring event",
				slog.String("subscriber_uid", subscriberUID))
			return s.repo.ReadAccount(ctx, subscriberUID)
		}
		return acc, err
	case EventPaymentSucceeded:
		if _, err := s.repo.ReadAccount(ctx, subscriberUID); errors.Is(err, repository.ErrAccountNotFound) {
			if _, initErr := s.Initialize(ctx, subscriberUID, email); initErr != nil {
				return nil, fmt.Errorf("%s: %w", op, initErr)
			}
		} else if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s.UpdatePaymentStatus(ctx, subscriberUID, models.PaymentStatusActive)
	case EventPaymentFailed:
		return s.UpdatePaymentStatus(ctx, subscriberUID, models.PaymentStatusInactive)
	case EventSubscriptionCancelled:
		return s.UpdatePaymentStatus(ctx, subscriberUID, models.PaymentStatusCancelled)
	default:
		s.log.Info("ignored payment event", slog.String("event", event))
		return nil, nil
	}
}

// Transactions возвращает последние записи журнала кредитов подписчика.
func (s *LedgerService) Transactions(ctx context.Context, subscriberUID string, limit int) ([]*models.CreditTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	txs, err := s.repo.ListTransactions(ctx, subscriberUID, limit)
	if err != nil {
		return nil, err
	}
	return txs, nil
}
