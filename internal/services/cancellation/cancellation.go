// Package services содержит обработчик отмены менторских сессий.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/mentorship-booking/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

// Граница возврата кредита: отмена за 24 часа и более до начала сессии
// возвращает кредит, ровно 24 часа — ещё возвращает.
const refundCutoff = 24 * time.Hour

// Ledger описывает операции кредитного журнала, нужные при отмене.
type Ledger interface {
	Refund(ctx context.Context, subscriberUID, sessionID, reason string) (*models.CreditAccount, bool, error)
	GetAccount(ctx context.Context, subscriberUID string) (*models.CreditAccount, error)
}

// SessionRepository определяет методы хранилища сессий для отмены.
type SessionRepository interface {
	// ReadSessionForSubscriber возвращает сессию, если она принадлежит подписчику.
	ReadSessionForSubscriber(ctx context.Context, sessionID, subscriberUID string) (*models.Session, error)
	// MarkSessionCancelled переводит scheduled-сессию в cancelled.
	MarkSessionCancelled(ctx context.Context, sessionID string) (int, error)
}

// NotificationPublisher публикует уведомления в очередь.
type NotificationPublisher interface {
	Publish(routingKey string, message any) error
}

// CancellationService реализует отмену сессии с условным возвратом кредита.
type CancellationService struct {
	ledger    Ledger
	sessions  SessionRepository
	publisher NotificationPublisher
	log       *slog.Logger
	now       func() time.Time
}

// NewCancellationService создает новый экземпляр CancellationService.
func NewCancellationService(ledger Ledger, sessions SessionRepository,
	publisher NotificationPublisher, log *slog.Logger) *CancellationService {
	return &CancellationService{
		ledger:    ledger,
		sessions:  sessions,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Cancel отменяет сессию подписчика. Кредит возвращается, только если до
// начала сессии осталось не меньше 24 часов. Чужая или несуществующая
// сессия даёт repository.ErrSessionNotFound, уже отменённая или
// завершённая — repository.ErrSessionNotCancellable.
func (s *CancellationService) Cancel(ctx context.Context, subscriberUID, sessionID, userName string) (*models.CancellationResult, error) {
	const op = "services.cancellation.Cancel"

	session, err := s.sessions.ReadSessionForSubscriber(ctx, sessionID, subscriberUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session.Status != models.SessionStatusScheduled {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrSessionNotCancellable)
	}

	rows, err := s.sessions.MarkSessionCancelled(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		// Конкурентная отмена успела раньше: статус уже не scheduled.
		return nil, fmt.Errorf("%s: %w", op, repository.ErrSessionNotCancellable)
	}
	session.Status = models.SessionStatusCancelled

	now := s.now()
	withRefund := session.ScheduledAt.Sub(now) >= refundCutoff

	var account *models.CreditAccount
	refunded := false
	if withRefund {
		account, refunded, err = s.ledger.Refund(ctx, subscriberUID, sessionID, "session cancelled in time")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		account, err = s.ledger.GetAccount(ctx, subscriberUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("cancelled mentorship session",
		slog.String("session_id", sessionID),
		slog.String("subscriber_uid", subscriberUID),
		slog.Bool("refunded", refunded))

	notification := models.CancellationNotification{
		Email:       account.Email,
		UserName:    userName,
		ScheduledAt: session.ScheduledAt,
		Refunded:    refunded,
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeyBookingCancelled, notification); err != nil {
		s.log.Error("failed to publish cancellation notification", sl.Err(err))
	}

	return &models.CancellationResult{
		Session:  session,
		Refunded: refunded,
		Account:  account,
	}, nil
}
