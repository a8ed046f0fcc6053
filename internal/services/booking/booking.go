// Package services содержит оркестратор бронирования менторских сессий.
//
// Бронирование держит согласованными три независимых эффекта: встречу у
// внешнего провайдера, запись сессии и списание кредита. Порядок шагов
// фиксированный, отказ позднего шага компенсирует уже выполненные ранние.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/mentorship-booking/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/meetingprovider"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

// Ledger описывает операции кредитного журнала, нужные оркестратору.
type Ledger interface {
	// CheckEligibility оптимистичная предварительная проверка: быстрый отказ
	// без побочных эффектов бронирования.
	CheckEligibility(ctx context.Context, subscriberUID string) (*models.Eligibility, error)
	// ReserveAndConsume авторитетное списание кредита.
	ReserveAndConsume(ctx context.Context, subscriberUID, sessionID string) (*models.CreditAccount, error)
}

// MentorDirectory описывает каталог менторов.
type MentorDirectory interface {
	GetByUID(ctx context.Context, uid string) (*models.Mentor, error)
}

// SessionRepository определяет методы хранилища сессий для бронирования.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.Session) error
	RemoveSession(ctx context.Context, id string) (int, error)
}

// MeetingProvider описывает внешний сервис видеовстреч.
type MeetingProvider interface {
	CreateMeeting(ctx context.Context, req meetingprovider.CreateMeetingRequest) (*meetingprovider.CreateMeetingResponse, error)
}

// NotificationPublisher публикует уведомления в очередь.
type NotificationPublisher interface {
	Publish(routingKey string, message any) error
}

// EligibilityError типизированная ошибка предварительной проверки:
// несёт состояние аккаунта, чтобы обработчик мог объяснить отказ клиенту.
type EligibilityError struct {
	Account          *models.CreditAccount
	DaysUntilRenewal int
	err              error
}

func (e *EligibilityError) Error() string {
	return e.err.Error()
}

func (e *EligibilityError) Unwrap() error {
	return e.err
}

// BookingService реализует транзакционное ядро бронирования.
type BookingService struct {
	ledger    Ledger
	mentors   MentorDirectory
	sessions  SessionRepository
	meetings  MeetingProvider
	publisher NotificationPublisher
	hostEmail string
	log       *slog.Logger
	now       func() time.Time
}

// NewBookingService создает новый экземпляр BookingService.
func NewBookingService(ledger Ledger, mentors MentorDirectory, sessions SessionRepository,
	meetings MeetingProvider, publisher NotificationPublisher, hostEmail string, log *slog.Logger) *BookingService {
	return &BookingService{
		ledger:    ledger,
		mentors:   mentors,
		sessions:  sessions,
		meetings:  meetings,
		publisher: publisher,
		hostEmail: hostEmail,
		log:       log,
		now:       time.Now,
	}
}

// Book бронирует менторскую сессию для подписчика.
//
// Шаги: предварительная проверка кредитов, поиск ментора, создание встречи
// у провайдера (с запасной ссылкой при отказе), запись сессии и авторитетное
// списание кредита. Если списание не удалось — например, конкурентный запрос
// успел исчерпать баланс между шагами — созданная запись сессии удаляется
// и бронирование откатывается целиком.
func (s *BookingService) Book(ctx context.Context, subscriberUID, email string,
	scheduledAt time.Time, req models.DummyBookingRequest) (*models.BookingResult, error) {
	const op = "services.booking.Book"

	if !scheduledAt.After(s.now()) {
		return nil, fmt.Errorf("%s: session must be scheduled in the future", op)
	}

	eligibility, err := s.ledger.CheckEligibility(ctx, subscriberUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !eligibility.Eligible {
		sentinel := repository.ErrInsufficientCredits
		if eligibility.Account.PaymentStatus != models.PaymentStatusActive {
			sentinel = repository.ErrPaymentInactive
		}
		return nil, &EligibilityError{
			Account:          eligibility.Account,
			DaysUntilRenewal: eligibility.DaysUntilRenewal,
			err:              sentinel,
		}
	}

	mentor, err := s.mentors.GetByUID(ctx, req.MentorUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !mentor.IsActive {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrMentorNotFound)
	}

	sessionID := uuid.New().String()
	meetingLink := s.resolveMeetingLink(ctx, sessionID, mentor, email, scheduledAt, req)

	session := models.Session{
		ID:              sessionID,
		MentorUID:       mentor.UID,
		SubscriberUID:   subscriberUID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          models.SessionStatusScheduled,
		MeetingLink:     meetingLink,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.ledger.ReserveAndConsume(ctx, subscriberUID, sessionID)
	if err != nil {
		// Компенсация: сессия без списанного кредита существовать не должна.
		if _, removeErr := s.sessions.RemoveSession(ctx, sessionID); removeErr != nil {
			s.log.Error("failed to roll back session after consume failure",
				slog.String("session_id", sessionID), sl.Err(removeErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("booked mentorship session",
		slog.String("session_id", sessionID),
		slog.String("subscriber_uid", subscriberUID),
		slog.String("mentor_uid", mentor.UID),
		slog.Int("credits_remaining", account.CreditsRemaining))

	notification := models.BookingNotification{
		Email:            email,
		UserName:         req.UserName,
		MentorName:       mentor.Name,
		ScheduledAt:      scheduledAt,
		DurationMinutes:  req.DurationMinutes,
		MeetingLink:      meetingLink,
		CreditsRemaining: account.CreditsRemaining,
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeyBookingConfirmed, notification); err != nil {
		s.log.Error("failed to publish booking notification", sl.Err(err))
	}

	return &models.BookingResult{
		Session: &session,
		Account: account,
	}, nil
}

// resolveMeetingLink запрашивает встречу у провайдера; при его отказе или
// таймауте возвращает запасную ссылку. Бронирование важнее ссылки:
// она исправляется потом, недоступность провайдера бронь не блокирует.
func (s *BookingService) resolveMeetingLink(ctx context.Context, sessionID string,
	mentor *models.Mentor, attendeeEmail string, scheduledAt time.Time, req models.DummyBookingRequest) string {
	meeting, err := s.meetings.CreateMeeting(ctx, meetingprovider.CreateMeetingRequest{
		Topic:           fmt.Sprintf("Mentorship session: %s x %s", mentor.Name, req.UserName),
		StartTime:       scheduledAt,
		DurationMinutes: req.DurationMinutes,
		HostEmail:       s.hostEmail,
		AttendeeEmail:   attendeeEmail,
		AttendeeName:    req.UserName,
	})
	if err != nil {
		s.log.Warn("meeting provider failed, using fallback link",
			slog.String("session_id", sessionID), sl.Err(err))
		return fallbackMeetingLink(sessionID)
	}
	return meeting.JoinURL
}

func fallbackMeetingLink(sessionID string) string {
	return "https://meet.jit.si/mentorship-" + sessionID
}
