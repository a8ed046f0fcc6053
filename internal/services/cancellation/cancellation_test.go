package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/mentorship-booking/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

type LedgerMock struct{ mock.Mock }

func (m *LedgerMock) Refund(ctx context.Context, subscriberUID, sessionID, reason string) (*models.CreditAccount, bool, error) {
	args := m.Called(ctx, subscriberUID, sessionID, reason)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.CreditAccount), args.Bool(1), args.Error(2)
}

func (m *LedgerMock) GetAccount(ctx context.Context, subscriberUID string) (*models.CreditAccount, error) {
	args := m.Called(ctx, subscriberUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditAccount), args.Error(1)
}

type SessionsMock struct{ mock.Mock }

func (m *SessionsMock) ReadSessionForSubscriber(ctx context.Context, sessionID, subscriberUID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID, subscriberUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *SessionsMock) MarkSessionCancelled(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, message any) error {
	return m.Called(routingKey, message).Error(0)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCancellationService_Cancel(t *testing.T) {
	timeNow, _ := time.Parse("02-01-2006 15:04", "01-03-2024 12:00")

	subscriberUID := "sub-1"
	sessionID := "sess-1"
	account := &models.CreditAccount{
		SubscriberUID:    subscriberUID,
		Email:            "user@example.com",
		MonthlyQuota:     models.DefaultMonthlyQuota,
		CreditsUsed:      2,
		CreditsRemaining: 2,
		PaymentStatus:    models.PaymentStatusActive,
	}

	scheduledSession := func(startsIn time.Duration) *models.Session {
		return &models.Session{
			ID:            sessionID,
			MentorUID:     "mentor-1",
			SubscriberUID: subscriberUID,
			ScheduledAt:   timeNow.Add(startsIn),
			Status:        models.SessionStatusScheduled,
		}
	}

	tests := []struct {
		name         string
		setupMocks   func(ledger *LedgerMock, sessions *SessionsMock, publisher *PublisherMock)
		wantErr      error
		wantRefunded bool
	}{
		{
			name: "cancel more than 24h before start refunds credit",
			setupMocks: func(ledger *LedgerMock, sessions *SessionsMock, publisher *PublisherMock) {
				sessions.On("ReadSessionForSubscriber", mock.Anything, sessionID, subscriberUID).
					Return(scheduledSession(72*time.Hour), nil).Once()
				sessions.On("MarkSessionCancelled", mock.Anything, sessionID).Return(1, nil).Once()
				ledger.On("Refund", mock.Anything, subscriberUID, sessionID, "session cancelled in time").
					Return(account, true, nil).Once()
				publisher.On("Publish", rabbitmq.RoutingKeyBookingCancelled, mock.Anything).Return(nil).Once()
			},
			wantRefunded: true,
		},
		{
			name: "cancel exactly 24h before start still refunds",
			setupMocks: func(ledger *LedgerMock, sessions *SessionsMock, publisher *PublisherMock) {
				sessions.On("ReadSessionForSubscriber", mock.Anything, sessionID, subscriberUID).
					Return(scheduledSession(24*time.Hour), nil).Once()
				sessions.On("MarkSessionCancelled", mock.Anything, sessionID).Return(1, nil).Once()
				ledger.On("Refund", mock.Anything, subscriberUID, sessionID, "session cancelled in time").
					Return(account, true, nil).Once()
				publisher.On("Publish", rabbitmq.RoutingKeyBookingCancelled, mock.Anything).Return(nil).Once()
			},
			wantRefunded: true,
		},
		{
			name: "late cancel keeps credit consumed",
			setupMocks: func(ledger *LedgerMock, sessions *SessionsMock, publisher *PublisherMock) {
				sessions.On("ReadSessionForSubscriber", mock.Anything, sessionID, subscriberUID).
					Return(scheduledSession(23*time.Hour+59*time.Minute), nil).Once()
				sessions.On("MarkSessionCancelled", mock.Anything, sessionID).Return(1, nil).Once()
				ledger.On("GetAccount", mock.Anything, subscriberUID).Return(account, nil).Once()
				publisher.On("Publish", rabbitmq.RoutingKeyBookingCancelled, mock.Anything).Return(nil).Once()
			},
			wantRefunded: false,
		},
		{
			name: "session not found",
			setupMocks: func(ledger *LedgerMock, sessions *SessionsMock, publisher *PublisherMock) {
				sessions.On("ReadSessionForSubscriber", mock.Anything, sessionID, subscriberUID).
					Return(nil, repository.ErrSessionNotFound).Once()
			},
			wantErr: repository.ErrSessionNotFound,
		},
		{
			name: "already cancelled session",
			setupMocks: func(ledger *LedgerMock, sessions *SessionsMock, publisher *PublisherMock) {
				cancelled := scheduledSession(72 * time.Hour)
				cancelled.Status = models.SessionStatusCancelled
				sessions.On("ReadSessionForSubscriber", mock.Anything, sessionID, subscriberUID).
					Return(cancelled, nil).Once()
			},
			wantErr: repository.ErrSessionNotCancellable,
		},
		{
			name: "concurrent cancel lost the race",
			setupMocks: func(ledger *LedgerMock, sessions *SessionsMock, publisher *PublisherMock) {
				sessions.On("ReadSessionForSubscriber", mock.Anything, sessionID, subscriberUID).
					Return(scheduledSession(72*time.Hour), nil).Once()
				sessions.On("MarkSessionCancelled", mock.Anything, sessionID).Return(0, nil).Once()
			},
			wantErr: repository.ErrSessionNotCancellable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := new(LedgerMock)
			sessions := new(SessionsMock)
			publisher := new(PublisherMock)
			svc := NewCancellationService(ledger, sessions, publisher, NewNoopLogger())
			svc.now = func() time.Time { return timeNow }

			tt.setupMocks(ledger, sessions, publisher)

			got, err := svc.Cancel(context.Background(), subscriberUID, sessionID, "Иван")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantRefunded, got.Refunded)
				assert.Equal(t, models.SessionStatusCancelled, got.Session.Status)
			}

			ledger.AssertExpectations(t)
			sessions.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}
