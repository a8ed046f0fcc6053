package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/mentorship-booking/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/mentorship-booking/internal/meetingprovider"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

type LedgerMock struct{ mock.Mock }

func (m *LedgerMock) CheckEligibility(ctx context.Context, subscriberUID string) (*models.Eligibility, error) {
	args := m.Called(ctx, subscriberUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Eligibility), args.Error(1)
}

func (m *LedgerMock) ReserveAndConsume(ctx context.Context, subscriberUID, sessionID string) (*models.CreditAccount, error) {
	args := m.Called(ctx, subscriberUID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditAccount), args.Error(1)
}

type MentorsMock struct{ mock.Mock }

func (m *MentorsMock) GetByUID(ctx context.Context, uid string) (*models.Mentor, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mentor), args.Error(1)
}

type SessionsMock struct{ mock.Mock }

func (m *SessionsMock) CreateSession(ctx context.Context, session models.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *SessionsMock) RemoveSession(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

type MeetingsMock struct{ mock.Mock }

func (m *MeetingsMock) CreateMeeting(ctx context.Context, req meetingprovider.CreateMeetingRequest) (*meetingprovider.CreateMeetingResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meetingprovider.CreateMeetingResponse), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, message any) error {
	return m.Called(routingKey, message).Error(0)
}

func NewNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestBookingService_Book(t *testing.T) {
	timeNow, _ := time.Parse("02-01-2006 15:04", "01-03-2024 12:00")
	scheduledAt := timeNow.Add(72 * time.Hour)

	subscriberUID := "sub-1"
	email := "user@example.com"
	mentorUID := "mentor-1"
	req := models.DummyBookingRequest{
		MentorUID:       mentorUID,
		Date:            "04-03-2024",
		Time:            "12:00",
		DurationMinutes: 60,
		UserName:        "Иван",
	}
	mentor := &models.Mentor{
		UID:       mentorUID,
		Name:      "Анна Ментор",
		Email:     "mentor@example.com",
		Specialty: "Go",
		IsActive:  true,
	}
	eligibleAccount := &models.CreditAccount{
		SubscriberUID:    subscriberUID,
		MonthlyQuota:     models.DefaultMonthlyQuota,
		CreditsUsed:      1,
		CreditsRemaining: 3,
		PaymentStatus:    models.PaymentStatusActive,
	}
	consumedAccount := &models.CreditAccount{
		SubscriberUID:    subscriberUID,
		MonthlyQuota:     models.DefaultMonthlyQuota,
		CreditsUsed:      2,
		CreditsRemaining: 2,
		PaymentStatus:    models.PaymentStatusActive,
	}

	anySession := mock.MatchedBy(func(s models.Session) bool {
		return s.MentorUID == mentorUID &&
			s.SubscriberUID == subscriberUID &&
			s.Status == models.SessionStatusScheduled &&
			s.ScheduledAt.Equal(scheduledAt)
	})

	tests := []struct {
		name       string
		setupMocks func(ledger *LedgerMock, mentors *MentorsMock, sessions *SessionsMock,
			meetings *MeetingsMock, publisher *PublisherMock)
		scheduledAt  time.Time
		wantErr      error
		wantFallback bool
	}{
		{
			name: "success booking",
			setupMocks: func(ledger *LedgerMock, mentors *MentorsMock, sessions *SessionsMock,
				meetings *MeetingsMock, publisher *PublisherMock) {
				ledger.On("CheckEligibility", mock.Anything, subscriberUID).
					Return(&models.Eligibility{Eligible: true, Account: eligibleAccount}, nil).Once()
				mentors.On("GetByUID", mock.Anything, mentorUID).Return(mentor, nil).Once()
				meetings.On("CreateMeeting", mock.Anything, mock.Anything).
					Return(&meetingprovider.CreateMeetingResponse{
						MeetingID: "m-1",
						JoinURL:   "https://meetings.example.com/m-1",
					}, nil).Once()
				sessions.On("CreateSession", mock.Anything, anySession).Return(nil).Once()
				ledger.On("ReserveAndConsume", mock.Anything, subscriberUID, mock.AnythingOfType("string")).
					Return(consumedAccount, nil).Once()
				publisher.On("Publish", rabbitmq.RoutingKeyBookingConfirmed, mock.Anything).Return(nil).Once()
			},
			scheduledAt: scheduledAt,
		},
		{
			name: "insufficient credits",
			setupMocks: func(ledger *LedgerMock, mentors *MentorsMock, sessions *SessionsMock,
				meetings *MeetingsMock, publisher *PublisherMock) {
				ledger.On("CheckEligibility", mock.Anything, subscriberUID).
					Return(&models.Eligibility{
						Eligible: false,
						Reason:   "no credits remaining this month",
						Account: &models.CreditAccount{
							SubscriberUID:    subscriberUID,
							CreditsRemaining: 0,
							PaymentStatus:    models.PaymentStatusActive,
						},
					}, nil).Once()
			},
			scheduledAt: scheduledAt,
			wantErr:     repository.ErrInsufficientCredits,
		},
		{
			name: "payment inactive",
			setupMocks: func(ledger *LedgerMock, mentors *MentorsMock, sessions *SessionsMock,
				meetings *MeetingsMock, publisher *PublisherMock) {
				ledger.On("CheckEligibility", mock.Anything, subscriberUID).
					Return(&models.Eligibility{
						Eligible: false,
						Reason:   "payment is not active",
						Account: &models.CreditAccount{
							SubscriberUID:    subscriberUID,
							CreditsRemaining: 2,
							PaymentStatus:    models.PaymentStatusInactive,
						},
					}, nil).Once()
			},
			scheduledAt: scheduledAt,
			wantErr:     repository.ErrPaymentInactive,
		},
		{
			name: "mentor not found",
			setupMocks: func(ledger *LedgerMock, mentors *MentorsMock, sessions *SessionsMock,
				meetings *MeetingsMock, publisher *PublisherMock) {
				ledger.On("CheckEligibility", mock.Anything, subscriberUID).
					Return(&models.Eligibility{Eligible: true, Account: eligibleAccount}, nil).Once()
				mentors.On("GetByUID", mock.Anything, mentorUID).
					Return(nil, repository.ErrMentorNotFound).Once()
			},
			scheduledAt: scheduledAt,
			wantErr:     repository.ErrMentorNotFound,
		},
		{
			name: "inactive mentor rejected",
			setupMocks: func(ledger *LedgerMock, mentors *MentorsMock, sessions *SessionsMock,
				meetings *MeetingsMock, publisher *PublisherMock) {
				ledger.On("CheckEligibility", mock.Anything, subscriberUID).
					Return(&models.Eligibility{Eligible: true, Account: eligibleAccount}, nil).Once()
				mentors.On("GetByUID", mock.Anything, mentorUID).
					Return(&models.Mentor{UID: mentorUID, Name: "Анна", IsActive: false}, nil).Once()
			},
			scheduledAt: scheduledAt,
			wantErr:     repository.ErrMentorNotFound,
		},
		{
			name: "meeting provider failure falls back to placeholder link",
			setupMocks: func(ledger *LedgerMock, mentors *MentorsMock, sessions *SessionsMock,
				meetings *MeetingsMock, publisher *PublisherMock) {
				ledger.On("CheckEligibility", mock.Anything, subscriberUID).
					Return(&models.Eligibility{Eligible: true, Account: eligibleAccount}, nil).Once()
				mentors.On("GetByUID", mock.Anything, mentorUID).Return(mentor, nil).Once()
				meetings.On("CreateMeeting", mock.Anything, mock.Anything).
					Return(nil, errors.New("provider timeout")).Once()
				sessions.On("CreateSession", mock.Anything, anySession).Return(nil).Once()
				ledger.On("ReserveAndConsume", mock.Anything, subscriberUID, mock.AnythingOfType("string")).
					Return(consumedAccount, nil).Once()
				publisher.On("Publish", rabbitmq.RoutingKeyBookingConfirmed, mock.Anything).Return(nil).Once()
			},
			scheduledAt:  scheduledAt,
			wantFallback: true,
		},
		{
			name: "consume failure rolls back session",
			setupMocks: func(ledger *LedgerMock, mentors *MentorsMock, sessions *SessionsMock,
				meetings *MeetingsMock, publisher *PublisherMock) {
				ledger.On("CheckEligibility", mock.Anything, subscriberUID).
					Return(&models.Eligibility{Eligible: true, Account: eligibleAccount}, nil).Once()
				mentors.On("GetByUID", mock.Anything, mentorUID).Return(mentor, nil).Once()
				meetings.On("CreateMeeting", mock.Anything, mock.Anything).
					Return(&meetingprovider.CreateMeetingResponse{JoinURL: "https://meetings.example.com/m-2"}, nil).Once()
				sessions.On("CreateSession", mock.Anything, anySession).Return(nil).Once()
				ledger.On("ReserveAndConsume", mock.Anything, subscriberUID, mock.AnythingOfType("string")).
					Return(nil, repository.ErrInsufficientCredits).Once()
				sessions.On("RemoveSession", mock.Anything, mock.AnythingOfType("string")).Return(1, nil).Once()
			},
			scheduledAt: scheduledAt,
			wantErr:     repository.ErrInsufficientCredits,
		},
		{
			name: "session in the past rejected",
			setupMocks: func(ledger *LedgerMock, mentors *MentorsMock, sessions *SessionsMock,
				meetings *MeetingsMock, publisher *PublisherMock) {
			},
			scheduledAt: timeNow.Add(-time.Hour),
			wantErr:     nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := new(LedgerMock)
			mentors := new(MentorsMock)
			sessions := new(SessionsMock)
			meetings := new(MeetingsMock)
			publisher := new(PublisherMock)
			svc := NewBookingService(ledger, mentors, sessions, meetings, publisher,
				"host@example.com", NewNoopLogger())
			svc.now = func() time.Time { return timeNow }

			tt.setupMocks(ledger, mentors, sessions, meetings, publisher)

			got, err := svc.Book(context.Background(), subscriberUID, email, tt.scheduledAt, req)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			case tt.scheduledAt.Before(timeNow):
				assert.Error(t, err)
				assert.Nil(t, got)
			default:
				assert.NoError(t, err)
				assert.NotNil(t, got)
				assert.Equal(t, consumedAccount.CreditsRemaining, got.Account.CreditsRemaining)
				assert.Equal(t, models.SessionStatusScheduled, got.Session.Status)
				if tt.wantFallback {
					assert.Equal(t, fallbackMeetingLink(got.Session.ID), got.Session.MeetingLink)
				} else {
					assert.Equal(t, "https://meetings.example.com/m-1", got.Session.MeetingLink)
				}
			}

			ledger.AssertExpectations(t)
			mentors.AssertExpectations(t)
			sessions.AssertExpectations(t)
			meetings.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestBookingService_Book_EligibilityErrorCarriesAccount(t *testing.T) {
	ledger := new(LedgerMock)
	mentors := new(MentorsMock)
	sessions := new(SessionsMock)
	meetings := new(MeetingsMock)
	publisher := new(PublisherMock)
	svc := NewBookingService(ledger, mentors, sessions, meetings, publisher,
		"host@example.com", NewNoopLogger())

	account := &models.CreditAccount{
		SubscriberUID:    "sub-1",
		CreditsRemaining: 0,
		PaymentStatus:    models.PaymentStatusActive,
	}
	ledger.On("CheckEligibility", mock.Anything, "sub-1").
		Return(&models.Eligibility{Eligible: false, Account: account, DaysUntilRenewal: 12}, nil).Once()

	_, err := svc.Book(context.Background(), "sub-1", "user@example.com",
		time.Now().Add(48*time.Hour), models.DummyBookingRequest{MentorUID: "mentor-1"})

	var eligErr *EligibilityError
	assert.ErrorAs(t, err, &eligErr)
	assert.Equal(t, account, eligErr.Account)
	assert.Equal(t, 12, eligErr.DaysUntilRenewal)
	ledger.AssertExpectations(t)
}
