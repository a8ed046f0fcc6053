package book

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/mentorship-booking/internal/http/middlewarectx"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	servicesbooking "github.com/magabrotheeeer/mentorship-booking/internal/services/booking"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

// MockService реализует интерфейс book.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Book(ctx context.Context, subscriberUID, email string,
	scheduledAt time.Time, req models.DummyBookingRequest) (*models.BookingResult, error) {
	args := m.Called(ctx, subscriberUID, email, scheduledAt, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingResult), args.Error(1)
}

func TestBookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validBody := `{"mentor_uid":"11111111-2222-3333-4444-555555555555",` +
		`"date":"04-03-2024","time":"12:00","duration_minutes":60,"user_name":"Иван"}`

	result := &models.BookingResult{
		Session: &models.Session{
			ID:          "sess-1",
			MentorUID:   "11111111-2222-3333-4444-555555555555",
			Status:      models.SessionStatusScheduled,
			MeetingLink: "https://meetings.example.com/m-1",
		},
		Account: &models.CreditAccount{
			SubscriberUID:    "sub-1",
			CreditsRemaining: 3,
			PaymentStatus:    models.PaymentStatusActive,
		},
	}

	tests := []struct {
		name           string
		body           string
		withUser       bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "успешное бронирование",
			body:     validBody,
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("Book", mock.Anything, "sub-1", "user@example.com",
					mock.AnythingOfType("time.Time"), mock.Anything).Return(result, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"credits_remaining":3`,
		},
		{
			name:           "некорректный json",
			body:           `{broken`,
			withUser:       true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name: "ошибка валидации",
			body: `{"mentor_uid":"not-a-uuid","date":"04-03-2024","time":"12:00",` +
				`"duration_minutes":60,"user_name":"Иван"}`,
			withUser:       true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field MentorUID can contain only uuid`,
		},
		{
			name: "некорректная дата",
			body: `{"mentor_uid":"11111111-2222-3333-4444-555555555555",` +
				`"date":"2024-03-04","time":"12:00","duration_minutes":60,"user_name":"Иван"}`,
			withUser:       true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid session date or time"`,
		},
		{
			name:           "пользователь не авторизован",
			body:           validBody,
			withUser:       false,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:     "нет кредитов",
			body:     validBody,
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("Book", mock.Anything, "sub-1", "user@example.com",
					mock.AnythingOfType("time.Time"), mock.Anything).
					Return(nil, &servicesbooking.EligibilityError{
						Account: &models.CreditAccount{
							SubscriberUID:    "sub-1",
							CreditsRemaining: 0,
							PaymentStatus:    models.PaymentStatusActive,
						},
						DaysUntilRenewal: 12,
					})
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"days_until_renewal":12`,
		},
		{
			name:     "ментор не найден",
			body:     validBody,
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("Book", mock.Anything, "sub-1", "user@example.com",
					mock.AnythingOfType("time.Time"), mock.Anything).
					Return(nil, repository.ErrMentorNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"mentor not found"`,
		},
		{
			name:     "конкурентное списание исчерпало баланс",
			body:     validBody,
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("Book", mock.Anything, "sub-1", "user@example.com",
					mock.AnythingOfType("time.Time"), mock.Anything).
					Return(nil, repository.ErrInsufficientCredits)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"no credits remaining this month"`,
		},
		{
			name:     "ошибка сервиса",
			body:     validBody,
			withUser: true,
			setupMock: func(m *MockService) {
				m.On("Book", mock.Anything, "sub-1", "user@example.com",
					mock.AnythingOfType("time.Time"), mock.Anything).
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not book session"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/mentorship/book", strings.NewReader(tt.body))
			if tt.withUser {
				ctx := context.WithValue(req.Context(), middlewarectx.User, "sub-1")
				ctx = context.WithValue(ctx, middlewarectx.Email, "user@example.com")
				req = req.WithContext(ctx)
			}

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}

func TestBookHandler_PassesParsedTime(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockService := new(MockService)

	wantTime, _ := time.Parse("02-01-2006 15:04", "04-03-2024 12:00")
	mockService.On("Book", mock.Anything, "sub-1", "user@example.com", wantTime, mock.Anything).
		Return(&models.BookingResult{
			Session: &models.Session{ID: "sess-1"},
			Account: &models.CreditAccount{CreditsRemaining: 3},
		}, nil)

	handler := New(logger, mockService)

	body := `{"mentor_uid":"11111111-2222-3333-4444-555555555555",` +
		`"date":"04-03-2024","time":"12:00","duration_minutes":60,"user_name":"Иван"}`
	req := httptest.NewRequest(http.MethodPost, "/mentorship/book", strings.NewReader(body))
	ctx := context.WithValue(req.Context(), middlewarectx.User, "sub-1")
	ctx = context.WithValue(ctx, middlewarectx.Email, "user@example.com")
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}
