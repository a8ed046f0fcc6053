// Package book реализует HTTP-обработчик бронирования менторской сессии.
//
// Handler принимает JSON-запрос с данными бронирования, валидирует их,
// извлекает uid подписчика из контекста, вызывает оркестратор бронирования
// и возвращает созданную сессию вместе с состоянием кредитного баланса.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package book

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/mentorship-booking/internal/http/middlewarectx"
	"github.com/magabrotheeeer/mentorship-booking/internal/http/response"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	servicesbooking "github.com/magabrotheeeer/mentorship-booking/internal/services/booking"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

// Handler управляет HTTP-запросами на бронирование сессий.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Оркестратор бронирования
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики бронирования.
type Service interface {
	Book(ctx context.Context, subscriberUID, email string, scheduledAt time.Time, req models.DummyBookingRequest) (*models.BookingResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Забронировать менторскую сессию
// @Description Списывает один кредит и создает сессию с выбранным ментором. Возвращает сессию и остаток кредитов.
// @Tags Mentorship
// @Accept  json
// @Produce  json
// @Param request body models.DummyBookingRequest true "Данные бронирования"
// @Success 201 {object} response.OKResponse "Сессия забронирована"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или дата"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нет кредитов или оплата не активна"
// @Failure 404 {object} response.ErrorResponse "Ментор не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при бронировании"
// @Router /mentorship/book [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.booking.book"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	scheduledAt, err := time.Parse("02-01-2006 15:04", req.Date+" "+req.Time)
	if err != nil {
		log.Error("invalid session date or time", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid session date or time"))
		return
	}

	subscriberUID, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || subscriberUID == "" {
		log.Error("subscriber uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	email, _ := r.Context().Value(middlewarectx.Email).(string)

	result, err := h.service.Book(r.Context(), subscriberUID, email, scheduledAt, req)
	if err != nil {
		h.renderBookError(w, r, log, err)
		return
	}

	log.Info("success to book session", slog.String("session_id", result.Session.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(result))
}

func (h *Handler) renderBookError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var eligErr *servicesbooking.EligibilityError
	switch {
	case errors.As(err, &eligErr):
		log.Error("booking refused", sl.Err(err))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.ErrorWithData(eligErr.Error(), map[string]any{
			"credits_remaining":  eligErr.Account.CreditsRemaining,
			"payment_status":     eligErr.Account.PaymentStatus,
			"days_until_renewal": eligErr.DaysUntilRenewal,
		}))
	case errors.Is(err, repository.ErrInsufficientCredits):
		log.Error("booking refused", sl.Err(err))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("no credits remaining this month"))
	case errors.Is(err, repository.ErrPaymentInactive):
		log.Error("booking refused", sl.Err(err))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("payment is not active"))
	case errors.Is(err, repository.ErrMentorNotFound):
		log.Error("mentor not found", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("mentor not found"))
	case errors.Is(err, repository.ErrAccountNotFound):
		log.Error("credit account not found", sl.Err(err))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("no credit account for subscriber"))
	default:
		log.Error("failed to book session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not book session"))
	}
}
