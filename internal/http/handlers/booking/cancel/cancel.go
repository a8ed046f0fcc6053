// Package cancel реализует HTTP-обработчик отмены менторской сессии.
//
// Handler извлекает ID сессии из URL-параметров, вызывает бизнес-логику отмены
// через сервис и возвращает итог: отменённую сессию, факт возврата кредита
// и состояние баланса.
//
// В случае ошибок формирует соответствующие HTTP-ответы с описанием проблемы.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/mentorship-booking/internal/http/middlewarectx"
	"github.com/magabrotheeeer/mentorship-booking/internal/http/response"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на отмену сессии по идентификатору.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики отмены
}

// Service описывает интерфейс бизнес-логики отмены сессии.
type Service interface {
	Cancel(ctx context.Context, subscriberUID, sessionID, userName string) (*models.CancellationResult, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить менторскую сессию
// @Description Отменяет сессию подписчика. Кредит возвращается только при отмене за 24 часа и более до начала.
// @Tags Mentorship
// @Accept  json
// @Produce  json
// @Param sessionId path string true "ID сессии"
// @Success 200 {object} response.OKResponse "Сессия отменена"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID сессии"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 409 {object} response.ErrorResponse "Сессия уже отменена или завершена"
// @Failure 500 {object} response.ErrorResponse "Ошибка при отмене"
// @Router /mentorship/book/{sessionId} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.booking.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessionID := chi.URLParam(r, "sessionId")
	if _, err := uuid.Parse(sessionID); err != nil {
		log.Error("invalid session id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid session id"))
		return
	}

	subscriberUID, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || subscriberUID == "" {
		log.Error("subscriber uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	userName := r.URL.Query().Get("user_name")

	result, err := h.service.Cancel(r.Context(), subscriberUID, sessionID, userName)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			log.Error("session not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("session not found"))
		case errors.Is(err, repository.ErrSessionNotCancellable):
			log.Error("session is not cancellable", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("session is already cancelled or completed"))
		default:
			log.Error("failed to cancel session", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not cancel session"))
		}
		return
	}

	log.Info("success to cancel session",
		slog.String("session_id", sessionID),
		slog.Bool("refunded", result.Refunded))
	render.JSON(w, r, response.OKWithData(result))
}
