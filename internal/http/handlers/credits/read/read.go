// Package read реализует HTTP-обработчик просмотра кредитного баланса подписчика.
//
// Handler извлекает uid подписчика из контекста, проверяет его право на
// бронирование и возвращает баланс, статус оплаты и последние записи журнала.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/mentorship-booking/internal/http/middlewarectx"
	"github.com/magabrotheeeer/mentorship-booking/internal/http/response"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

// Handler обрабатывает HTTP-запросы на чтение кредитного баланса.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис кредитного журнала
}

// Service описывает интерфейс кредитного журнала для чтения баланса.
type Service interface {
	CheckEligibility(ctx context.Context, subscriberUID string) (*models.Eligibility, error)
	Transactions(ctx context.Context, subscriberUID string, limit int) ([]*models.CreditTransaction, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить кредитный баланс
// @Description Возвращает баланс кредитов, статус оплаты, дни до продления и последние записи журнала.
// @Tags Mentorship
// @Accept  json
// @Produce  json
// @Param limit query int false "Количество записей журнала (по умолчанию 20)"
// @Success 200 {object} response.OKResponse "Баланс кредитов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Аккаунт не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /mentorship/credits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credits.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subscriberUID, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || subscriberUID == "" {
		log.Error("subscriber uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	eligibility, err := h.service.CheckEligibility(r.Context(), subscriberUID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			log.Error("credit account not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("credit account not found"))
			return
		}
		log.Error("failed to read credit balance", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read credit balance"))
		return
	}

	transactions, err := h.service.Transactions(r.Context(), subscriberUID, limit)
	if err != nil {
		log.Error("failed to read credit transactions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read credit balance"))
		return
	}

	log.Info("success to read credit balance", slog.String("subscriber_uid", subscriberUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"eligibility":  eligibility,
		"transactions": transactions,
	}))
}
