// Package list реализует HTTP-обработчик получения каталога активных менторов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/mentorship-booking/internal/http/response"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
)

// Handler обрабатывает HTTP-запросы на получение списка менторов.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Каталог менторов
}

// Service описывает интерфейс каталога менторов.
type Service interface {
	List(ctx context.Context) ([]*models.Mentor, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить список активных менторов
// @Description Возвращает всех менторов, доступных для бронирования.
// @Tags Mentorship
// @Accept  json
// @Produce  json
// @Success 200 {object} response.OKResponse "Список менторов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /mentorship/mentors [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.mentors.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	mentors, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list mentors", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list mentors"))
		return
	}

	log.Info("success to list mentors", slog.Int("count", len(mentors)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"mentors": mentors,
	}))
}
