// Package status реализует webhook платёжного провайдера.
//
// Handler проверяет HMAC-подпись запроса, валидирует полезную нагрузку
// и применяет событие оплаты к кредитному аккаунту подписчика.
package status

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/mentorship-booking/internal/http/response"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
)

// Service описывает интерфейс применения платёжного события к аккаунту.
type Service interface {
	ProcessPaymentEvent(ctx context.Context, event, subscriberUID, email string) (*models.CreditAccount, error)
}

// Handler обрабатывает webhook платёжного провайдера.
type Handler struct {
	log           *slog.Logger // Логгер для записи информации и ошибок
	service       Service
	webhookSecret string // Секрет для проверки подписи
	validate      *validator.Validate
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
		validate:      validator.New(),
	}
}

// Проверка подписи webhook (X-Api-Signature)
func (h *Handler) verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Webhook платёжного провайдера
// @Description Принимает события оплаты и обновляет статус кредитного аккаунта подписчика.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body models.DummyStatusUpdate true "Событие оплаты"
// @Success 200 {object} response.OKResponse "Событие обработано"
// @Failure 400 {object} response.ErrorResponse "Некорректная полезная нагрузка"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки события"
// @Router /payments/status [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.status"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	defer r.Body.Close()

	// Проверка подписи (в заголовке X-Api-Signature)
	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(h.webhookSecret, body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var payload models.DummyStatusUpdate
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payload"))
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	acc, err := h.service.ProcessPaymentEvent(r.Context(),
		strings.ToLower(payload.Event), payload.SubscriberUID, payload.Email)
	if err != nil {
		log.Error("failed to process payment event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process payment event"))
		return
	}

	log.Info("webhook processed successfully",
		slog.String("event", payload.Event),
		slog.String("subscriber_uid", payload.SubscriberUID))
	render.JSON(w, r, response.OKWithData(acc))
}
