// Package mentorshipbooking предоставляет маршруты для основного приложения.
package mentorshipbooking

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/mentorship-booking/internal/http/handlers/booking/book"
	"github.com/magabrotheeeer/mentorship-booking/internal/http/handlers/booking/cancel"
	creditsread "github.com/magabrotheeeer/mentorship-booking/internal/http/handlers/credits/read"
	"github.com/magabrotheeeer/mentorship-booking/internal/http/handlers/health"
	mentorslist "github.com/magabrotheeeer/mentorship-booking/internal/http/handlers/mentors/list"
	paymentstatus "github.com/magabrotheeeer/mentorship-booking/internal/http/handlers/payment/status"
	"github.com/magabrotheeeer/mentorship-booking/internal/http/middlewarectx"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/jwt"
	bookingservice "github.com/magabrotheeeer/mentorship-booking/internal/services/booking"
	cancellationservice "github.com/magabrotheeeer/mentorship-booking/internal/services/cancellation"
	ledgerservice "github.com/magabrotheeeer/mentorship-booking/internal/services/ledger"
	mentorservice "github.com/magabrotheeeer/mentorship-booking/internal/services/mentor"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, webhookSecret string,
	ledger *ledgerservice.LedgerService, booking *bookingservice.BookingService,
	cancellation *cancellationservice.CancellationService, mentors *mentorservice.MentorService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/mentorship/book", book.New(logger, booking).ServeHTTP)
			r.Delete("/mentorship/book/{sessionId}", cancel.New(logger, cancellation).ServeHTTP)
			r.Get("/mentorship/credits", creditsread.New(logger, ledger).ServeHTTP)
			r.Get("/mentorship/mentors", mentorslist.New(logger, mentors).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/payments/status", paymentstatus.New(logger, ledger, webhookSecret).ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
