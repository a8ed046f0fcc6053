// Package models содержит доменную модель менторской сессии
// и DTO для HTTP-запросов бронирования и отмены.
package models

import "time"

// Статусы сессии. Переходы: scheduled -> in_progress -> completed (нормальный путь)
// или scheduled -> cancelled. Статусы cancelled и completed терминальные.
const (
	SessionStatusScheduled  = "scheduled"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusCancelled  = "cancelled"
)

// Session представляет забронированную менторскую сессию.
// Создаётся только после того, как кредит предварительно проверен;
// удаляется только при откате неудавшегося бронирования.
type Session struct {
	ID              string    `json:"id"`
	MentorUID       string    `json:"mentor_uid"`
	SubscriberUID   string    `json:"subscriber_uid"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	MeetingLink     string    `json:"meeting_link"`
	CreatedAt       time.Time `json:"created_at"`
}

// DummyBookingRequest используется для приёма данных бронирования из JSON-запроса,
// прежде чем конвертировать их в Session. Дата и время приходят строками,
// чтобы их можно было валидировать и парсить вручную.
type DummyBookingRequest struct {
	MentorUID       string `json:"mentor_uid" validate:"required,uuid"`      // Идентификатор ментора
	Date            string `json:"date" validate:"required"`                 // Дата сессии в формате 02-01-2006
	Time            string `json:"time" validate:"required"`                 // Время сессии в формате 15:04
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0,lte=120"`
	UserName        string `json:"user_name" validate:"required"`            // Имя подписчика для письма и темы встречи
}

// BookingResult итог успешного бронирования: созданная сессия
// и состояние аккаунта после списания кредита.
type BookingResult struct {
	Session *Session       `json:"session"`
	Account *CreditAccount `json:"credits"`
}

// CancellationResult итог отмены сессии. Refunded=false внутри 24-часового
// окна не является ошибкой: отмена прошла, кредит удержан.
type CancellationResult struct {
	Session  *Session       `json:"session"`
	Refunded bool           `json:"refunded"`
	Account  *CreditAccount `json:"credits"`
}
