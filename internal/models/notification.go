// Package models содержит структуры сообщений для очереди уведомлений.
package models

import "time"

// BookingNotification сообщение о подтверждённом бронировании,
// публикуется в RabbitMQ и потребляется сервисом отправки писем.
type BookingNotification struct {
	Email            string    `json:"email"`
	UserName         string    `json:"user_name"`
	MentorName       string    `json:"mentor_name"`
	ScheduledAt      time.Time `json:"scheduled_at"`
	DurationMinutes  int       `json:"duration_minutes"`
	MeetingLink      string    `json:"meeting_link"`
	CreditsRemaining int       `json:"credits_remaining"`
}

// CancellationNotification сообщение об отмене сессии.
type CancellationNotification struct {
	Email       string    `json:"email"`
	UserName    string    `json:"user_name"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Refunded    bool      `json:"refunded"`
}
