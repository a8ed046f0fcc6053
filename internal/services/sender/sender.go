// Package services содержит отправку email-уведомлений о бронированиях.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/smtp"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
)

// SenderService отправляет письма подписчикам через SMTP-транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendBookingConfirmation отправляет подтверждение бронирования сессии.
func (s *SenderService) SendBookingConfirmation(body []byte) error {
	var message models.BookingNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("Failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	to := []string{message.Email}
	subject := "Подтверждение бронирования менторской сессии"
	bodyText := fmt.Sprintf(`Здравствуйте, %s!

Ваша сессия с ментором %s забронирована на %s (длительность %d минут).

Ссылка для подключения: %s

Осталось кредитов в этом месяце: %d.`,
		message.UserName, message.MentorName,
		message.ScheduledAt.Format("02.01.2006 15:04"),
		message.DurationMinutes, message.MeetingLink, message.CreditsRemaining)

	return s.sendEmail(to, subject, bodyText)
}

// SendCancellationEmail отправляет уведомление об отмене сессии.
func (s *SenderService) SendCancellationEmail(body []byte) error {
	var message models.CancellationNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("Failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	refundText := "Кредит за сессию возвращён на ваш баланс."
	if !message.Refunded {
		refundText = "Отмена произошла менее чем за 24 часа до начала, кредит не возвращается."
	}

	to := []string{message.Email}
	subject := "Отмена менторской сессии"
	bodyText := fmt.Sprintf(`Здравствуйте, %s!

Ваша сессия, назначенная на %s, отменена.

%s`,
		message.UserName, message.ScheduledAt.Format("02.01.2006 15:04"), refundText)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
