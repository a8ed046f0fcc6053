package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/mentorship-booking/internal/models"
)

// CreateSession вставляет запись сессии со статусом scheduled.
func (s *Storage) CreateSession(ctx context.Context, session models.Session) error {
	const op = "storage.CreateSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO sessions (id, mentor_uid, subscriber_uid, scheduled_at,
			      duration_minutes, status, meeting_link)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.DB.ExecContext(ctx, query,
		session.ID, session.MentorUID, session.SubscriberUID, session.ScheduledAt,
		session.DurationMinutes, session.Status, session.MeetingLink)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveSession удаляет сессию по ID и возвращает количество удалённых строк.
// Используется только компенсацией неудавшегося бронирования — нормальный
// жизненный цикл сессию не удаляет.
func (s *Storage) RemoveSession(ctx context.Context, id string) (int, error) {
	const op = "storage.RemoveSession"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM sessions WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ReadSessionForSubscriber возвращает сессию по ID, если она принадлежит подписчику.
// Чужая или отсутствующая сессия неразличимы для вызывающего — ErrSessionNotFound.
func (s *Storage) ReadSessionForSubscriber(ctx context.Context, id, subscriberUID string) (*models.Session, error) {
	const op = "storage.ReadSessionForSubscriber"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, mentor_uid, subscriber_uid, scheduled_at, duration_minutes,
			      status, meeting_link, created_at
			  FROM sessions WHERE id = $1 AND subscriber_uid = $2`
	row := s.DB.QueryRowContext(ctx, query, id, subscriberUID)

	var result models.Session
	err := row.Scan(&result.ID, &result.MentorUID, &result.SubscriberUID, &result.ScheduledAt,
		&result.DurationMinutes, &result.Status, &result.MeetingLink, &result.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// MarkSessionCancelled переводит сессию из scheduled в cancelled.
// Guard по статусу защищает от гонки двух отмен: вторая увидит 0 строк.
func (s *Storage) MarkSessionCancelled(ctx context.Context, id string) (int, error) {
	const op = "storage.MarkSessionCancelled"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE sessions SET status = $1 WHERE id = $2 AND status = $3`
	result, err := s.DB.ExecContext(ctx, query,
		models.SessionStatusCancelled, id, models.SessionStatusScheduled)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
