package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/mentorship-booking/internal/models"
)

// ReadMentor возвращает профиль ментора по его идентификатору.
func (s *Storage) ReadMentor(ctx context.Context, uid string) (*models.Mentor, error) {
	const op = "storage.ReadMentor"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, name, email, specialty, is_active FROM mentors WHERE uid = $1`
	row := s.DB.QueryRowContext(ctx, query, uid)

	var result models.Mentor
	err := row.Scan(&result.UID, &result.Name, &result.Email, &result.Specialty, &result.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrMentorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListActiveMentors возвращает менторов, доступных для бронирования.
func (s *Storage) ListActiveMentors(ctx context.Context) ([]*models.Mentor, error) {
	const op = "storage.ListActiveMentors"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, name, email, specialty, is_active
			  FROM mentors
			  WHERE is_active = true
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.Mentor
	for rows.Next() {
		var item models.Mentor
		if err := rows.Scan(&item.UID, &item.Name, &item.Email, &item.Specialty, &item.IsActive); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
