// Package services содержит каталог менторов с кешированием профилей.
// Кешируются только профили менторов: они меняются редко и безопасны
// для небольшого отставания, в отличие от кредитных балансов.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/mentorship-booking/internal/lib/sl"
	"github.com/magabrotheeeer/mentorship-booking/internal/models"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

const mentorCacheTTL = time.Hour

// MentorRepository определяет методы хранилища менторов.
type MentorRepository interface {
	ReadMentor(ctx context.Context, uid string) (*models.Mentor, error)
	ListActiveMentors(ctx context.Context) ([]*models.Mentor, error)
}

// Cache определяет методы кеширования.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// MentorService реализует каталог менторов поверх хранилища и кеша.
type MentorService struct {
	repo  MentorRepository
	cache Cache
	log   *slog.Logger
}

// NewMentorService создает новый экземпляр MentorService.
func NewMentorService(repo MentorRepository, cache Cache, log *slog.Logger) *MentorService {
	return &MentorService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetByUID возвращает профиль ментора, сначала из кеша, затем из хранилища.
// Неактивный ментор считается отсутствующим.
func (s *MentorService) GetByUID(ctx context.Context, uid string) (*models.Mentor, error) {
	const op = "services.mentor.GetByUID"
	cacheKey := fmt.Sprintf("mentor:%s", uid)

	var cached models.Mentor
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read mentor from cache", sl.Err(err))
	}
	if found {
		if !cached.IsActive {
			return nil, fmt.Errorf("%s: %w", op, repository.ErrMentorNotFound)
		}
		return &cached, nil
	}

	mentor, err := s.repo.ReadMentor(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !mentor.IsActive {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrMentorNotFound)
	}

	if err := s.cache.Set(cacheKey, mentor, mentorCacheTTL); err != nil {
		s.log.Warn("failed to cache mentor", sl.Err(err))
	}
	return mentor, nil
}

// List возвращает всех активных менторов.
func (s *MentorService) List(ctx context.Context) ([]*models.Mentor, error) {
	const op = "services.mentor.List"
	mentors, err := s.repo.ListActiveMentors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return mentors, nil
}
