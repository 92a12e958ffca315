package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository"
)

type ProfileService struct {
	profiles repository.ProfileStore
	users    repository.UserDirectory
	now      func() time.Time
}

func NewProfileService(profiles repository.ProfileStore, users repository.UserDirectory, now func() time.Time) *ProfileService {
	if now == nil {
		now = time.Now
	}
	return &ProfileService{profiles: profiles, users: users, now: now}
}

// GetProfile возвращает профиль; если профиль не заведен, собирает
// минимальный из справочника.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	userID = strings.TrimSpace(userID)

	p, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case err == nil:
		return p, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("profiles.GetProfile: %w", err)
	}

	u, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrUserNotFound)
	}
	return &domain.Profile{
		UserID:      u.ID,
		DisplayName: u.Name,
		AvatarURL:   u.AvatarURL,
		Interests:   []string{},
	}, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.Profile, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(patch, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.profiles.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("profiles.UpsertProfile: %w", mapRepoErr(err, domain.ErrUserNotFound))
	}
	return p, nil
}

func (s *ProfileService) SearchUsers(ctx context.Context, query string, limit int) ([]domain.UserRef, error) {
	users, err := s.users.Search(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("users.Search: %w", err)
	}
	return users, nil
}

// profileLookup адаптирует хранилище профилей к движку членства.
type profileLookup struct {
	profiles repository.ProfileStore
}

func (l profileLookup) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := l.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrProfileNotFound)
	}
	return p, nil
}
