package repository

import (
	"context"

	"github.com/cwrk-planet/trome-service/internal/domain"
)

// UserDirectory: справочник идентичностей (id, имя, аватар).
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]domain.UserRef, error)
	FindUser(ctx context.Context, id string) (domain.UserRef, error)
	Search(ctx context.Context, query string, limit int) ([]domain.UserRef, error)
	Upsert(ctx context.Context, u domain.UserRef, username string) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, p *domain.Profile) error
}
