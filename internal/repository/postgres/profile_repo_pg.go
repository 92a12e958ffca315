package postgres

import (
	"context"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository/postgres/queries"
)

type ProfileRepo struct {
	q querier
}

func NewProfileRepo(q querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.q.QueryRow(ctx, queries.QueryGetProfile, userID).Scan(
		&p.UserID,
		&p.Username,
		&p.DisplayName,
		&p.AvatarURL,
		&p.Bio,
		&p.Interests,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

func (r *ProfileRepo) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	_, err := r.q.Exec(
		ctx,
		queries.QueryUpsertProfile,
		p.UserID,
		p.Username,
		p.DisplayName,
		p.AvatarURL,
		p.Bio,
		interests,
		p.UpdatedAt,
	)
	return mapPgError(err)
}
