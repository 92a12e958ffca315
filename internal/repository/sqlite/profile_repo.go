package sqlite

import (
	"context"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository"
)

const (
	queryGetProfile = `
	SELECT user_id, username, display_name, avatar_url, bio, interests, updated_at
	FROM profiles
	WHERE user_id = ?`
	queryUpsertProfile = `
	INSERT INTO profiles (user_id, username, display_name, avatar_url, bio, interests, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE
	SET username = excluded.username,
	    display_name = excluded.display_name,
	    avatar_url = excluded.avatar_url,
	    bio = excluded.bio,
	    interests = excluded.interests,
	    updated_at = excluded.updated_at`
)

type ProfileRepo struct {
	q querier
}

func NewProfileRepo(q querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var (
		p         domain.Profile
		interests string
		updatedAt int64
	)
	err := r.q.QueryRowContext(ctx, queryGetProfile, userID).Scan(
		&p.UserID,
		&p.Username,
		&p.DisplayName,
		&p.AvatarURL,
		&p.Bio,
		&interests,
		&updatedAt,
	)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	if p.Interests, err = repository.DecodeStrings(interests); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &p, nil
}

func (r *ProfileRepo) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	interests, err := repository.EncodeStrings(p.Interests)
	if err != nil {
		return err
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err = r.q.ExecContext(ctx, queryUpsertProfile,
		p.UserID,
		p.Username,
		p.DisplayName,
		p.AvatarURL,
		p.Bio,
		interests,
		p.UpdatedAt.UnixNano(),
	)
	return mapSQLiteError(err)
}
