package postgres

import (
	"context"
	"strings"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository/postgres/queries"
)

type UserRepo struct {
	q querier
}

func NewUserRepo(q querier) *UserRepo {
	return &UserRepo{q: q}
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]domain.UserRef, error) {
	return r.queryUsers(ctx, queries.QueryListUsers)
}

func (r *UserRepo) FindUser(ctx context.Context, id string) (domain.UserRef, error) {
	var u domain.UserRef
	err := r.q.QueryRow(ctx, queries.QueryFindUser, strings.TrimSpace(id)).Scan(&u.ID, &u.Name, &u.AvatarURL)
	if err != nil {
		return domain.UserRef{}, mapPgError(err)
	}
	return u, nil
}

func (r *UserRepo) Search(ctx context.Context, query string, limit int) ([]domain.UserRef, error) {
	return r.queryUsers(ctx, queries.QuerySearchUsers, likePattern(strings.TrimPrefix(strings.TrimSpace(query), "@")), limit)
}

func (r *UserRepo) Upsert(ctx context.Context, u domain.UserRef, username string) error {
	_, err := r.q.Exec(ctx, queries.QueryUpsertUser, u.ID, strings.TrimSpace(username), u.Name, u.AvatarURL)
	return mapPgError(err)
}

func (r *UserRepo) queryUsers(ctx context.Context, sql string, args ...any) ([]domain.UserRef, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	users := []domain.UserRef{}
	for rows.Next() {
		var u domain.UserRef
		if err := rows.Scan(&u.ID, &u.Name, &u.AvatarURL); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, mapPgError(rows.Err())
}
