package sqlite

import (
	"context"
	"strings"

	"github.com/cwrk-planet/trome-service/internal/domain"
)

const (
	queryListUsers   = `SELECT id, display_name, avatar_url FROM users ORDER BY rowid`
	queryFindUser    = `SELECT id, display_name, avatar_url FROM users WHERE id = ?`
	querySearchUsers = `
	SELECT id, display_name, avatar_url
	FROM users
	WHERE display_name LIKE ?1 ESCAPE '\' OR username LIKE ?1 ESCAPE '\'
	ORDER BY display_name, id
	LIMIT ?2`
	queryUpsertUser = `
	INSERT INTO users (id, username, display_name, avatar_url)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET username = excluded.username,
	    display_name = excluded.display_name,
	    avatar_url = excluded.avatar_url`
)

type UserRepo struct {
	q querier
}

func NewUserRepo(q querier) *UserRepo {
	return &UserRepo{q: q}
}

// ListUsers возвращает пользователей в порядке добавления.
func (r *UserRepo) ListUsers(ctx context.Context) ([]domain.UserRef, error) {
	return r.queryUsers(ctx, queryListUsers)
}

func (r *UserRepo) FindUser(ctx context.Context, id string) (domain.UserRef, error) {
	var u domain.UserRef
	err := r.q.QueryRowContext(ctx, queryFindUser, strings.TrimSpace(id)).Scan(&u.ID, &u.Name, &u.AvatarURL)
	if err != nil {
		return domain.UserRef{}, mapSQLiteError(err)
	}
	return u, nil
}

func (r *UserRepo) Search(ctx context.Context, query string, limit int) ([]domain.UserRef, error) {
	return r.queryUsers(ctx, querySearchUsers, likePattern(strings.TrimPrefix(strings.TrimSpace(query), "@")), limit)
}

func (r *UserRepo) Upsert(ctx context.Context, u domain.UserRef, username string) error {
	_, err := r.q.ExecContext(ctx, queryUpsertUser, u.ID, strings.TrimSpace(username), u.Name, u.AvatarURL)
	return mapSQLiteError(err)
}

func (r *UserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]domain.UserRef, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
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
	return users, mapSQLiteError(rows.Err())
}
