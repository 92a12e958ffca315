package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository"
	"github.com/cwrk-planet/trome-service/internal/repository/postgres/queries"

	"github.com/google/uuid"
)

type RoomRepo struct {
	q     querier
	users *UserRepo
}

// NewRoomRepo: ростеры разрешаются через справочник на том же querier.
func NewRoomRepo(q querier) *RoomRepo {
	return &RoomRepo{q: q, users: NewUserRepo(q)}
}

// строка rooms до разрешения ростера
type roomRow struct {
	room      domain.Room
	hosts     []byte
	speakers  []byte
	listeners []byte
}

func (row *roomRow) dest() []any {
	return []any{
		&row.room.ID,
		&row.room.Title,
		&row.room.Description,
		&row.room.Topics,
		&row.room.IsLive,
		&row.room.ScheduledFor,
		&row.room.IsPrivate,
		&row.room.RecordEnabled,
		&row.hosts,
		&row.speakers,
		&row.listeners,
		&row.room.ModeratorID,
		&row.room.CreatedAt,
	}
}

func (r *RoomRepo) Create(ctx context.Context, room *domain.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	if room.Topics == nil {
		room.Topics = []string{}
	}

	hosts, err := repository.EncodeHosts(room.Hosts)
	if err != nil {
		return err
	}
	speakers, err := repository.EncodeRoster(room.Speakers)
	if err != nil {
		return err
	}
	listeners, err := repository.EncodeRoster(room.Listeners)
	if err != nil {
		return err
	}

	err = r.q.QueryRow(
		ctx,
		queries.QueryCreateRoom,
		room.ID,
		room.Title,
		room.Description,
		room.Topics,
		room.IsLive,
		room.ScheduledFor,
		room.IsPrivate,
		room.RecordEnabled,
		hosts,
		speakers,
		listeners,
		room.ModeratorID,
		room.CreatedAt,
	).Scan(&room.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}

	return nil
}

func (r *RoomRepo) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	var row roomRow
	if err := r.q.QueryRow(ctx, queries.QueryGetRoomByID, id).Scan(row.dest()...); err != nil {
		return nil, mapPgError(err)
	}
	if err := r.resolve(ctx, &row); err != nil {
		return nil, err
	}
	return &row.room, nil
}

func (r *RoomRepo) List(ctx context.Context, filter domain.RoomFilter, limit int, cursorStr string) ([]domain.Room, string, error) {
	cur, err := repository.DecodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}
	if filter == "" {
		filter = domain.FilterAll
	}

	rooms, err := r.queryRooms(ctx, queries.QueryListRooms, createdAt, id, string(filter), limit)
	if err != nil {
		return nil, "", err
	}

	var next string
	if n := len(rooms); n > 0 {
		last := rooms[n-1]
		next = repository.NextCursor(n, limit, last.CreatedAt, last.ID)
	}
	return rooms, next, nil
}

func (r *RoomRepo) Search(ctx context.Context, query string, limit int) ([]domain.Room, error) {
	return r.queryRooms(ctx, queries.QuerySearchRooms, likePattern(query), limit)
}

func (r *RoomRepo) queryRooms(ctx context.Context, sql string, args ...any) ([]domain.Room, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapPgError(err)
	}

	var raw []roomRow
	for rows.Next() {
		var row roomRow
		if err := rows.Scan(row.dest()...); err != nil {
			rows.Close()
			return nil, err
		}
		raw = append(raw, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}

	// ростеры разрешаем после закрытия rows: в транзакции нельзя
	// делать запрос, пока не вычитан предыдущий
	rooms := make([]domain.Room, 0, len(raw))
	for i := range raw {
		if err := r.resolve(ctx, &raw[i]); err != nil {
			return nil, err
		}
		rooms = append(rooms, raw[i].room)
	}
	return rooms, nil
}

func (r *RoomRepo) resolve(ctx context.Context, row *roomRow) error {
	hosts, err := repository.DecodeHosts(row.hosts)
	if err != nil {
		return err
	}
	row.room.Hosts = hosts

	speakers, err := repository.DecodeRoster(row.speakers)
	if err != nil {
		return err
	}
	if row.room.Speakers, err = repository.ResolveRoster(ctx, r.users, speakers); err != nil {
		return err
	}

	listeners, err := repository.DecodeRoster(row.listeners)
	if err != nil {
		return err
	}
	if row.room.Listeners, err = repository.ResolveRoster(ctx, r.users, listeners); err != nil {
		return err
	}
	return nil
}
