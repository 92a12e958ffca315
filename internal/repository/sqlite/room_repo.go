package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository"

	"github.com/google/uuid"
)

const roomColumns = `id, title, description, topics, is_live, scheduled_for, is_private,
	record_enabled, hosts, speakers, listeners, moderator_id, created_at`

const (
	queryCreateRoom = `
	INSERT INTO rooms (
		id, title, description, topics, is_live, scheduled_for, is_private,
		record_enabled, hosts, speakers, listeners, moderator_id, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	queryGetRoomByID = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	queryListRooms   = `
	SELECT ` + roomColumns + `
	FROM rooms
	WHERE (?1 IS NULL OR created_at < ?1 OR (created_at = ?1 AND id < ?2))
	  AND (?3 = 'all'
	       OR (?3 = 'live' AND is_live = 1)
	       OR (?3 = 'scheduled' AND is_live = 0 AND scheduled_for IS NOT NULL))
	ORDER BY created_at DESC, id DESC
	LIMIT ?4`
	querySearchRooms = `
	SELECT ` + roomColumns + `
	FROM rooms
	WHERE title LIKE ?1 ESCAPE '\'
	   OR EXISTS (SELECT 1 FROM json_each(rooms.topics) WHERE value LIKE ?1 ESCAPE '\')
	ORDER BY created_at DESC, id DESC
	LIMIT ?2`
)

type RoomRepo struct {
	q     querier
	users *UserRepo
}

func NewRoomRepo(q querier) *RoomRepo {
	return &RoomRepo{q: q, users: NewUserRepo(q)}
}

type roomRow struct {
	room         domain.Room
	topics       string
	scheduledFor sql.NullInt64
	hosts        string
	speakers     sql.NullString
	listeners    sql.NullString
	createdAt    int64
}

func (row *roomRow) dest() []any {
	return []any{
		&row.room.ID,
		&row.room.Title,
		&row.room.Description,
		&row.topics,
		&row.room.IsLive,
		&row.scheduledFor,
		&row.room.IsPrivate,
		&row.room.RecordEnabled,
		&row.hosts,
		&row.speakers,
		&row.listeners,
		&row.room.ModeratorID,
		&row.createdAt,
	}
}

func (r *RoomRepo) Create(ctx context.Context, room *domain.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}

	topics, err := repository.EncodeStrings(room.Topics)
	if err != nil {
		return err
	}
	hosts, err := repository.EncodeHosts(room.Hosts)
	if err != nil {
		return err
	}
	speakers, err := encodeNullRoster(room.Speakers)
	if err != nil {
		return err
	}
	listeners, err := encodeNullRoster(room.Listeners)
	if err != nil {
		return err
	}

	var scheduled sql.NullInt64
	if room.ScheduledFor != nil {
		scheduled = sql.NullInt64{Int64: room.ScheduledFor.UnixNano(), Valid: true}
	}

	_, err = r.q.ExecContext(ctx, queryCreateRoom,
		room.ID,
		room.Title,
		room.Description,
		topics,
		room.IsLive,
		scheduled,
		room.IsPrivate,
		room.RecordEnabled,
		string(hosts),
		speakers,
		listeners,
		room.ModeratorID,
		room.CreatedAt.UnixNano(),
	)
	return mapSQLiteError(err)
}

func (r *RoomRepo) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	var row roomRow
	if err := r.q.QueryRowContext(ctx, queryGetRoomByID, id).Scan(row.dest()...); err != nil {
		return nil, mapSQLiteError(err)
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

	var createdAt, id any
	if cur != nil {
		createdAt = cur.CreatedAt.UnixNano()
		id = cur.ID
	}
	if filter == "" {
		filter = domain.FilterAll
	}

	rooms, err := r.queryRooms(ctx, queryListRooms, createdAt, id, string(filter), limit)
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
	return r.queryRooms(ctx, querySearchRooms, likePattern(query), limit)
}

func (r *RoomRepo) queryRooms(ctx context.Context, query string, args ...any) ([]domain.Room, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}

	var raw []roomRow
	for rows.Next() {
		var row roomRow
		if err := rows.Scan(row.dest()...); err != nil {
			_ = rows.Close()
			return nil, err
		}
		raw = append(raw, row)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	// соединение одно: справочник читаем только после закрытия rows
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
	var err error
	if row.room.Topics, err = repository.DecodeStrings(row.topics); err != nil {
		return err
	}
	if row.scheduledFor.Valid {
		t := time.Unix(0, row.scheduledFor.Int64).UTC()
		row.room.ScheduledFor = &t
	}
	row.room.CreatedAt = time.Unix(0, row.createdAt).UTC()

	if row.room.Hosts, err = repository.DecodeHosts([]byte(row.hosts)); err != nil {
		return err
	}
	if row.room.Speakers, err = r.roster(ctx, row.speakers); err != nil {
		return err
	}
	if row.room.Listeners, err = r.roster(ctx, row.listeners); err != nil {
		return err
	}
	return nil
}

func (r *RoomRepo) roster(ctx context.Context, col sql.NullString) ([]domain.Participant, error) {
	if !col.Valid {
		return nil, nil
	}
	recs, err := repository.DecodeRoster([]byte(col.String))
	if err != nil {
		return nil, err
	}
	return repository.ResolveRoster(ctx, r.users, recs)
}

func encodeNullRoster(list []domain.Participant) (sql.NullString, error) {
	data, err := repository.EncodeRoster(list)
	if err != nil || data == nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
