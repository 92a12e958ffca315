package queries

const roomColumns = `id, title, description, topics, is_live, scheduled_for, is_private,
		record_enabled, hosts, speakers, listeners, moderator_id, created_at`

const (
	QueryCreateRoom = `
		INSERT INTO rooms (
			id, title, description, topics, is_live, scheduled_for, is_private,
			record_enabled, hosts, speakers, listeners, moderator_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at;
	`
	QueryGetRoomByID = `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1;`
	QueryListRooms   = `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE ($1::timestamptz IS NULL OR created_at < $1
		       OR (created_at = $1 AND id < $2))
		  AND ($3::text = 'all'
		       OR ($3::text = 'live' AND is_live)
		       OR ($3::text = 'scheduled' AND NOT is_live AND scheduled_for IS NOT NULL))
		ORDER BY created_at DESC, id DESC
		LIMIT $4;
	`
	QuerySearchRooms = `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE title ILIKE $1
		   OR EXISTS (SELECT 1 FROM unnest(topics) AS t WHERE t ILIKE $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2;
	`
)
