package queries

const (
	QueryListUsers = `SELECT id, display_name, avatar_url FROM users ORDER BY created_at, id;`
	QueryFindUser  = `SELECT id, display_name, avatar_url FROM users WHERE id = $1;`
	QuerySearchUsers = `
		SELECT id, display_name, avatar_url
		FROM users
		WHERE display_name ILIKE $1 OR username ILIKE $1
		ORDER BY display_name, id
		LIMIT $2;
	`
	QueryUpsertUser = `
		INSERT INTO users (id, username, display_name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    display_name = EXCLUDED.display_name,
		    avatar_url = EXCLUDED.avatar_url;
	`
)

const (
	QueryGetProfile = `
		SELECT user_id, username, display_name, avatar_url, bio, interests, updated_at
		FROM profiles
		WHERE user_id = $1;
	`
	QueryUpsertProfile = `
		INSERT INTO profiles (user_id, username, display_name, avatar_url, bio, interests, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    display_name = EXCLUDED.display_name,
		    avatar_url = EXCLUDED.avatar_url,
		    bio = EXCLUDED.bio,
		    interests = EXCLUDED.interests,
		    updated_at = EXCLUDED.updated_at;
	`
)
