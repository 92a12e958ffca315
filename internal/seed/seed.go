// Package seed загружает демонстрационные данные (пользователи, профили,
// комнаты) из YAML в репозитории.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/trome.yaml
var defaultFixture []byte

type User struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Username  string   `yaml:"username"`
	Avatar    string   `yaml:"avatar"`
	Bio       string   `yaml:"bio"`
	Interests []string `yaml:"interests"`
	// NoProfile: пользователь есть в справочнике, но профиля нет.
	NoProfile bool `yaml:"noProfile"`
}

// Room: комната фикстуры. Участники задаются id; отсутствие ключа
// speakers/listeners означает «ростер не записан».
type Room struct {
	ID           string     `yaml:"id"`
	Title        string     `yaml:"title"`
	Description  string     `yaml:"description"`
	Topics       []string   `yaml:"topics"`
	IsLive       bool       `yaml:"isLive"`
	ScheduledFor *time.Time `yaml:"scheduledFor"`
	IsPrivate    bool       `yaml:"isPrivate"`
	Hosts        []string   `yaml:"hosts"`
	Speakers     *[]string  `yaml:"speakers"`
	Listeners    *[]string  `yaml:"listeners"`
	ModeratorID  string     `yaml:"moderatorId"`
	CreatedAt    time.Time  `yaml:"createdAt"`
}

type Fixture struct {
	Users []User `yaml:"users"`
	Rooms []Room `yaml:"rooms"`
}

type Target struct {
	Users    repository.UserDirectory
	Profiles repository.ProfileStore
	Rooms    repository.RoomRepository
}

type Stats struct {
	Users        int
	Profiles     int
	Rooms        int
	SkippedRooms int
}

func Default() (*Fixture, error) {
	return Parse(defaultFixture)
}

func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

func Load(r io.Reader) (*Fixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) validate() error {
	users := make(map[string]struct{}, len(fx.Users))
	for i, u := range fx.Users {
		if strings.TrimSpace(u.ID) == "" {
			return fmt.Errorf("seed: users[%d]: empty id", i)
		}
		if _, dup := users[u.ID]; dup {
			return fmt.Errorf("seed: users[%d]: duplicate id %q", i, u.ID)
		}
		users[u.ID] = struct{}{}
	}

	rooms := make(map[string]struct{}, len(fx.Rooms))
	for i, r := range fx.Rooms {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("seed: rooms[%d]: empty id", i)
		}
		if _, dup := rooms[r.ID]; dup {
			return fmt.Errorf("seed: rooms[%d]: duplicate id %q", i, r.ID)
		}
		rooms[r.ID] = struct{}{}

		if len(r.Hosts) == 0 {
			return fmt.Errorf("seed: room %q: no hosts", r.ID)
		}
		// хосты обязаны быть в справочнике, остальные участники могут отсутствовать
		for _, h := range r.Hosts {
			if _, ok := users[h]; !ok {
				return fmt.Errorf("seed: room %q: unknown host %q", r.ID, h)
			}
		}
	}
	return nil
}

// Apply пишет фикстуру в репозитории. Пользователи и профили
// перезаписываются, существующие комнаты пропускаются.
func Apply(ctx context.Context, fx *Fixture, t Target, now time.Time) (Stats, error) {
	var st Stats
	byID := make(map[string]domain.UserRef, len(fx.Users))

	for _, u := range fx.Users {
		ref := domain.UserRef{ID: u.ID, Name: u.Name, AvatarURL: u.Avatar}
		byID[u.ID] = ref

		if err := t.Users.Upsert(ctx, ref, u.Username); err != nil {
			return st, fmt.Errorf("seed: user %q: %w", u.ID, err)
		}
		st.Users++

		if u.NoProfile || t.Profiles == nil {
			continue
		}
		p := &domain.Profile{
			UserID:      u.ID,
			Username:    u.Username,
			DisplayName: u.Name,
			AvatarURL:   u.Avatar,
			Bio:         u.Bio,
			Interests:   domain.NormalizeTopics(u.Interests),
			UpdatedAt:   now,
		}
		if err := t.Profiles.UpsertProfile(ctx, p); err != nil {
			return st, fmt.Errorf("seed: profile %q: %w", u.ID, err)
		}
		st.Profiles++
	}

	for _, r := range fx.Rooms {
		room := r.toDomain(byID, now)
		err := t.Rooms.Create(ctx, room)
		switch {
		case err == nil:
			st.Rooms++
		case errors.Is(err, repository.ErrAlreadyExists):
			st.SkippedRooms++
			slog.DebugContext(ctx, "seed.room.exists", slog.String("room_id", r.ID))
		default:
			return st, fmt.Errorf("seed: room %q: %w", r.ID, err)
		}
	}
	return st, nil
}

func (r Room) toDomain(users map[string]domain.UserRef, now time.Time) *domain.Room {
	room := &domain.Room{
		ID:            r.ID,
		Title:         strings.TrimSpace(r.Title),
		Description:   strings.TrimSpace(r.Description),
		Topics:        domain.NormalizeTopics(r.Topics),
		IsLive:        r.IsLive,
		ScheduledFor:  r.ScheduledFor,
		IsPrivate:     r.IsPrivate,
		RecordEnabled: true,
		ModeratorID:   r.ModeratorID,
		CreatedAt:     r.CreatedAt,
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	for _, id := range r.Hosts {
		room.Hosts = append(room.Hosts, users[id])
	}
	room.Speakers = roster(r.Speakers, users)
	room.Listeners = roster(r.Listeners, users)
	return room
}

// roster: nil -> не записан; неизвестный id остается Unresolved.
func roster(ids *[]string, users map[string]domain.UserRef) []domain.Participant {
	if ids == nil {
		return nil
	}
	out := make([]domain.Participant, 0, len(*ids))
	for _, id := range *ids {
		if u, ok := users[id]; ok {
			out = append(out, domain.NewParticipant(u, time.Time{}))
			continue
		}
		out = append(out, domain.Participant{MemberRef: domain.Unresolved(id)})
	}
	return out
}
