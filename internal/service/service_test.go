package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/membership"
	"github.com/cwrk-planet/trome-service/internal/repository/sqlite"
	"github.com/cwrk-planet/trome-service/internal/service"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	rooms    *sqlite.RoomRepo
	users    *sqlite.UserRepo
	profiles *sqlite.ProfileRepo
	clock    *fakeClock
	events   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))

	f := &fixture{
		rooms:    sqlite.NewRoomRepo(db),
		users:    sqlite.NewUserRepo(db),
		profiles: sqlite.NewProfileRepo(db),
		clock:    &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		events:   &recorder{},
	}

	for _, u := range []domain.UserRef{
		{ID: "h1", Name: "Host One", AvatarURL: "h1.png"},
		{ID: "h2", Name: "Host Two", AvatarURL: "h2.png"},
		{ID: "v1", Name: "Viewer", AvatarURL: "v1-dir.png"},
		{ID: "v2", Name: "Second Viewer", AvatarURL: "v2-dir.png"},
	} {
		require.NoError(t, f.users.Upsert(ctx, u, ""))
	}
	require.NoError(t, f.rooms.Create(ctx, &domain.Room{
		ID:     "r1",
		Title:  "Morning talk",
		IsLive: true,
		Hosts: []domain.UserRef{
			{ID: "h1", Name: "Host One", AvatarURL: "h1.png"},
			{ID: "h2", Name: "Host Two", AvatarURL: "h2.png"},
		},
		ModeratorID: "h1",
		CreatedAt:   f.clock.Now(),
	}))
	return f
}

func (f *fixture) members(opts ...service.MemberServiceOption) *service.MemberService {
	opts = append([]service.MemberServiceOption{
		service.WithEventPublisher(f.events),
		service.WithMemberClock(f.clock.Now),
		service.WithHeartbeatWindow(time.Minute),
	}, opts...)
	return service.NewMemberService(f.rooms, f.users, f.profiles, membership.DefaultOptions(), opts...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []service.Event
}

func (r *recorder) Publish(_ context.Context, ev service.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) types() []service.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) last() service.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}
