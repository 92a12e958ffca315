// Package repotest: общий набор проверок поведения репозиториев,
// который гоняется против каждого хранилища.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Stores struct {
	Rooms    repository.RoomRepository
	Users    repository.UserDirectory
	Profiles repository.ProfileStore
}

// Opener должен отдавать пустые мигрированные хранилища на каждый вызов.
type Opener func(t *testing.T) Stores

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func Run(t *testing.T, open Opener) {
	t.Run("RosterPresenceRoundTrip", func(t *testing.T) { rosterPresence(t, open(t)) })
	t.Run("ListCursorPaging", func(t *testing.T) { listPaging(t, open(t)) })
	t.Run("SearchTitleAndTopics", func(t *testing.T) { search(t, open(t)) })
	t.Run("Users", func(t *testing.T) { users(t, open(t)) })
	t.Run("Profiles", func(t *testing.T) { profiles(t, open(t)) })
}

func seedUsers(t *testing.T, s Stores) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []struct {
		ref      domain.UserRef
		username string
	}{
		{domain.UserRef{ID: "u1", Name: "Alice", AvatarURL: "a.png"}, "alice"},
		{domain.UserRef{ID: "u2", Name: "Bob", AvatarURL: "b.png"}, "bobby"},
		{domain.UserRef{ID: "u3", Name: "Carol", AvatarURL: "c.png"}, "carol_x"},
	} {
		require.NoError(t, s.Users.Upsert(ctx, u.ref, u.username))
	}
}

func rosterPresence(t *testing.T, s Stores) {
	seedUsers(t, s)
	ctx := context.Background()

	joined := base.Add(time.Minute)
	require.NoError(t, s.Rooms.Create(ctx, &domain.Room{
		ID:        "recorded",
		Title:     "recorded",
		IsLive:    true,
		Hosts:     []domain.UserRef{{ID: "u1", Name: "Alice", AvatarURL: "a.png"}},
		Speakers:  []domain.Participant{},
		Listeners: []domain.Participant{{MemberRef: domain.Unresolved("u2"), JoinedAt: joined}, {MemberRef: domain.Unresolved("ghost")}},
		CreatedAt: base,
	}))
	require.NoError(t, s.Rooms.Create(ctx, &domain.Room{
		ID:        "blank",
		Title:     "blank",
		IsLive:    true,
		Hosts:     []domain.UserRef{{ID: "u1", Name: "Alice"}},
		CreatedAt: base.Add(time.Second),
	}))

	got, err := s.Rooms.GetByID(ctx, "recorded")
	require.NoError(t, err)
	require.NotNil(t, got.Speakers, "recorded empty speakers must stay non-nil")
	assert.Empty(t, got.Speakers)
	require.Len(t, got.Listeners, 2)
	bob, ok := got.Listeners[0].User()
	require.True(t, ok)
	assert.Equal(t, domain.UserRef{ID: "u2", Name: "Bob", AvatarURL: "b.png"}, bob)
	assert.True(t, got.Listeners[0].JoinedAt.Equal(joined))
	assert.False(t, got.Listeners[1].IsResolved())
	assert.Equal(t, "ghost", got.Listeners[1].ID())

	blank, err := s.Rooms.GetByID(ctx, "blank")
	require.NoError(t, err)
	assert.Nil(t, blank.Speakers)
	assert.Nil(t, blank.Listeners)

	_, err = s.Rooms.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Rooms.Create(ctx, &domain.Room{ID: "blank", Title: "x", Hosts: blank.Hosts}), repository.ErrAlreadyExists)
}

func listPaging(t *testing.T, s Stores) {
	ctx := context.Background()
	scheduled := base.Add(24 * time.Hour)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		r := &domain.Room{
			ID:        id,
			Title:     "room " + id,
			IsLive:    i%2 == 0,
			Hosts:     []domain.UserRef{{ID: "u1"}},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if !r.IsLive {
			r.ScheduledFor = &scheduled
		}
		require.NoError(t, s.Rooms.Create(ctx, r))
	}

	var seen []string
	cursor := ""
	for range 3 {
		page, next, err := s.Rooms.List(ctx, domain.FilterAll, 2, cursor)
		require.NoError(t, err)
		seen = append(seen, RoomIDs(page)...)
		cursor = next
	}
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, seen)
	assert.Empty(t, cursor)

	live, _, err := s.Rooms.List(ctx, domain.FilterLive, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "c", "a"}, RoomIDs(live))

	sched, _, err := s.Rooms.List(ctx, domain.FilterScheduled, 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b"}, RoomIDs(sched))

	_, _, err = s.Rooms.List(ctx, domain.FilterAll, 10, "%%%")
	assert.ErrorIs(t, err, repository.ErrInvalidCursor)
}

func search(t *testing.T, s Stores) {
	ctx := context.Background()
	require.NoError(t, s.Rooms.Create(ctx, &domain.Room{
		ID: "1", Title: "Morning Jazz", Topics: []string{"Music"},
		Hosts: []domain.UserRef{{ID: "u1"}}, CreatedAt: base,
	}))
	require.NoError(t, s.Rooms.Create(ctx, &domain.Room{
		ID: "2", Title: "Startups 101", Topics: []string{"Business", "100%_growth"},
		Hosts: []domain.UserRef{{ID: "u1"}}, CreatedAt: base.Add(time.Minute),
	}))

	cases := map[string][]string{
		"jazz":     {"1"},
		"BUSINESS": {"2"},
		"%_":       {"2"},
		"":         {"2", "1"},
		"sinema":   {},
	}
	for q, want := range cases {
		got, err := s.Rooms.Search(ctx, q, 10)
		require.NoError(t, err, q)
		assert.Equal(t, want, RoomIDs(got), q)
	}
}

func users(t *testing.T, s Stores) {
	seedUsers(t, s)
	ctx := context.Background()

	all, err := s.Users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, UserIDs(all))

	u, err := s.Users.FindUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Bob", u.Name)

	_, err = s.Users.FindUser(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	found, err := s.Users.Search(ctx, "_x", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, UserIDs(found))
}

func profiles(t *testing.T, s Stores) {
	seedUsers(t, s)
	ctx := context.Background()

	_, err := s.Profiles.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	p := &domain.Profile{
		UserID:      "u1",
		Username:    "alice",
		DisplayName: "Alice",
		AvatarURL:   "fresh.png",
		Bio:         "hi",
		Interests:   []string{"Go", "Jazz"},
		UpdatedAt:   base,
	}
	require.NoError(t, s.Profiles.UpsertProfile(ctx, p))

	got, err := s.Profiles.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "fresh.png", got.AvatarURL)
	assert.Equal(t, "hi", got.Bio)
	assert.Equal(t, []string{"Go", "Jazz"}, got.Interests)
	assert.True(t, got.UpdatedAt.Equal(base))

	err = s.Profiles.UpsertProfile(ctx, &domain.Profile{UserID: "ghost", UpdatedAt: base})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func RoomIDs(rooms []domain.Room) []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.ID)
	}
	return out
}

func UserIDs(users []domain.UserRef) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}
