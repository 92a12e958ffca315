package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository"
	"github.com/cwrk-planet/trome-service/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomService_CreateRoom(t *testing.T) {
	f := newFixture(t)
	svc := service.NewRoomService(f.rooms, f.users, service.WithRoomClock(f.clock.Now))
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "v1", service.CreateRoomInput{
		Title:       "  Jazz & Coffee ",
		Description: "mornings",
		Topics:      []string{"Music", "music", "Coffee"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "Jazz & Coffee", room.Title)
	assert.Equal(t, []string{"Music", "Coffee"}, room.Topics)
	assert.True(t, room.IsLive)
	assert.True(t, room.RecordEnabled)
	assert.Equal(t, "v1", room.ModeratorID)
	require.Len(t, room.Hosts, 1)
	assert.Equal(t, "Viewer", room.Hosts[0].Name)

	stored, err := svc.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Title, stored.Title)
	assert.Nil(t, stored.Speakers)
	assert.Nil(t, stored.Listeners)
}

func TestRoomService_CreateRoom_Scheduled(t *testing.T) {
	f := newFixture(t)
	svc := service.NewRoomService(f.rooms, f.users, service.WithRoomClock(f.clock.Now))

	at := f.clock.Now().Add(2 * time.Hour)
	off := false
	room, err := svc.CreateRoom(context.Background(), "h1", service.CreateRoomInput{
		Title:         "Later",
		ScheduledFor:  &at,
		RecordEnabled: &off,
	})
	require.NoError(t, err)
	assert.False(t, room.IsLive)
	assert.False(t, room.RecordEnabled)

	scheduled, _, err := svc.ListRooms(context.Background(), domain.FilterScheduled, 0, "")
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, room.ID, scheduled[0].ID)
}

func TestRoomService_Errors(t *testing.T) {
	f := newFixture(t)
	svc := service.NewRoomService(f.rooms, f.users)
	ctx := context.Background()

	_, err := svc.CreateRoom(ctx, "nobody", service.CreateRoomInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.CreateRoom(ctx, "h1", service.CreateRoomInput{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidRoom)

	_, err = svc.CreateRoom(ctx, "h1", service.CreateRoomInput{Title: "x", Topics: []string{"a", "b", "c", "d"}})
	assert.ErrorIs(t, err, domain.ErrInvalidRoom)

	_, err = svc.GetRoom(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, _, err = svc.ListRooms(ctx, domain.FilterAll, 10, "not-a-cursor!")
	assert.ErrorIs(t, err, repository.ErrInvalidCursor)
}

func TestRoomService_ListAndSearch(t *testing.T) {
	f := newFixture(t)
	svc := service.NewRoomService(f.rooms, f.users, service.WithRoomClock(f.clock.Now))
	ctx := context.Background()

	for _, title := range []string{"Go meetup", "Rust corner", "GOlang tips"} {
		f.clock.Advance(time.Minute)
		_, err := svc.CreateRoom(ctx, "h1", service.CreateRoomInput{Title: title})
		require.NoError(t, err)
	}

	rooms, next, err := svc.ListRooms(ctx, domain.FilterLive, 2, "")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "GOlang tips", rooms[0].Title)
	assert.NotEmpty(t, next)

	found, err := svc.SearchRooms(ctx, "go", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "GOlang tips", found[0].Title)
	assert.Equal(t, "Go meetup", found[1].Title)
}
