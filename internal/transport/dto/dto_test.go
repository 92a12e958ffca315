package dto_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/transport/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoom_NilRostersSerializeAsNull(t *testing.T) {
	item := dto.Room(domain.Room{ID: "r1", Title: "t", Hosts: []domain.UserRef{{ID: "h1"}}})

	b, err := json.Marshal(item)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Nil(t, raw["speakers"])
	assert.Nil(t, raw["listeners"])
	assert.Equal(t, []any{}, raw["topics"])
}

func TestMembership(t *testing.T) {
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	v := &domain.MembershipView{
		Room: domain.Room{
			ID:          "r1",
			Hosts:       []domain.UserRef{{ID: "h1", Name: "H"}},
			Speakers:    []domain.Participant{},
			Listeners:   []domain.Participant{domain.NewParticipant(domain.UserRef{ID: "v", Name: "V"}, joined), {MemberRef: domain.Unresolved("x")}},
			ModeratorID: "h1",
		},
		ViewerID: "v",
		Role:     domain.RoleListener,
	}

	item := dto.Membership(v)
	assert.Equal(t, "listener", item.Role)
	assert.Equal(t, "h1", item.ModeratorID)
	require.Len(t, item.Room.Listeners, 2)
	assert.True(t, item.Room.Listeners[0].Resolved)
	require.NotNil(t, item.Room.Listeners[0].JoinedAt)
	assert.False(t, item.Room.Listeners[1].Resolved)
	assert.Nil(t, item.Room.Listeners[1].JoinedAt)
	assert.NotNil(t, item.Room.Speakers)
}
