package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now  = time.Date(2023, 11, 10, 14, 0, 0, 0, time.UTC)
	host = domain.UserRef{ID: "1", Name: "Ahmet Yılmaz", AvatarURL: "https://i.pravatar.cc/150?img=1"}
)

func TestNewRoom(t *testing.T) {
	r, err := domain.NewRoom(host, "  Teknoloji  ", []string{"AI", "ai", " ", "Mobil"}, now,
		domain.WithDescription("  son gelişmeler "),
		domain.WithPrivate(true),
	)
	require.NoError(t, err)

	assert.Equal(t, "Teknoloji", r.Title)
	assert.Equal(t, "son gelişmeler", r.Description)
	assert.Equal(t, []string{"AI", "Mobil"}, r.Topics)
	assert.True(t, r.IsLive)
	assert.True(t, r.IsPrivate)
	assert.True(t, r.RecordEnabled)
	assert.Equal(t, []domain.UserRef{host}, r.Hosts)
	assert.Equal(t, "1", r.ModeratorID)
	assert.Nil(t, r.Speakers)
	assert.Nil(t, r.Listeners)
}

func TestNewRoom_Schedule(t *testing.T) {
	future, err := domain.NewRoom(host, "later", nil, now, domain.WithSchedule(now.Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, future.IsLive)
	assert.True(t, domain.FilterScheduled.Match(future))
	assert.False(t, domain.FilterLive.Match(future))

	past, err := domain.NewRoom(host, "already", nil, now, domain.WithSchedule(now.Add(-time.Hour)))
	require.NoError(t, err)
	assert.True(t, past.IsLive)
	assert.False(t, domain.FilterScheduled.Match(past))
}

func TestNewRoom_Invalid(t *testing.T) {
	cases := map[string]struct {
		host   domain.UserRef
		title  string
		topics []string
	}{
		"empty title":    {host: host, title: "   "},
		"long title":     {host: host, title: strings.Repeat("ş", domain.MaxTitleLen+1)},
		"no host":        {host: domain.UserRef{}, title: "t"},
		"too many topic": {host: host, title: "t", topics: []string{"a", "b", "c", "d"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := domain.NewRoom(tc.host, tc.title, tc.topics, now)
			assert.ErrorIs(t, err, domain.ErrInvalidRoom)
		})
	}

	_, err := domain.NewRoom(host, strings.Repeat("ş", domain.MaxTitleLen), nil, now)
	assert.NoError(t, err)
}

func TestParseRoomFilter(t *testing.T) {
	assert.Equal(t, domain.FilterLive, domain.ParseRoomFilter(" LIVE "))
	assert.Equal(t, domain.FilterScheduled, domain.ParseRoomFilter("scheduled"))
	assert.Equal(t, domain.FilterAll, domain.ParseRoomFilter(""))
	assert.Equal(t, domain.FilterAll, domain.ParseRoomFilter("whatever"))
}

func TestRoom_MatchesQuery(t *testing.T) {
	r := domain.Room{Title: "Müzik Sektöründe Yeni Trendler", Topics: []string{"Müzik", "Sanat"}}

	assert.True(t, r.MatchesQuery("trend"))
	assert.True(t, r.MatchesQuery("SANAT"))
	assert.True(t, r.MatchesQuery(""))
	assert.False(t, r.MatchesQuery("sinema"))
}

func TestRoom_CloneKeepsNilRosters(t *testing.T) {
	at := now
	r := domain.Room{
		Hosts:        []domain.UserRef{host},
		Speakers:     []domain.Participant{domain.NewParticipant(host, time.Time{})},
		ScheduledFor: &at,
	}
	c := r.Clone()
	assert.Nil(t, c.Listeners)

	c.Speakers[0] = domain.Participant{MemberRef: domain.Unresolved("x")}
	*c.ScheduledFor = now.Add(time.Hour)
	assert.Equal(t, "1", r.Speakers[0].ID())
	assert.True(t, r.ScheduledFor.Equal(now))

	empty := domain.Room{Listeners: []domain.Participant{}}
	assert.NotNil(t, empty.Clone().Listeners)
}

func TestMemberRef(t *testing.T) {
	res := domain.Resolved(host)
	assert.Equal(t, "1", res.ID())
	assert.True(t, res.IsResolved())
	u, ok := res.User()
	assert.True(t, ok)
	assert.Equal(t, host, u)

	un := domain.Unresolved(" 42 ")
	assert.Equal(t, "42", un.ID())
	assert.False(t, un.IsResolved())
	u, ok = un.User()
	assert.False(t, ok)
	assert.Equal(t, domain.UserRef{ID: "42"}, u)
}

func TestIndexOf(t *testing.T) {
	list := []domain.Participant{
		domain.NewParticipant(host, now),
		{MemberRef: domain.Unresolved("42")},
	}
	assert.Equal(t, 0, domain.IndexOf(list, "1"))
	assert.Equal(t, 1, domain.IndexOf(list, "42"))
	assert.Equal(t, -1, domain.IndexOf(list, "7"))
	assert.Equal(t, -1, domain.IndexOf(nil, "1"))
}

func TestProfile_Apply(t *testing.T) {
	p := &domain.Profile{UserID: "0", DisplayName: "Kaan", Bio: "old"}
	name := "  Kaan Çelik "
	bio := ""

	require.NoError(t, p.Apply(domain.ProfilePatch{
		DisplayName: &name,
		Bio:         &bio,
		Interests:   []string{"Go", "go", "Müzik"},
	}, now))

	assert.Equal(t, "Kaan Çelik", p.DisplayName)
	assert.Empty(t, p.Bio)
	assert.Equal(t, []string{"Go", "Müzik"}, p.Interests)
	assert.True(t, p.UpdatedAt.Equal(now))

	// nil поля не трогаются
	require.NoError(t, p.Apply(domain.ProfilePatch{}, now.Add(time.Minute)))
	assert.Equal(t, "Kaan Çelik", p.DisplayName)
	assert.Equal(t, []string{"Go", "Müzik"}, p.Interests)
}

func TestProfile_Apply_TooManyInterests(t *testing.T) {
	interests := make([]string, domain.MaxInterests+1)
	for i := range interests {
		interests[i] = strings.Repeat("x", i+1)
	}
	p := &domain.Profile{}
	assert.ErrorIs(t, p.Apply(domain.ProfilePatch{Interests: interests}, now), domain.ErrInvalidProfile)
}

func TestUserRef_MatchesQuery(t *testing.T) {
	u := domain.UserRef{ID: "2", Name: "Ayşe Kaya"}
	assert.True(t, u.MatchesQuery("ayşe", "@aysekaya"))
	assert.True(t, u.MatchesQuery("@aysek", "@aysekaya"))
	assert.True(t, u.MatchesQuery("KAYA", ""))
	assert.False(t, u.MatchesQuery("mehmet", "@aysekaya"))
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "speaker", domain.RoleSpeaker.String())
	assert.Equal(t, "listener", domain.RoleListener.String())
	assert.Equal(t, "unjoined", domain.RoleUnjoined.String())
}
