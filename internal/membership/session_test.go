package membership_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/membership"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedProfiles отвечает только после release.
type gatedProfiles struct {
	release chan struct{}
	avatar  string
}

func (g gatedProfiles) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	select {
	case <-g.release:
		return &domain.Profile{UserID: userID, AvatarURL: g.avatar}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSession_InterimThenResolved(t *testing.T) {
	g := gatedProfiles{release: make(chan struct{}), avatar: "fresh"}
	e := newEngine(g, staticDirectory{})

	resolved := make(chan *domain.MembershipView, 1)
	s, err := e.Open(context.Background(), domain.Room{ID: "1", Hosts: []domain.UserRef{h1}}, v0,
		membership.WithOnResolved(func(v *domain.MembershipView) { resolved <- v }))
	require.NoError(t, err)
	defer s.Close()

	interim := s.View()
	assert.True(t, interim.AvatarPending)
	require.Len(t, interim.Listeners(), 1)
	u, _ := interim.Listeners()[0].User()
	assert.Equal(t, v0.AvatarURL, u.AvatarURL)

	close(g.release)

	select {
	case v := <-resolved:
		assert.False(t, v.AvatarPending)
		u, _ := v.Listeners()[0].User()
		assert.Equal(t, "fresh", u.AvatarURL)
	case <-time.After(2 * time.Second):
		t.Fatal("onResolved not called")
	}

	final, err := s.Wait(context.Background())
	require.NoError(t, err)
	u, _ = final.Listeners()[0].User()
	assert.Equal(t, "fresh", u.AvatarURL)
}

func TestSession_CloseDiscardsLateResult(t *testing.T) {
	g := gatedProfiles{release: make(chan struct{}), avatar: "late"}
	e := newEngine(g, staticDirectory{})

	var calls atomic.Int32
	s, err := e.Open(context.Background(), domain.Room{ID: "1", Hosts: []domain.UserRef{h1}}, v0,
		membership.WithOnResolved(func(*domain.MembershipView) { calls.Add(1) }))
	require.NoError(t, err)

	s.Close()
	close(g.release)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("lookup not cancelled")
	}

	_, err = s.Wait(context.Background())
	require.ErrorIs(t, err, membership.ErrSessionClosed)
	assert.Zero(t, calls.Load())
	assert.True(t, s.Closed())

	// снимок остался промежуточным
	assert.True(t, s.View().AvatarPending)
}

func TestSession_NoLookupNeeded(t *testing.T) {
	e := newEngine(new(mockProfiles), staticDirectory{})

	s, err := e.Open(context.Background(), domain.Room{ID: "1", Hosts: []domain.UserRef{h1}}, h1)
	require.NoError(t, err)
	defer s.Close()

	select {
	case <-s.Done():
	default:
		t.Fatal("done must be closed when no lookup is needed")
	}
	assert.False(t, s.View().AvatarPending)
	assert.Equal(t, "1", s.RoomID())
	assert.Equal(t, "1", s.ViewerID())
}

func TestSession_CloseIdempotent(t *testing.T) {
	e := newEngine(blockingProfiles{}, staticDirectory{})

	s, err := e.Open(context.Background(), domain.Room{ID: "1", Hosts: []domain.UserRef{h1}}, v0)
	require.NoError(t, err)

	s.Close()
	s.Close()
	<-s.Done()
}
