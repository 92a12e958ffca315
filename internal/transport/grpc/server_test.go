package grpcx_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/membership"
	"github.com/cwrk-planet/trome-service/internal/repository/sqlite"
	"github.com/cwrk-planet/trome-service/internal/service"
	grpcx "github.com/cwrk-planet/trome-service/internal/transport/grpc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))

	users := sqlite.NewUserRepo(db)
	rooms := sqlite.NewRoomRepo(db)
	for _, u := range []domain.UserRef{
		{ID: "h1", Name: "Host", AvatarURL: "h1.png"},
		{ID: "v1", Name: "Viewer", AvatarURL: "v1.png"},
	} {
		require.NoError(t, users.Upsert(ctx, u, ""))
	}
	require.NoError(t, rooms.Create(ctx, &domain.Room{
		ID:     "r1",
		Title:  "Room",
		IsLive: true,
		Hosts:  []domain.UserRef{{ID: "h1", Name: "Host", AvatarURL: "h1.png"}},
	}))
	require.NoError(t, rooms.Create(ctx, &domain.Room{ID: "broken", Title: "No hosts", Hosts: []domain.UserRef{}}))

	members := service.NewMemberService(rooms, users, sqlite.NewProfileRepo(db), membership.DefaultOptions())
	srv := grpcx.NewServer(service.NewRoomService(rooms, users), members, nil)

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(time.Second)),
		grpc.ChainStreamInterceptor(grpcx.StreamServerInterceptor()),
	)
	grpcx.Register(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return cc
}

func authed(userID string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(),
		"authorization", "Bearer test",
		"x-user-id", userID,
	)
}

func TestGetRoom(t *testing.T) {
	client := grpcx.NewRoomServiceClient(startServer(t))

	room, err := client.GetRoom(authed("v1"), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Room", room.GetFields()["title"].GetStringValue())

	_, err = client.GetRoom(authed("v1"), "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetRoom(context.Background(), "r1")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.GetRoom(authed("v1"), " ")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestResolveMembership(t *testing.T) {
	client := grpcx.NewRoomServiceClient(startServer(t))

	view, err := client.ResolveMembership(authed("v1"), "r1")
	require.NoError(t, err)
	f := view.GetFields()
	assert.Equal(t, "listener", f["role"].GetStringValue())
	assert.Equal(t, "h1", f["moderator_id"].GetStringValue())
	assert.False(t, f["avatar_pending"].GetBoolValue())

	listeners := f["room"].GetStructValue().GetFields()["listeners"].GetListValue().GetValues()
	require.Len(t, listeners, 1)
	assert.Equal(t, "v1", listeners[0].GetStructValue().GetFields()["id"].GetStringValue())

	view, err = client.ResolveMembership(authed("h1"), "r1")
	require.NoError(t, err)
	assert.Equal(t, "speaker", view.GetFields()["role"].GetStringValue())
	// единственный хост и других пользователей нет, кроме v1
	assert.Equal(t, "v1", view.GetFields()["moderator_id"].GetStringValue())

	_, err = client.ResolveMembership(authed("v1"), "broken")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.ResolveMembership(authed("ghost"), "r1")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealth(t *testing.T) {
	hc := healthpb.NewHealthClient(startServer(t))

	resp, err := hc.Check(context.Background(), &healthpb.HealthCheckRequest{Service: grpcx.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
