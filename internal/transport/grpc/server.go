package grpcx

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/service"
	"github.com/cwrk-planet/trome-service/internal/transport/dto"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	mdAuthorization = "authorization"
	mdUserID        = "x-user-id"
)

// SubjectVerifier проверяет bearer-токен; nil: доверяем x-user-id.
type SubjectVerifier interface {
	VerifySubject(token string) (string, error)
}

type Server struct {
	roomSvc   *service.RoomService
	memberSvc *service.MemberService
	verifier  SubjectVerifier
}

func NewServer(roomSvc *service.RoomService, memberSvc *service.MemberService, verifier SubjectVerifier) *Server {
	return &Server{
		roomSvc:   roomSvc,
		memberSvc: memberSvc,
		verifier:  verifier,
	}
}

// Register регистрирует сервис комнат и стандартный health.
func Register(grpcServer *grpc.Server, s *Server) *health.Server {
	grpcServer.RegisterService(&RoomServiceDesc, s)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return hs
}

// -------- helpers --------

func (s *Server) userFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	// Authorization: Bearer <access_token>
	auth := first(md.Get(mdAuthorization))
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") || len(strings.TrimSpace(auth)) <= 7 {
		return "", status.Error(codes.Unauthenticated, "missing or invalid authorization")
	}
	token := strings.TrimSpace(auth[7:])

	if s.verifier != nil {
		sub, err := s.verifier.VerifySubject(token)
		if err != nil {
			return "", status.Error(codes.Unauthenticated, err.Error())
		}
		return sub, nil
	}

	userID := strings.TrimSpace(first(md.Get(mdUserID)))
	if userID == "" {
		return "", status.Error(codes.Unauthenticated, "missing x-user-id")
	}
	return userID, nil
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}

	return ss[0]
}

// toStruct: DTO -> JSON -> Struct, чтобы поля совпадали с HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrUserNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidRoomState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// -------- methods --------

func (s *Server) GetRoom(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if _, err := s.userFromMD(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.GetValue()) == "" {
		return nil, status.Error(codes.InvalidArgument, "room id is required")
	}
	room, err := s.roomSvc.GetRoom(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}

	return toStruct(dto.Room(*room))
}

// ResolveMembership: представление комнаты для вызывающего пользователя.
func (s *Server) ResolveMembership(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	userID, err := s.userFromMD(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.GetValue()) == "" {
		return nil, status.Error(codes.InvalidArgument, "room id is required")
	}
	view, err := s.memberSvc.Resolve(ctx, in.GetValue(), userID)
	if err != nil {
		return nil, mapErr(err)
	}

	return toStruct(dto.Membership(view))
}
