package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/repository"
)

type RoomService struct {
	rooms repository.RoomRepository
	users repository.UserDirectory
	now   func() time.Time
}

type RoomServiceOption func(*RoomService)

func WithRoomClock(now func() time.Time) RoomServiceOption {
	return func(s *RoomService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewRoomService(rooms repository.RoomRepository, users repository.UserDirectory, opts ...RoomServiceOption) *RoomService {
	s := &RoomService{rooms: rooms, users: users, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateRoomInput struct {
	Title        string
	Description  string
	Topics       []string
	ScheduledFor *time.Time
	IsPrivate    bool
	// nil: запись включена
	RecordEnabled *bool
}

// CreateRoom создаёт комнату; создатель становится единственным хостом и модератором.
func (s *RoomService) CreateRoom(ctx context.Context, hostID string, in CreateRoomInput) (*domain.Room, error) {
	host, err := s.users.FindUser(ctx, strings.TrimSpace(hostID))
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrUserNotFound)
	}

	opts := []domain.RoomOption{
		domain.WithDescription(in.Description),
		domain.WithPrivate(in.IsPrivate),
	}
	if in.ScheduledFor != nil {
		opts = append(opts, domain.WithSchedule(*in.ScheduledFor))
	}
	if in.RecordEnabled != nil {
		opts = append(opts, domain.WithRecording(*in.RecordEnabled))
	}

	room, err := domain.NewRoom(host, in.Title, in.Topics, s.now().UTC(), opts...)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("rooms.Create: %w", err)
	}
	return room, nil
}

// GetRoom возвращает комнату по ID.
func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrRoomNotFound)
	}
	return room, nil
}

// ListRooms возвращает список комнат с курсорной пагинацией.
func (s *RoomService) ListRooms(ctx context.Context, filter domain.RoomFilter, limit int, cursor string) ([]domain.Room, string, error) {
	rooms, next, err := s.rooms.List(ctx, filter, clampLimit(limit), cursor)
	if err != nil {
		return nil, "", fmt.Errorf("rooms.List: %w", err)
	}
	return rooms, next, nil
}

func (s *RoomService) SearchRooms(ctx context.Context, query string, limit int) ([]domain.Room, error) {
	rooms, err := s.rooms.Search(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("rooms.Search: %w", err)
	}
	return rooms, nil
}
