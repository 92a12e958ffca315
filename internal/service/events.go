package service

import (
	"context"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
)

type EventType string

const (
	EventPeerJoined     EventType = "peer_joined"
	EventPeerLeft       EventType = "peer_left"
	EventSpeakRequested EventType = "speak_requested"
	// EventState: итоговое представление зрителя после загрузки профиля
	EventState EventType = "state"
)

// Event: событие сессии комнаты для подписчиков (WS hub).
type Event struct {
	Type   EventType
	RoomID string
	User   domain.UserRef
	Role   domain.Role
	// View заполнен только для EventState и адресован зрителю User.ID
	View *domain.MembershipView
	At   time.Time
}

type EventPublisher interface {
	Publish(ctx context.Context, ev Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}
