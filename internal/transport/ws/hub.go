package ws

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cwrk-planet/trome-service/internal/service"
	"github.com/cwrk-planet/trome-service/internal/transport/dto"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	UserID() string
	RoomID() string
}

// Hub: комнаты -> соединения. Реализует service.EventPublisher.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{} // roomID -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[c.RoomID()]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[c.RoomID()] = rs
	}
	rs[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[c.RoomID()]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, c.RoomID())
		}
	}
}

func (h *Hub) Broadcast(roomID string, msg Message) {
	for _, c := range h.conns(roomID) {
		_ = c.Send(msg) // best-effort
	}
}

// SendTo отправляет сообщение всем соединениям пользователя в комнате.
func (h *Hub) SendTo(roomID, userID string, msg Message) {
	for _, c := range h.conns(roomID) {
		if c.UserID() == userID {
			_ = c.Send(msg)
		}
	}
}

func (h *Hub) Count(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}

// отправка идет без блокировки хаба: медленный клиент не держит остальных
func (h *Hub) conns(roomID string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rs := h.rooms[roomID]
	out := make([]Conn, 0, len(rs))
	for c := range rs {
		out = append(out, c)
	}
	return out
}

func (h *Hub) Publish(ctx context.Context, ev service.Event) {
	switch ev.Type {
	case service.EventState:
		if ev.View == nil {
			return
		}
		h.SendTo(ev.RoomID, ev.User.ID, Message{Type: TypeState, Payload: dto.Membership(ev.View)})
	case service.EventPeerJoined, service.EventPeerLeft, service.EventSpeakRequested:
		h.Broadcast(ev.RoomID, Message{
			Type: string(ev.Type),
			Payload: PeerEventPayload{
				RoomID: ev.RoomID,
				User:   dto.User(ev.User),
				Role:   ev.Role.String(),
				TSUnix: ev.At.Unix(),
			},
		})
	default:
		slog.DebugContext(ctx, "ws.hub: unknown event", slog.String("type", string(ev.Type)))
	}
}
