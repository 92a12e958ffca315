package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/transport/dto"
	httpmw "github.com/cwrk-planet/trome-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/trome-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type MemberSvc interface {
	OpenRoom(ctx context.Context, roomID, userID string) (*domain.MembershipView, error)
	Membership(ctx context.Context, roomID, userID string) (*domain.MembershipView, error)
	RequestToSpeak(ctx context.Context, roomID, userID string) error
	TouchHeartbeat(ctx context.Context, roomID, userID string) error
	LeaveRoom(ctx context.Context, roomID, userID string) error
}

type Server struct {
	upgrader  websocket.Upgrader
	hub       *Hub
	memberSvc MemberSvc

	pingEvery time.Duration
}

type ServerOption func(*Server)

func WithPingInterval(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.pingEvery = d
		}
	}
}

func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(s *Server) {
		if fn != nil {
			s.upgrader.CheckOrigin = fn
		}
	}
}

func NewServer(hub *Hub, member MemberSvc, opts ...ServerOption) *Server {
	s := &Server{
		hub:       hub,
		memberSvc: member,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleWS: GET /ws/rooms/{id}. Пользователь берется из auth middleware.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "missing user id")
		return
	}
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		httputil.Error(w, http.StatusBadRequest, "missing room id")
		return
	}

	// сессию открываем до апгрейда, чтобы ошибки ушли обычным HTTP-статусом
	if _, err := s.memberSvc.OpenRoom(r.Context(), roomID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			httputil.Error(w, http.StatusNotFound, "room not found")
		case errors.Is(err, domain.ErrUserNotFound):
			httputil.Error(w, http.StatusNotFound, "user not found")
		case errors.Is(err, domain.ErrInvalidRoomState):
			httputil.Error(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.Error("ws.OpenRoom:", slog.Any("err", err))
			httputil.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		slog.Warn("ws upgrade failed", slog.Any("err", err))
		_ = s.memberSvc.LeaveRoom(context.WithoutCancel(r.Context()), roomID, userID)
		return
	}

	// соединение живет дольше обработчика запроса с его таймаутами
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	c := newWsConn(conn, roomID, userID)
	s.hub.Add(c)

	// состояние берем после регистрации в хабе: если профиль
	// загрузится позже, придет отдельным событием state
	if err := s.sendState(ctx, c); err != nil {
		slog.Warn("ws send initial state failed", "room", roomID, "user", userID, "err", err)
	}

	go s.writeLoop(ctx, c)
	s.readLoop(ctx, c)

	s.hub.Remove(c)
	if err := s.memberSvc.LeaveRoom(ctx, roomID, userID); err != nil && !errors.Is(err, domain.ErrNotInRoom) {
		slog.Debug("ws leave room failed", "room", roomID, "user", userID, "err", err)
	}
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "user", userID, "err", err)
	}
}

func (s *Server) sendState(ctx context.Context, c *wsConn) error {
	view, err := s.memberSvc.Membership(ctx, c.roomID, c.userID)
	if err != nil {
		return err
	}
	return c.Send(Message{Type: TypeState, Payload: dto.Membership(view)})
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 16)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		_ = s.memberSvc.TouchHeartbeat(ctx, c.roomID, c.userID)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		_ = s.memberSvc.TouchHeartbeat(ctx, c.roomID, c.userID)

		switch msg.Type {
		case TypeRequestToSpeak:
			if err := s.memberSvc.RequestToSpeak(ctx, c.roomID, c.userID); err != nil {
				_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Message: err.Error()}})
			}
		case TypeLeave:
			return
		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Ping(); err != nil {
				_ = c.Close()
				return
			}
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn   *websocket.Conn
	roomID string
	userID string

	sendMu    sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func newWsConn(c *websocket.Conn, roomID, userID string) *wsConn {
	return &wsConn{
		conn:   c,
		roomID: roomID,
		userID: userID,
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) UserID() string { return c.userID }
func (c *wsConn) RoomID() string { return c.roomID }
