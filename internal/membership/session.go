package membership

import (
	"context"
	"sync"

	"github.com/cwrk-planet/trome-service/internal/domain"
)

// Session: представление комнаты для одного зрителя на время посещения.
// Загрузка профиля идет в фоне; после Close результат отбрасывается.
type Session struct {
	roomID   string
	viewerID string

	mu         sync.Mutex
	view       *domain.MembershipView
	closed     bool
	cancel     context.CancelFunc
	onResolved func(*domain.MembershipView)

	done chan struct{}
}

type SessionOption func(*Session)

// WithOnResolved: колбэк, вызывается один раз, когда аватар зрителя получен.
// Не вызывается, если сессия закрыта раньше.
func WithOnResolved(fn func(*domain.MembershipView)) SessionOption {
	return func(s *Session) { s.onResolved = fn }
}

// Open вычисляет роль синхронно и запускает фоновую загрузку профиля,
// если зрителя нужно добавить в слушатели.
func (e *Engine) Open(ctx context.Context, room domain.Room, viewer domain.UserRef, opts ...SessionOption) (*Session, error) {
	view, pending, err := e.plan(ctx, room, viewer)
	if err != nil {
		return nil, err
	}

	s := &Session{
		roomID:   room.ID,
		viewerID: viewer.ID,
		view:     view,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if !pending {
		close(s.done)
		return s, nil
	}

	// сессия живет дольше запроса, который ее открыл
	lookupCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.resolve(lookupCtx, e, viewer)

	return s, nil
}

func (s *Session) resolve(ctx context.Context, e *Engine, viewer domain.UserRef) {
	defer close(s.done)

	avatar := e.lookupAvatar(ctx, viewer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if idx := domain.IndexOf(s.view.Room.Listeners, viewer.ID); idx >= 0 {
		entry := s.view.Room.Listeners[idx]
		s.view.Room.Listeners[idx] = domain.NewParticipant(domain.UserRef{
			ID:        viewer.ID,
			Name:      viewer.Name,
			AvatarURL: avatar,
		}, entry.JoinedAt)
	}
	s.view.AvatarPending = false
	s.view.ResolvedAt = e.now()
	snapshot := s.view.Clone()
	cb := s.onResolved
	s.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

func (s *Session) RoomID() string   { return s.roomID }
func (s *Session) ViewerID() string { return s.viewerID }

// View: текущий снимок; может быть промежуточным (AvatarPending).
func (s *Session) View() *domain.MembershipView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.view.Clone()
}

// Done закрывается, когда фоновая загрузка завершена или не требовалась.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait дожидается итогового представления.
func (s *Session) Wait(ctx context.Context) (*domain.MembershipView, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}

	return s.view.Clone(), nil
}

// Close завершает сессию и отменяет незавершенную загрузку профиля.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}
