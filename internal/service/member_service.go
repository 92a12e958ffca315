package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"
	"github.com/cwrk-planet/trome-service/internal/membership"
	"github.com/cwrk-planet/trome-service/internal/repository"
)

const defaultHeartbeatWindow = 60 * time.Second

type sessionKey struct {
	roomID string
	userID string
}

type memberSession struct {
	session        *membership.Session
	user           domain.UserRef
	lastSeen       time.Time
	speakRequested bool
	// число открытых подключений (вкладки, WS, HTTP join); сессия
	// закрывается, когда уходит последнее
	refs int
}

// MemberService держит активные сессии зрителей: одна на пару (комната, пользователь),
// общая для всех подключений этой пары.
type MemberService struct {
	rooms  repository.RoomRepository
	users  repository.UserDirectory
	engine *membership.Engine
	events EventPublisher
	now    func() time.Time

	heartbeatWindow time.Duration

	mu       sync.Mutex
	sessions map[sessionKey]*memberSession
}

type MemberServiceOption func(*MemberService)

func WithEventPublisher(p EventPublisher) MemberServiceOption {
	return func(s *MemberService) {
		if p != nil {
			s.events = p
		}
	}
}

func WithHeartbeatWindow(d time.Duration) MemberServiceOption {
	return func(s *MemberService) {
		if d > 0 {
			s.heartbeatWindow = d
		}
	}
}

func WithMemberClock(now func() time.Time) MemberServiceOption {
	return func(s *MemberService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemberService(
	rooms repository.RoomRepository,
	users repository.UserDirectory,
	profiles repository.ProfileStore,
	engineOpts membership.Options,
	opts ...MemberServiceOption,
) *MemberService {
	s := &MemberService{
		rooms:           rooms,
		users:           users,
		events:          nopPublisher{},
		now:             time.Now,
		heartbeatWindow: defaultHeartbeatWindow, // окно «онлайн»
		sessions:        make(map[sessionKey]*memberSession),
	}
	for _, opt := range opts {
		opt(s)
	}

	var lookup membership.ProfileStore
	if profiles != nil {
		lookup = profileLookup{profiles: profiles}
	}
	s.engine = membership.NewEngine(lookup, users, engineOpts, s.now)

	return s
}

// OpenRoom открывает сессию и сразу возвращает промежуточное представление.
// Повторный вызов для той же пары возвращает текущее представление сессии
// и должен быть парным к своему LeaveRoom.
func (s *MemberService) OpenRoom(ctx context.Context, roomID, userID string) (*domain.MembershipView, error) {
	ms, err := s.open(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	return ms.session.View(), nil
}

// JoinRoom: OpenRoom с ожиданием загрузки профиля.
func (s *MemberService) JoinRoom(ctx context.Context, roomID, userID string) (*domain.MembershipView, error) {
	ms, err := s.open(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	return ms.session.Wait(ctx)
}

func (s *MemberService) open(ctx context.Context, roomID, userID string) (*memberSession, error) {
	key := sessionKey{roomID: strings.TrimSpace(roomID), userID: strings.TrimSpace(userID)}

	s.mu.Lock()
	if ms, ok := s.sessions[key]; ok {
		ms.refs++
		ms.lastSeen = s.now()
		s.mu.Unlock()
		return ms, nil
	}
	s.mu.Unlock()

	room, err := s.rooms.GetByID(ctx, key.roomID)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrRoomNotFound)
	}
	viewer, err := s.users.FindUser(ctx, key.userID)
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrUserNotFound)
	}

	session, err := s.engine.Open(ctx, *room, viewer, membership.WithOnResolved(func(v *domain.MembershipView) {
		s.events.Publish(context.Background(), Event{
			Type:   EventState,
			RoomID: key.roomID,
			User:   viewer,
			Role:   v.Role,
			View:   v,
			At:     s.now(),
		})
	}))
	if err != nil {
		return nil, err
	}

	ms := &memberSession{session: session, user: viewer, lastSeen: s.now(), refs: 1}

	s.mu.Lock()
	// параллельный OpenRoom мог успеть раньше
	if existing, ok := s.sessions[key]; ok {
		existing.refs++
		existing.lastSeen = s.now()
		s.mu.Unlock()
		session.Close()
		return existing, nil
	}
	s.sessions[key] = ms
	s.mu.Unlock()

	view := session.View()
	slog.InfoContext(ctx, "member.open",
		slog.String("room_id", key.roomID),
		slog.String("user_id", key.userID),
		slog.String("role", view.Role.String()),
		slog.Bool("moderator", view.IsModerator),
	)
	s.events.Publish(ctx, Event{
		Type:   EventPeerJoined,
		RoomID: key.roomID,
		User:   viewer,
		Role:   view.Role,
		At:     s.now(),
	})

	return ms, nil
}

// Resolve считает представление без регистрации сессии: для gRPC и roomctl.
func (s *MemberService) Resolve(ctx context.Context, roomID, userID string) (*domain.MembershipView, error) {
	room, err := s.rooms.GetByID(ctx, strings.TrimSpace(roomID))
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrRoomNotFound)
	}
	viewer, err := s.users.FindUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, mapRepoErr(err, domain.ErrUserNotFound)
	}
	return s.engine.Resolve(ctx, *room, viewer)
}

// Membership возвращает текущее представление открытой сессии.
func (s *MemberService) Membership(_ context.Context, roomID, userID string) (*domain.MembershipView, error) {
	ms, err := s.lookup(roomID, userID)
	if err != nil {
		return nil, err
	}
	return ms.session.View(), nil
}

// LeaveRoom отпускает одно подключение. peer_left уходит только
// вместе с последним.
func (s *MemberService) LeaveRoom(ctx context.Context, roomID, userID string) error {
	key := sessionKey{roomID: strings.TrimSpace(roomID), userID: strings.TrimSpace(userID)}

	s.mu.Lock()
	ms, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return domain.ErrNotInRoom
	}
	ms.refs--
	if ms.refs > 0 {
		refs := ms.refs
		s.mu.Unlock()
		slog.DebugContext(ctx, "member.release",
			slog.String("room_id", key.roomID),
			slog.String("user_id", key.userID),
			slog.Int("refs", refs),
		)
		return nil
	}
	delete(s.sessions, key)
	s.mu.Unlock()

	s.closeSession(ctx, key, ms)
	return nil
}

// RequestToSpeak: заявка слушателя на выступление. Повторная заявка
// не публикуется повторно.
func (s *MemberService) RequestToSpeak(ctx context.Context, roomID, userID string) error {
	key := sessionKey{roomID: strings.TrimSpace(roomID), userID: strings.TrimSpace(userID)}

	s.mu.Lock()
	ms, ok := s.sessions[key]
	if !ok {
		s.mu.Unlock()
		return domain.ErrNotInRoom
	}
	view := ms.session.View()
	if view.Role == domain.RoleSpeaker {
		s.mu.Unlock()
		return domain.ErrAlreadySpeaker
	}
	already := ms.speakRequested
	ms.speakRequested = true
	ms.lastSeen = s.now()
	s.mu.Unlock()

	if already {
		return nil
	}
	s.events.Publish(ctx, Event{
		Type:   EventSpeakRequested,
		RoomID: key.roomID,
		User:   ms.user,
		Role:   view.Role,
		At:     s.now(),
	})
	return nil
}

func (s *MemberService) TouchHeartbeat(_ context.Context, roomID, userID string) error {
	ms, err := s.lookup(roomID, userID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	ms.lastSeen = s.now()
	s.mu.Unlock()
	return nil
}

// SweepStale закрывает сессии без heartbeat дольше окна. Возвращает число закрытых.
func (s *MemberService) SweepStale(ctx context.Context) int {
	deadline := s.now().Add(-s.heartbeatWindow)

	stale := make(map[sessionKey]*memberSession)
	s.mu.Lock()
	for key, ms := range s.sessions {
		if ms.lastSeen.Before(deadline) {
			stale[key] = ms
			delete(s.sessions, key)
		}
	}
	s.mu.Unlock()

	for key, ms := range stale {
		s.closeSession(ctx, key, ms)
	}
	if len(stale) > 0 {
		slog.InfoContext(ctx, "member.sweep", slog.Int("closed", len(stale)))
	}
	return len(stale)
}

// Run периодически чистит протухшие сессии; при остановке закрывает все.
func (s *MemberService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.heartbeatWindow / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll(context.WithoutCancel(ctx))
			return nil
		case <-ticker.C:
			s.SweepStale(ctx)
		}
	}
}

// ActiveSessions: число открытых сессий в комнате.
func (s *MemberService) ActiveSessions(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.sessions {
		if key.roomID == roomID {
			n++
		}
	}
	return n
}

func (s *MemberService) lookup(roomID, userID string) (*memberSession, error) {
	key := sessionKey{roomID: strings.TrimSpace(roomID), userID: strings.TrimSpace(userID)}

	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[key]
	if !ok {
		return nil, domain.ErrNotInRoom
	}
	return ms, nil
}

func (s *MemberService) closeSession(ctx context.Context, key sessionKey, ms *memberSession) {
	role := ms.session.View().Role
	ms.session.Close()

	slog.InfoContext(ctx, "member.leave",
		slog.String("room_id", key.roomID),
		slog.String("user_id", key.userID),
	)
	s.events.Publish(ctx, Event{
		Type:   EventPeerLeft,
		RoomID: key.roomID,
		User:   ms.user,
		Role:   role,
		At:     s.now(),
	})
}

func (s *MemberService) closeAll(ctx context.Context) {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[sessionKey]*memberSession)
	s.mu.Unlock()

	for key, ms := range all {
		s.closeSession(ctx, key, ms)
	}
}
