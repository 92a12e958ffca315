// Package membership вычисляет роль зрителя в комнате: спикер, слушатель
// и эффективного модератора.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"

	"github.com/samber/lo"
)

var ErrSessionClosed = errors.New("membership session closed")

// ProfileStore: внешнее хранилище профилей. Ошибки: domain.ErrProfileNotFound,
// domain.ErrUnavailable.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// Directory: справочник пользователей, нужен для выбора запасного модератора.
type Directory interface {
	ListUsers(ctx context.Context) ([]domain.UserRef, error)
}

type Engine struct {
	profiles  ProfileStore
	directory Directory
	opts      Options
	now       func() time.Time
}

func NewEngine(profiles ProfileStore, directory Directory, opts Options, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}

	return &Engine{
		profiles:  profiles,
		directory: directory,
		opts:      opts.withDefaults(),
		now:       now,
	}
}

// Resolve: блокирующая форма: открывает сессию, дожидается профиля
// (не дольше ProfileTimeout) и возвращает итоговое представление.
func (e *Engine) Resolve(ctx context.Context, room domain.Room, viewer domain.UserRef) (*domain.MembershipView, error) {
	s, err := e.Open(ctx, room, viewer)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return s.Wait(ctx)
}

// plan выполняет синхронную часть: ростеры, модератор, роль.
// pending == true, если зрителя нужно дописать в слушатели после загрузки профиля.
func (e *Engine) plan(ctx context.Context, room domain.Room, viewer domain.UserRef) (view *domain.MembershipView, pending bool, err error) {
	if strings.TrimSpace(viewer.ID) == "" {
		return nil, false, fmt.Errorf("membership: empty viewer id: %w", domain.ErrUserNotFound)
	}
	if len(room.Hosts) == 0 {
		return nil, false, fmt.Errorf("%w: room %q has no hosts", domain.ErrInvalidRoomState, room.ID)
	}

	r := room.Clone()
	if r.Speakers == nil {
		r.Speakers = lo.Map(r.Hosts, func(h domain.UserRef, _ int) domain.Participant {
			return domain.Participant{MemberRef: domain.Resolved(h)}
		})
	}
	if r.Listeners == nil {
		r.Listeners = []domain.Participant{}
	}

	r.ModeratorID = e.resolveModerator(ctx, &room, viewer.ID)

	speakerIdx := domain.IndexOf(r.Speakers, viewer.ID)
	listenerIdx := domain.IndexOf(r.Listeners, viewer.ID)

	// зритель не может быть в обоих списках: запись спикера приоритетнее
	if speakerIdx >= 0 && listenerIdx >= 0 {
		r.Listeners = lo.DropByIndex(r.Listeners, listenerIdx)
		listenerIdx = -1
	}

	view = &domain.MembershipView{
		ViewerID:    viewer.ID,
		IsModerator: r.ModeratorID == viewer.ID,
	}

	switch {
	case speakerIdx >= 0:
		view.Role = domain.RoleSpeaker
		if view.IsModerator && e.opts.StripModeratorFromSpeakers {
			r.Speakers = lo.DropByIndex(r.Speakers, speakerIdx)
		}
	case listenerIdx >= 0:
		view.Role = domain.RoleListener
	default:
		view.Role = domain.RoleListener
		view.AvatarPending = true
		pending = true
		// временная запись с аватаром из справочника, пока грузится профиль
		r.Listeners = append(r.Listeners, domain.NewParticipant(viewer, e.now()))
	}

	view.Room = r
	view.ResolvedAt = e.now()

	return view, pending, nil
}

// resolveModerator: наивный выбор это записанный модератор (если он среди
// хостов) или первый хост. Если он совпадает со зрителем, берем первый другой
// хост, затем любого другого пользователя справочника. Зритель остается
// модератором, если больше никого нет или справочник недоступен.
func (e *Engine) resolveModerator(ctx context.Context, room *domain.Room, viewerID string) string {
	recorded := room.ModeratorID
	if recorded != "" && !lo.ContainsBy(room.Hosts, func(h domain.UserRef) bool { return h.ID == recorded }) {
		slog.WarnContext(ctx, "membership.resolveModerator: recorded moderator is not a host",
			slog.String("room_id", room.ID), slog.String("moderator_id", recorded))
		recorded = ""
	}

	naive := recorded
	if naive == "" {
		naive = room.Hosts[0].ID
	}
	if naive != viewerID {
		return naive
	}
	if e.opts.KeepRecordedModerator && recorded == viewerID {
		return viewerID
	}

	if h, ok := lo.Find(room.Hosts, func(h domain.UserRef) bool { return h.ID != viewerID }); ok {
		return h.ID
	}

	if e.directory == nil {
		return viewerID
	}
	users, err := e.directory.ListUsers(ctx)
	if err != nil {
		slog.WarnContext(ctx, "membership.resolveModerator: directory unavailable, viewer keeps moderation",
			slog.String("room_id", room.ID), slog.String("user_id", viewerID), slog.Any("err", err))
		return viewerID
	}
	if u, ok := lo.Find(users, func(u domain.UserRef) bool { return u.ID != viewerID }); ok {
		return u.ID
	}

	return viewerID
}

// lookupAvatar: best-effort: любая ошибка или таймаут дают аватар из справочника.
func (e *Engine) lookupAvatar(ctx context.Context, viewer domain.UserRef) string {
	if e.profiles == nil {
		return viewer.AvatarURL
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.ProfileTimeout)
	defer cancel()

	type result struct {
		profile *domain.Profile
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := e.profiles.GetProfile(ctx, viewer.ID)
		ch <- result{profile: p, err: err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		slog.WarnContext(ctx, "membership.lookupAvatar: fallback to directory avatar",
			slog.String("user_id", viewer.ID), slog.Any("err", res.err))
		return viewer.AvatarURL
	}
	if res.profile == nil || strings.TrimSpace(res.profile.AvatarURL) == "" {
		return viewer.AvatarURL
	}

	return res.profile.AvatarURL
}
