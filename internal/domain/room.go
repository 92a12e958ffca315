package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"
)

const (
	MaxTitleLen  = 120
	MaxTopics    = 3
	MaxInterests = 10
)

// Room: запись комнаты. Speakers/Listeners == nil означает «не записано»,
// пустой не-nil срез означает «записано, но пусто».
type Room struct {
	ID            string
	Title         string
	Description   string
	Topics        []string
	IsLive        bool
	ScheduledFor  *time.Time
	IsPrivate     bool
	RecordEnabled bool
	Hosts         []UserRef
	Speakers      []Participant
	Listeners     []Participant
	ModeratorID   string
	CreatedAt     time.Time
}

// RoomFilter: фильтр списка комнат.
type RoomFilter string

const (
	FilterAll       RoomFilter = "all"
	FilterLive      RoomFilter = "live"
	FilterScheduled RoomFilter = "scheduled"
)

func ParseRoomFilter(s string) RoomFilter {
	switch RoomFilter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterLive:
		return FilterLive
	case FilterScheduled:
		return FilterScheduled
	default:
		return FilterAll
	}
}

// Match проверяет комнату на соответствие фильтру.
func (f RoomFilter) Match(r *Room) bool {
	switch f {
	case FilterLive:
		return r.IsLive
	case FilterScheduled:
		return !r.IsLive && r.ScheduledFor != nil
	default:
		return true
	}
}

// NewRoom создает комнату, где создатель: единственный хост.
func NewRoom(host UserRef, title string, topics []string, now time.Time, opts ...RoomOption) (*Room, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLen {
		return nil, ErrInvalidRoom
	}
	if strings.TrimSpace(host.ID) == "" {
		return nil, ErrInvalidRoom
	}
	topics = NormalizeTopics(topics)
	if len(topics) > MaxTopics {
		return nil, ErrInvalidRoom
	}

	r := &Room{
		Title:         title,
		Topics:        topics,
		IsLive:        true,
		RecordEnabled: true,
		Hosts:         []UserRef{host},
		ModeratorID:   host.ID,
		CreatedAt:     now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ScheduledFor != nil && r.ScheduledFor.After(now) {
		r.IsLive = false
	}

	return r, nil
}

// Options конструктора
type RoomOption func(*Room)

func WithDescription(d string) RoomOption {
	return func(r *Room) { r.Description = strings.TrimSpace(d) }
}

func WithSchedule(at time.Time) RoomOption {
	return func(r *Room) { r.ScheduledFor = &at }
}

func WithPrivate(private bool) RoomOption {
	return func(r *Room) { r.IsPrivate = private }
}

func WithRecording(enabled bool) RoomOption {
	return func(r *Room) { r.RecordEnabled = enabled }
}

// NormalizeTopics убирает пустые значения и дубликаты, сохраняя порядок.
// Сравнение без учета регистра.
func NormalizeTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	seen := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// MatchesQuery: регистронезависимый поиск по заголовку и темам.
func (r *Room) MatchesQuery(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.Title), q) {
		return true
	}
	return lo.SomeBy(r.Topics, func(t string) bool {
		return strings.Contains(strings.ToLower(t), q)
	})
}

// HostIDs возвращает id хостов в исходном порядке.
func (r *Room) HostIDs() []string {
	return lo.Map(r.Hosts, func(u UserRef, _ int) string { return u.ID })
}
