package domain

import "time"

// Role: роль зрителя в рамках одного посещения комнаты.
// Unjoined -> {Speaker | Listener}, обратного перехода нет.
// Модератор: ортогональный признак, не отдельное состояние.
type Role int

const (
	RoleUnjoined Role = iota
	RoleSpeaker
	RoleListener
)

func (r Role) String() string {
	switch r {
	case RoleSpeaker:
		return "speaker"
	case RoleListener:
		return "listener"
	default:
		return "unjoined"
	}
}

// MembershipView: производная проекция комнаты для конкретного зрителя.
// Считается на сессию, не сохраняется.
type MembershipView struct {
	Room        Room
	ViewerID    string
	Role        Role
	IsModerator bool
	// AvatarPending: профиль зрителя еще загружается, аватар временный.
	AvatarPending bool
	ResolvedAt    time.Time
}

func (v *MembershipView) Speakers() []Participant  { return v.Room.Speakers }
func (v *MembershipView) Listeners() []Participant { return v.Room.Listeners }
func (v *MembershipView) ModeratorID() string      { return v.Room.ModeratorID }

// Clone возвращает копию с независимыми срезами ростера.
func (v *MembershipView) Clone() *MembershipView {
	c := *v
	c.Room = v.Room.Clone()
	return &c
}

// Clone: глубокая копия срезов комнаты, nil сохраняется как nil.
func (r Room) Clone() Room {
	c := r
	if r.Topics != nil {
		c.Topics = append([]string(nil), r.Topics...)
	}
	if r.Hosts != nil {
		c.Hosts = append([]UserRef(nil), r.Hosts...)
	}
	if r.Speakers != nil {
		c.Speakers = append(make([]Participant, 0, len(r.Speakers)), r.Speakers...)
	}
	if r.Listeners != nil {
		c.Listeners = append(make([]Participant, 0, len(r.Listeners)), r.Listeners...)
	}
	if r.ScheduledFor != nil {
		t := *r.ScheduledFor
		c.ScheduledFor = &t
	}
	return c
}
