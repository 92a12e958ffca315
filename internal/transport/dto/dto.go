// Package dto содержит JSON-представления комнат и членства, общие для HTTP, WS и gRPC.
package dto

import (
	"time"

	"github.com/cwrk-planet/trome-service/internal/domain"

	"github.com/samber/lo"
)

type UserItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type ParticipantItem struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	Resolved  bool       `json:"resolved"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
}

type RoomItem struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Topics        []string   `json:"topics"`
	IsLive        bool       `json:"is_live"`
	ScheduledFor  *time.Time `json:"scheduled_for,omitempty"`
	IsPrivate     bool       `json:"is_private"`
	RecordEnabled bool       `json:"record_enabled"`
	Hosts         []UserItem `json:"hosts"`
	// null: ростер не записан
	Speakers    []ParticipantItem `json:"speakers"`
	Listeners   []ParticipantItem `json:"listeners"`
	ModeratorID string            `json:"moderator_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type MembershipItem struct {
	Room          RoomItem  `json:"room"`
	ViewerID      string    `json:"viewer_id"`
	Role          string    `json:"role"`
	IsModerator   bool      `json:"is_moderator"`
	ModeratorID   string    `json:"moderator_id"`
	AvatarPending bool      `json:"avatar_pending"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

type ProfileItem struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio"`
	Interests   []string  `json:"interests"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

func User(u domain.UserRef) UserItem {
	return UserItem{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

func Users(users []domain.UserRef) []UserItem {
	return lo.Map(users, func(u domain.UserRef, _ int) UserItem { return User(u) })
}

func Participant(p domain.Participant) ParticipantItem {
	u, ok := p.User()
	item := ParticipantItem{ID: p.ID(), Resolved: ok}
	if ok {
		item.Name = u.Name
		item.AvatarURL = u.AvatarURL
	}
	if !p.JoinedAt.IsZero() {
		t := p.JoinedAt
		item.JoinedAt = &t
	}
	return item
}

func participants(list []domain.Participant) []ParticipantItem {
	if list == nil {
		return nil
	}
	return lo.Map(list, func(p domain.Participant, _ int) ParticipantItem { return Participant(p) })
}

func Room(r domain.Room) RoomItem {
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return RoomItem{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Topics:        topics,
		IsLive:        r.IsLive,
		ScheduledFor:  r.ScheduledFor,
		IsPrivate:     r.IsPrivate,
		RecordEnabled: r.RecordEnabled,
		Hosts:         Users(r.Hosts),
		Speakers:      participants(r.Speakers),
		Listeners:     participants(r.Listeners),
		ModeratorID:   r.ModeratorID,
		CreatedAt:     r.CreatedAt,
	}
}

func Rooms(rooms []domain.Room) []RoomItem {
	return lo.Map(rooms, func(r domain.Room, _ int) RoomItem { return Room(r) })
}

func Membership(v *domain.MembershipView) MembershipItem {
	return MembershipItem{
		Room:          Room(v.Room),
		ViewerID:      v.ViewerID,
		Role:          v.Role.String(),
		IsModerator:   v.IsModerator,
		ModeratorID:   v.ModeratorID(),
		AvatarPending: v.AvatarPending,
		ResolvedAt:    v.ResolvedAt,
	}
}

func Profile(p *domain.Profile) ProfileItem {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return ProfileItem{
		UserID:      p.UserID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
		Interests:   interests,
		UpdatedAt:   p.UpdatedAt,
	}
}
