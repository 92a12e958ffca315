package domain

import "strings"

// UserRef: неизменяемый снимок идентичности пользователя из справочника.
type UserRef struct {
	ID        string
	Name      string
	AvatarURL string
}

// MemberRef: запись ростера: либо полный UserRef, либо только id,
// который не удалось сопоставить со справочником.
// Разрешается один раз на границе репозитория.
type MemberRef struct {
	id   string
	user *UserRef
}

func Resolved(u UserRef) MemberRef {
	return MemberRef{id: u.ID, user: &u}
}

func Unresolved(id string) MemberRef {
	return MemberRef{id: strings.TrimSpace(id)}
}

func (m MemberRef) ID() string { return m.id }

func (m MemberRef) IsResolved() bool { return m.user != nil }

// User возвращает снимок пользователя, если ссылка разрешена.
func (m MemberRef) User() (UserRef, bool) {
	if m.user == nil {
		return UserRef{ID: m.id}, false
	}
	return *m.user, true
}
