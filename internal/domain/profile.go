package domain

import (
	"strings"
	"time"
)

// Profile: актуальный профиль пользователя из хранилища профилей.
// Используется для обогащения аватара зрителя.
type Profile struct {
	UserID      string
	Username    string
	DisplayName string
	AvatarURL   string
	Bio         string
	Interests   []string
	UpdatedAt   time.Time
}

// ProfilePatch: частичное обновление профиля; nil поля не меняются.
type ProfilePatch struct {
	DisplayName *string
	AvatarURL   *string
	Bio         *string
	Interests   []string
}

func (p *Profile) Apply(patch ProfilePatch, now time.Time) error {
	if patch.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = strings.TrimSpace(*patch.AvatarURL)
	}
	if patch.Bio != nil {
		p.Bio = strings.TrimSpace(*patch.Bio)
	}
	if patch.Interests != nil {
		interests := NormalizeTopics(patch.Interests)
		if len(interests) > MaxInterests {
			return ErrInvalidProfile
		}
		p.Interests = interests
	}
	p.UpdatedAt = now

	return nil
}

// MatchesQuery: поиск по имени и username без учета регистра.
func (u UserRef) MatchesQuery(q, username string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.Name), q) ||
		strings.Contains(strings.ToLower(strings.TrimPrefix(username, "@")), strings.TrimPrefix(q, "@"))
}
