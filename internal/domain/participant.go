package domain

import (
	"time"

	"github.com/samber/lo"
)

// Participant: запись в списке спикеров или слушателей.
// JoinedAt нулевой для записей, пришедших из исходных данных комнаты.
type Participant struct {
	MemberRef
	JoinedAt time.Time
}

func NewParticipant(u UserRef, joinedAt time.Time) Participant {
	return Participant{MemberRef: Resolved(u), JoinedAt: joinedAt}
}

// IndexOf ищет участника по id, а не по ссылке. -1 если не найден.
func IndexOf(list []Participant, userID string) int {
	_, idx, _ := lo.FindIndexOf(list, func(p Participant) bool {
		return p.ID() == userID
	})
	return idx
}
