package membership

import "time"

const defaultProfileTimeout = 3 * time.Second

type Options struct {
	// ProfileTimeout: верхняя граница ожидания профиля; истечение = ошибка поиска.
	ProfileTimeout time.Duration

	// KeepRecordedModerator оставляет зрителя модератором, если он уже записан
	// в room.ModeratorID. По умолчанию зритель переназначается на другого хоста.
	KeepRecordedModerator bool

	// StripModeratorFromSpeakers убирает модератора из ростера спикеров.
	StripModeratorFromSpeakers bool
}

func DefaultOptions() Options {
	return Options{
		ProfileTimeout:             defaultProfileTimeout,
		StripModeratorFromSpeakers: true,
	}
}

func (o Options) withDefaults() Options {
	if o.ProfileTimeout <= 0 {
		o.ProfileTimeout = defaultProfileTimeout
	}
	return o
}
