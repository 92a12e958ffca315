package service

import (
	"errors"

	"github.com/cwrk-planet/trome-service/internal/repository"
)

// mapRepoErr переводит ErrNotFound репозитория в доменную ошибку;
// остальные ошибки (ErrInvalidCursor, ErrUnavailable) пробрасываются как есть.
func mapRepoErr(err, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

const (
	defaultLimit = 20
	maxLimit     = 50
)
