package repository

import (
	"context"

	"github.com/cwrk-planet/trome-service/internal/domain"
)

type RoomRepository interface {
	// Создает комнату, заполняет ID и CreatedAt
	Create(ctx context.Context, r *domain.Room) error
	// Возвращает комнату с разрешенными ссылками ростера
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	// Курсорная пагинация (created_at, id DESC)
	List(ctx context.Context, filter domain.RoomFilter, limit int, cursor string) ([]domain.Room, string, error)
	// Поиск по заголовку и темам
	Search(ctx context.Context, query string, limit int) ([]domain.Room, error)
}
