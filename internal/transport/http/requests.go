package http

import (
	"time"

	"github.com/cwrk-planet/trome-service/internal/transport/dto"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateRoomRequest struct {
	Title         string     `json:"title" validate:"required,max=120"`
	Description   string     `json:"description" validate:"max=1000"`
	Topics        []string   `json:"topics" validate:"max=3,dive,required,max=40"`
	ScheduledFor  *time.Time `json:"scheduled_for"`
	IsPrivate     bool       `json:"is_private"`
	RecordEnabled *bool      `json:"record_enabled"`
}

type UpdateProfileRequest struct {
	DisplayName *string  `json:"display_name" validate:"omitnil,min=1,max=64"`
	AvatarURL   *string  `json:"avatar_url" validate:"omitnil,max=512"`
	Bio         *string  `json:"bio" validate:"omitnil,max=500"`
	Interests   []string `json:"interests" validate:"omitempty,max=10,dive,required,max=40"`
}

type RoomsListResponse struct {
	Items      []dto.RoomItem `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

type RoomsSearchResponse struct {
	Items []dto.RoomItem `json:"items"`
}

type UsersSearchResponse struct {
	Items []dto.UserItem `json:"items"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
