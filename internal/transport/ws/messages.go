package ws

import (
	"github.com/cwrk-planet/trome-service/internal/transport/dto"
)

// Типы событий сервер -> клиент
const (
	TypeState          = "state"           // представление комнаты для зрителя
	TypePeerJoined     = "peer_joined"     // пользователь присоединился
	TypePeerLeft       = "peer_left"       // пользователь покинул
	TypeSpeakRequested = "speak_requested" // слушатель просит слова
	TypeError          = "error"
)

// Типы сообщений клиент -> сервер
const (
	TypeRequestToSpeak = "request_to_speak"
	TypeLeave          = "leave"
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type StatePayload = dto.MembershipItem

type PeerEventPayload struct {
	RoomID string       `json:"room_id"`
	User   dto.UserItem `json:"user"`
	Role   string       `json:"role"`
	TSUnix int64        `json:"ts_unix"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
