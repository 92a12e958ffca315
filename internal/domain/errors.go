package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrUnavailable     = errors.New("backing service unavailable")

	// нарушение предусловий: комната без хостов и т.п.
	ErrInvalidRoomState = errors.New("invalid room state")
	ErrInvalidRoom      = errors.New("invalid room")
	ErrInvalidProfile   = errors.New("invalid profile")

	ErrNotInRoom      = errors.New("user not in the room")
	ErrAlreadySpeaker = errors.New("user is already a speaker")
)
