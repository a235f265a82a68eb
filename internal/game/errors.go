package game

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNoOptions      = errors.New("options must not be empty")
)
