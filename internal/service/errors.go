package service

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrWrongPassword     = errors.New("wrong password")
	ErrTargetUnavailable = errors.New("target user unavailable")
	ErrTargetBusy        = errors.New("target already in a call")
	ErrAlreadyInCall     = errors.New("caller already in a call")
	ErrInvalidMediaLink  = errors.New("invalid media link")
)
