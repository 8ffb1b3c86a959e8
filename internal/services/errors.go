package services

import "errors"

// Service-level errors
var (
	ErrInvalidInput = errors.New("invalid input")

	// WebSocket errors
	ErrWebSocketUpgrade = errors.New("websocket upgrade failed")
	ErrWebSocketClosed  = errors.New("websocket connection closed")

	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
