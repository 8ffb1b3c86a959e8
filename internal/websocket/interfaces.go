package websocket

import (
	"context"
	"time"

	"curvepulse/internal/curve"
	"curvepulse/internal/services"
)

// Connection defines the interface for WebSocket connections.
// This allows for proper mocking in tests.
type Connection interface {
	// WriteMessage writes a message with the given message type and payload
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads a message from the connection
	ReadMessage() (messageType int, p []byte, err error)

	// Close closes the connection
	Close() error

	// SetReadDeadline sets the read deadline on the connection
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline sets the write deadline on the connection
	SetWriteDeadline(t time.Time) error

	// SetReadLimit sets the maximum size for a message read from the connection
	SetReadLimit(limit int64)

	// SetPongHandler sets the handler for pong messages
	SetPongHandler(h func(string) error)

	// RemoteAddr returns the remote network address
	RemoteAddr() string
}

// FrameSource resolves a curve request into the snapshot sequence a replay
// streams. Implemented by the curve service.
type FrameSource interface {
	Snapshots(ctx context.Context, req services.CurveRequest) ([]curve.CurveSnapshot, error)
}
