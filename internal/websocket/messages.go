package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"curvepulse/internal/curve"
)

// Message type constants
const (
	TypeConnection = "connection"
	TypeFrame      = "frame"
	TypeComplete   = "complete"
	TypeError      = "error"
	TypeHeartbeat  = "heartbeat"

	// Commands accepted from the client
	CmdPlay   = "play"
	CmdPause  = "pause"
	CmdResume = "resume"
	CmdStop   = "stop"
	CmdSpeed  = "speed"
)

// Command is a control message from the client. Play carries the replay
// window; speed carries a new frame interval.
type Command struct {
	Type       string   `json:"type"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	Maturities []string `json:"maturities,omitempty"`
	Seed       int64    `json:"seed,omitempty"`
	IntervalMS int      `json:"interval_ms,omitempty"`
}

// Frame is one animation step: the full curve at a single observation date.
type Frame struct {
	Type   string             `json:"type"`
	Index  int                `json:"index"`
	Total  int                `json:"total"`
	Date   string             `json:"date"`
	Points []curve.CurvePoint `json:"points"`
}

// ParseCommand decodes and minimally checks a client command.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("malformed command: %w", err)
	}
	switch cmd.Type {
	case CmdPlay, CmdPause, CmdResume, CmdStop, CmdSpeed, TypeHeartbeat:
		return cmd, nil
	default:
		return Command{}, fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

// marshalFrame encodes one snapshot as a frame message.
func marshalFrame(index, total int, snap curve.CurveSnapshot) ([]byte, error) {
	return json.Marshal(Frame{
		Type:   TypeFrame,
		Index:  index,
		Total:  total,
		Date:   snap.Date.Format("2006-01-02"),
		Points: snap.Points,
	})
}

// marshalEvent encodes a typed event with free-form payload fields.
func marshalEvent(msgType string, fields map[string]interface{}) []byte {
	payload := map[string]interface{}{
		"type":      msgType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		payload[k] = v
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return []byte(`{"type":"error","detail":"encoding failure"}`)
	}
	return data
}
