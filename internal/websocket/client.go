package websocket

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"curvepulse/internal/curve"
	"curvepulse/internal/infrastructure"
	"curvepulse/internal/services"
)

// Maximum message size allowed from peer
const maxMessageSize = 4096

// DefaultFrameInterval is used when a play command omits interval_ms,
// matching the dashboard's default animation speed.
const DefaultFrameInterval = 500 * time.Millisecond

// Client is a middleman between the websocket connection and the hub.
// Each client owns at most one replay session at a time.
type Client struct {
	hub *Hub

	// The websocket connection
	conn Connection

	// Buffered channel of outbound messages. Never closed: replay
	// goroutines and command handlers may hold a send in flight at any
	// moment, so shutdown is signalled through done instead.
	send chan []byte

	// done is closed exactly once when the hub drops the client; it
	// releases the write pump and any in-flight replay send.
	done      chan struct{}
	closeOnce sync.Once

	// Client metadata
	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	// Replay state
	replayMu sync.Mutex
	replay   *replaySession
	interval atomic.Int64 // current frame interval, nanoseconds
}

// replaySession controls one running frame loop
type replaySession struct {
	cancel context.CancelFunc
	pause  chan bool
	done   chan struct{}
}

// NewClient creates a new Client around a gorilla connection
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return NewClientWithConnection(hub, NewConnectionWrapper(conn), logger)
}

// NewClientWithConnection creates a new Client with a custom connection
// (used directly in tests)
func NewClientWithConnection(hub *Hub, conn Connection, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	c := &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		done:        make(chan struct{}),
		id:          id,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
	c.interval.Store(int64(DefaultFrameInterval))
	return c
}

// NewClientWithTrace creates a new Client carrying the upgrade request's
// trace ID
func NewClientWithTrace(hub *Hub, conn *websocket.Conn, traceID string, logger *slog.Logger) *Client {
	client := NewClient(hub, conn, logger)
	client.traceID = traceID
	client.logger = client.logger.With(slog.String("trace_id", traceID))
	return client
}

// ReadPump pumps commands from the websocket connection into the replay
// controller
func (c *Client) ReadPump() {
	defer func() {
		c.logger.Info("client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)))
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("unexpected close", slog.String("error", err.Error()))
			}
			break
		}

		cmd, err := ParseCommand(message)
		if err != nil {
			c.sendEvent(TypeError, map[string]interface{}{"detail": err.Error()})
			continue
		}
		c.handleCommand(cmd)
	}
}

// WritePump pumps messages from the send channel to the websocket
// connection
func (c *Client) WritePump() {
	pingPeriod := c.hub.cfg.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 30 * time.Second
	}
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("write failed", slog.String("error", err.Error()))
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleCommand dispatches one parsed client command
func (c *Client) handleCommand(cmd Command) {
	switch cmd.Type {
	case TypeHeartbeat:
		c.logger.Debug("heartbeat received")

	case CmdPlay:
		c.startReplay(cmd)

	case CmdPause:
		c.signalPause(true)

	case CmdResume:
		c.signalPause(false)

	case CmdStop:
		c.stopReplay()

	case CmdSpeed:
		interval := c.clampInterval(cmd.IntervalMS)
		c.interval.Store(int64(interval))
		c.logger.Debug("frame interval changed", slog.Duration("interval", interval))
	}
}

// startReplay resolves the requested window and starts streaming frames.
// A play command replaces any replay already in flight.
func (c *Client) startReplay(cmd Command) {
	req, err := c.buildRequest(cmd)
	if err != nil {
		c.sendEvent(TypeError, map[string]interface{}{"detail": err.Error()})
		return
	}
	c.interval.Store(int64(c.clampInterval(cmd.IntervalMS)))

	c.stopReplay()

	ctx, cancel := context.WithCancel(context.Background())
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	session := &replaySession{
		cancel: cancel,
		pause:  make(chan bool, 1),
		done:   make(chan struct{}),
	}

	c.replayMu.Lock()
	c.replay = session
	c.replayMu.Unlock()

	go func() {
		defer close(session.done)

		frames, err := c.hub.source.Snapshots(ctx, req)
		if err != nil {
			c.sendEvent(TypeError, map[string]interface{}{"detail": err.Error()})
			return
		}
		c.logger.Info("replay started",
			slog.Int("frames", len(frames)),
			slog.Duration("interval", time.Duration(c.interval.Load())))
		c.replayLoop(ctx, session, frames)
	}()
}

// replayLoop emits one frame per interval until the reel ends or the
// session is cancelled
func (c *Client) replayLoop(ctx context.Context, session *replaySession, frames []curve.CurveSnapshot) {
	total := len(frames)
	for i, snap := range frames {
		if i > 0 && !c.waitInterval(ctx, session) {
			return
		}
		data, err := marshalFrame(i, total, snap)
		if err != nil {
			c.logger.Error("frame encoding failed", slog.String("error", err.Error()))
			return
		}
		select {
		case c.send <- data:
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}

	select {
	case c.send <- marshalEvent(TypeComplete, map[string]interface{}{"frames": total}):
	case <-ctx.Done():
	case <-c.done:
	}
}

// waitInterval blocks for the current frame interval, honoring pause,
// resume and cancellation. Returns false when the session ended.
func (c *Client) waitInterval(ctx context.Context, session *replaySession) bool {
	timer := time.NewTimer(time.Duration(c.interval.Load()))
	defer timer.Stop()

	paused := false
	for {
		if paused {
			select {
			case <-ctx.Done():
				return false
			case p := <-session.pause:
				if !p {
					paused = false
					timer.Reset(time.Duration(c.interval.Load()))
				}
			}
			continue
		}
		select {
		case <-ctx.Done():
			return false
		case p := <-session.pause:
			if p {
				paused = true
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
		case <-timer.C:
			return true
		}
	}
}

// signalPause forwards a pause or resume signal to the active session
func (c *Client) signalPause(pause bool) {
	c.replayMu.Lock()
	session := c.replay
	c.replayMu.Unlock()
	if session == nil {
		return
	}
	select {
	case session.pause <- pause:
	case <-session.done:
	}
}

// disconnect stops any replay and releases the write pump. Idempotent; the
// hub calls it whenever it drops the client.
func (c *Client) disconnect() {
	c.stopReplay()
	c.closeOnce.Do(func() { close(c.done) })
}

// stopReplay cancels the active replay session, if any
func (c *Client) stopReplay() {
	c.replayMu.Lock()
	session := c.replay
	c.replay = nil
	c.replayMu.Unlock()
	if session != nil {
		session.cancel()
	}
}

// buildRequest converts a play command into a curve request
func (c *Client) buildRequest(cmd Command) (services.CurveRequest, error) {
	var req services.CurveRequest

	if cmd.Start != "" {
		start, err := time.Parse("2006-01-02", cmd.Start)
		if err != nil {
			return req, err
		}
		req.Start = start
	}
	if cmd.End != "" {
		end, err := time.Parse("2006-01-02", cmd.End)
		if err != nil {
			return req, err
		}
		req.End = end
	}
	for _, raw := range cmd.Maturities {
		m, err := curve.ParseMaturity(raw)
		if err != nil {
			return req, err
		}
		req.Maturities = append(req.Maturities, m)
	}
	req.Seed = cmd.Seed
	return req, nil
}

// clampInterval bounds a client-requested interval to the configured range
func (c *Client) clampInterval(ms int) time.Duration {
	if ms <= 0 {
		return DefaultFrameInterval
	}
	interval := time.Duration(ms) * time.Millisecond
	if min := c.hub.cfg.MinFrameInterval; min > 0 && interval < min {
		return min
	}
	if max := c.hub.cfg.MaxFrameInterval; max > 0 && interval > max {
		return max
	}
	return interval
}

// sendEvent queues a typed event, dropping it if the client is backed up
func (c *Client) sendEvent(msgType string, fields map[string]interface{}) {
	select {
	case c.send <- marshalEvent(msgType, fields):
	default:
		c.logger.Warn("event dropped, send buffer full", slog.String("type", msgType))
	}
}

// ServeWS registers a freshly upgraded connection with the hub and starts
// its pumps
func ServeWS(hub *Hub, conn *websocket.Conn, traceID string) {
	client := NewClientWithTrace(hub, conn, traceID, nil)
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
