package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"curvepulse/internal/config"
	apierrors "curvepulse/internal/errors"
	"curvepulse/internal/infrastructure"
	ws "curvepulse/internal/websocket"
)

// WebSocketHandler upgrades HTTP connections and hands them to the hub
type WebSocketHandler struct {
	hub          *ws.Hub
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewWebSocketHandler creates the upgrade handler. An empty origin list, or
// one containing "*", accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger:       logger.With(slog.String("handler", "websocket")),
		errorHandler: errorHandler,
	}
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	traceID := infrastructure.GetTraceID(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own response; log and record only.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
		)
		return
	}

	h.logger.InfoContext(r.Context(), "websocket connection established",
		slog.String("remote_addr", conn.RemoteAddr().String()),
		slog.String("trace_id", traceID),
	)

	ws.ServeWS(h.hub, conn, traceID)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, origin := range allowed {
		if origin == "*" {
			wildcard = true
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		if wildcard {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
