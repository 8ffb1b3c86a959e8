package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"curvepulse/internal/config"
)

func testWSHandlerConfig() config.WebSocketConfig {
	return config.Default().WebSocket
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "empty list allows everything", allowed: nil, origin: "http://evil.example", want: true},
		{name: "wildcard allows everything", allowed: []string{"*"}, origin: "http://evil.example", want: true},
		{name: "listed origin", allowed: []string{"http://localhost:8050"}, origin: "http://localhost:8050", want: true},
		{name: "unlisted origin", allowed: []string{"http://localhost:8050"}, origin: "http://evil.example", want: false},
		{name: "no origin header", allowed: []string{"http://localhost:8050"}, origin: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := originChecker(tt.allowed)
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, check(req))
		})
	}
}

func TestWebSocketHandler_RejectsPlainGet(t *testing.T) {
	handler := NewWebSocketHandler(nil, testWSHandlerConfig(), nil, testLogger(), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	// Without upgrade headers gorilla answers 400 itself.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
