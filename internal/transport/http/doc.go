// Package http implements the HTTP transport for the curve service. It is a
// thin layer between chi routing and the service layer: handlers parse and
// validate query parameters, delegate to services, and translate service
// errors into RFC 7807 problem responses.
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Domain
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// WebSocket upgrades are handled here as well; after the upgrade the
// connection is owned by the websocket hub.
package http
