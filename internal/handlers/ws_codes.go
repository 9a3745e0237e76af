// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the room socket.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError websocket.StatusCode = 3001 // auth_token cookie missing, invalid or expired.
	SlowConsumerError     websocket.StatusCode = 3002 // Client fell too far behind on outgoing messages.
)
