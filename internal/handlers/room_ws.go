// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/auth"
	"github.com/jason-s-yu/crazyeights/internal/middleware"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/jason-s-yu/crazyeights/internal/room"
	"github.com/jason-s-yu/crazyeights/internal/transport"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// RoomServer wires the room socket and the HTTP endpoints to a room.Manager.
type RoomServer struct {
	Manager        *room.Manager
	Issuer         *auth.Issuer
	Logger         logrus.FieldLogger
	OriginPatterns []string
}

// RoomWSHandler accepts a room socket. The caller's identity comes from the auth_token cookie;
// every message must name that identity as its sender or it is dropped.
func RoomWSHandler(srv *RoomServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := srv.Logger
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{transport.Subprotocol},
			OriginPatterns: srv.OriginPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != transport.Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the "+transport.Subprotocol+" subprotocol")
			return
		}

		token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
		if token == "" {
			c.Close(InvalidAuthTokenError, "missing auth_token")
			return
		}
		self, err := srv.Issuer.Authenticate(token)
		if err != nil {
			logger.Debugf("rejecting room socket: %v", err)
			c.Close(InvalidAuthTokenError, "invalid auth_token")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		peer := newConnPeer(self.ID, cancel)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, self.ID)

		go writePump(ctx, c, peer, logger)
		err = readPump(ctx, c, srv.Manager, peer, self, logger)

		peer.close()
		srv.Manager.Disconnect(peer)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, self.ID, err)
		if peer.overflowed() {
			c.Close(SlowConsumerError, "too slow")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump feeds decoded client messages to the manager until the socket fails. A normal close
// returns nil.
func readPump(ctx context.Context, c *websocket.Conn, m *room.Manager, peer *connPeer, self models.PlayerSnapshot, logger logrus.FieldLogger) error {
	log := logger.WithField("player", self.ID)
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			log.Debugf("ignoring non-text frame %d", typ)
			continue
		}

		msg, err := room.DecodeClientMessage(data)
		if err != nil {
			log.WithError(err).Debug("dropping malformed client message")
			continue
		}
		if sender := msg.SenderID(); sender != uuid.Nil && sender != self.ID {
			log.WithField("claimed", sender).Warn("dropping message sent on behalf of another player")
			continue
		}
		m.Handle(peer, msg)
	}
}

func writePump(ctx context.Context, c *websocket.Conn, peer *connPeer, logger logrus.FieldLogger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	log := logger.WithField("player", peer.playerID)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-peer.out:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, c, msg)
			cancel()
			if err != nil {
				log.WithError(err).Debug("room socket write failed")
				peer.close()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.WithError(err).Debug("ping failed, assuming disconnect")
				peer.close()
				return
			}
		}
	}
}

// ListRoomsHandler serves the public room list as JSON.
func ListRoomsHandler(m *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rooms := m.List()
		if rooms == nil {
			rooms = []models.RoomSummary{}
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
