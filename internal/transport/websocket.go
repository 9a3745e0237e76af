// internal/transport/websocket.go
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/jason-s-yu/crazyeights/internal/room"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the WebSocket subprotocol spoken by the room server.
const Subprotocol = "crazyeights"

// DialOptions configures a WebSocket client.
type DialOptions struct {
	// Token is the identity token presented as the auth_token cookie.
	Token  string
	Code   string
	Player models.PlayerSnapshot
	Logger logrus.FieldLogger
}

// WSClient is a Transport backed by a room-server WebSocket. The server holds the authoritative
// state, so a WSClient is never the host. Roster changes seen in state updates are reported as
// peer connects and disconnects, always before the state message that revealed them.
type WSClient struct {
	conn   *websocket.Conn
	code   string
	player models.PlayerSnapshot
	log    logrus.FieldLogger

	mu     sync.Mutex
	h      handlers
	roster map[uuid.UUID]bool
	closed bool

	cancel context.CancelFunc
	done   chan struct{}
}

var _ Transport = (*WSClient)(nil)

// Dial connects to url and starts reading. Register callbacks before calling Create or Join.
func Dial(ctx context.Context, url string, opts DialOptions) (*WSClient, error) {
	header := http.Header{}
	if opts.Token != "" {
		header.Set("Cookie", "auth_token="+opts.Token)
	}
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader:   header,
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	logger := opts.Logger
	if logger == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		logger = quiet
	}
	readCtx, cancel := context.WithCancel(context.Background())
	c := &WSClient{
		conn:   conn,
		code:   opts.Code,
		player: opts.Player,
		log:    logger.WithFields(logrus.Fields{"room": opts.Code, "player": opts.Player.ID}),
		roster: make(map[uuid.UUID]bool),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.readLoop(readCtx)
	return c, nil
}

func (c *WSClient) LocalID() uuid.UUID { return c.player.ID }

func (c *WSClient) IsHost() bool { return false }

func (c *WSClient) write(ctx context.Context, msg room.ClientMessage) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	return nil
}

// Create asks the server to open the room this client was dialed for, with itself as host.
func (c *WSClient) Create(ctx context.Context, isPublic bool, passcode string, settings *models.Settings) error {
	host := c.player
	return c.write(ctx, room.ClientMessage{
		Type:     room.MsgCreateRoom,
		Code:     c.code,
		Host:     &host,
		IsPublic: isPublic,
		Passcode: passcode,
		Settings: settings,
	})
}

// Join asks the server to add this client to its room.
func (c *WSClient) Join(ctx context.Context, passcode string) error {
	p := c.player
	return c.write(ctx, room.ClientMessage{Type: room.MsgJoinRoom, Code: c.code, Player: &p, Passcode: passcode})
}

// RequestRoomList asks for the public room list; it arrives as a KindRoomList message.
func (c *WSClient) RequestRoomList(ctx context.Context) error {
	return c.write(ctx, room.ClientMessage{Type: room.MsgRequestRoomList})
}

// SetReady publishes this player's readiness.
func (c *WSClient) SetReady(ctx context.Context, ready bool) error {
	return c.write(ctx, room.ClientMessage{Type: room.MsgReadyUpdate, Code: c.code, PlayerID: c.player.ID, IsReady: ready})
}

// UpdateRules asks the server to merge a partial rules map into the room settings. Only the host's
// request takes effect.
func (c *WSClient) UpdateRules(ctx context.Context, rules map[string]interface{}) error {
	return c.write(ctx, room.ClientMessage{Type: room.MsgUpdateRules, Code: c.code, PlayerID: c.player.ID, Rules: rules})
}

func (c *WSClient) Send(ctx context.Context, action models.Action) error {
	return c.write(ctx, room.ClientMessage{Type: room.MsgSendAction, Code: c.code, PlayerID: c.player.ID, Action: &action})
}

func (c *WSClient) Broadcast(context.Context, models.GameState) error {
	return ErrNotHost
}

func (c *WSClient) OnMessage(fn func(Message)) {
	c.mu.Lock()
	c.h.message = fn
	c.mu.Unlock()
}

func (c *WSClient) OnPeerConnected(fn func(models.PlayerSnapshot)) {
	c.mu.Lock()
	c.h.connected = fn
	c.mu.Unlock()
}

func (c *WSClient) OnPeerDisconnected(fn func(uuid.UUID)) {
	c.mu.Lock()
	c.h.disconnected = fn
	c.mu.Unlock()
}

func (c *WSClient) callbacks() handlers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.h
}

// Close shuts the connection and waits for the read loop to exit.
func (c *WSClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	// The server may already have closed its side; that is not worth reporting.
	if err := c.conn.Close(websocket.StatusNormalClosure, "client closing"); err != nil {
		c.log.WithError(err).Debug("close handshake failed")
	}
	c.cancel()
	<-c.done
	return nil
}

func (c *WSClient) readLoop(ctx context.Context) {
	defer close(c.done)
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				c.log.WithError(err).Warn("room connection read failed")
			}
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		var msg room.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.WithError(err).Warn("dropping undecodable server message")
			continue
		}
		c.dispatch(msg)
	}
}

func (c *WSClient) dispatch(msg room.ServerMessage) {
	cb := c.callbacks()
	var (
		kind    Kind
		payload any
	)
	switch msg.Type {
	case room.MsgRoomJoined, room.MsgStateUpdated:
		if msg.State == nil {
			return
		}
		c.diffRoster(cb, msg.State.Players)
		kind, payload = KindState, msg.State
	case room.MsgError:
		kind, payload = KindError, msg.Message
	case room.MsgRoomList:
		kind, payload = KindRoomList, msg.Rooms
	case room.MsgReadySnapshot:
		kind, payload = KindReady, msg.ReadyPlayerIDs
	default:
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.WithError(err).Warn("failed to re-encode server payload")
		return
	}
	cb.emitMessage(Message{Kind: kind, Payload: raw})
}

func (c *WSClient) diffRoster(cb handlers, players []models.Player) {
	c.mu.Lock()
	seen := make(map[uuid.UUID]bool, len(players))
	var joined []models.PlayerSnapshot
	for _, p := range players {
		seen[p.ID] = true
		if !c.roster[p.ID] && p.ID != c.player.ID {
			joined = append(joined, models.PlayerSnapshot{ID: p.ID, Name: p.Name})
		}
	}
	var left []uuid.UUID
	for id := range c.roster {
		if !seen[id] && id != c.player.ID {
			left = append(left, id)
		}
	}
	c.roster = seen
	c.mu.Unlock()

	for _, id := range left {
		cb.emitDisconnected(id)
	}
	for _, p := range joined {
		cb.emitConnected(p)
	}
}
