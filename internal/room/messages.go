// internal/room/messages.go
package room

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
)

// ClientMessageType tags messages a client sends to the room server.
type ClientMessageType string

const (
	MsgCreateRoom      ClientMessageType = "createRoom"
	MsgJoinRoom        ClientMessageType = "joinRoom"
	MsgSendAction      ClientMessageType = "sendAction"
	MsgRequestRoomList ClientMessageType = "requestRoomList"
	MsgReadyUpdate     ClientMessageType = "readyUpdate"
	MsgUpdateRules     ClientMessageType = "updateRules"
)

// ServerMessageType tags messages the room server sends to clients.
type ServerMessageType string

const (
	MsgRoomJoined    ServerMessageType = "roomJoined"
	MsgStateUpdated  ServerMessageType = "stateUpdated"
	MsgError         ServerMessageType = "error"
	MsgRoomList      ServerMessageType = "roomList"
	MsgReadySnapshot ServerMessageType = "readySnapshot"
)

// ClientMessage is the union of every client->server message. Only the fields relevant to Type
// are read.
type ClientMessage struct {
	Type     ClientMessageType      `json:"type"`
	Code     string                 `json:"code,omitempty"`
	Host     *models.PlayerSnapshot `json:"host,omitempty"`
	Player   *models.PlayerSnapshot `json:"player,omitempty"`
	IsPublic bool                   `json:"isPublic,omitempty"`
	Passcode string                 `json:"passcode,omitempty"`
	Settings *models.Settings       `json:"settings,omitempty"`
	PlayerID uuid.UUID              `json:"playerId,omitempty"`
	Action   *models.Action         `json:"action,omitempty"`
	IsReady  bool                   `json:"isReady,omitempty"`
	Rules    map[string]interface{} `json:"rules,omitempty"` // partial settings keyed by JSON name
}

// ServerMessage is the union of every server->client message.
type ServerMessage struct {
	Type           ServerMessageType       `json:"type"`
	Code           string                  `json:"code,omitempty"`
	Players        []models.PlayerSnapshot `json:"players,omitempty"`
	State          *models.GameState       `json:"state,omitempty"`
	Message        string                  `json:"message,omitempty"`
	Rooms          []models.RoomSummary    `json:"rooms,omitempty"`
	ReadyPlayerIDs []uuid.UUID             `json:"readyPlayerIds,omitempty"`
}

// DecodeClientMessage parses a frame and rejects messages missing the fields their type needs.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("decode client message: %w", err)
	}
	switch msg.Type {
	case MsgCreateRoom:
		if msg.Code == "" || msg.Host == nil || msg.Host.ID == uuid.Nil {
			return ClientMessage{}, fmt.Errorf("createRoom: code and host are required")
		}
	case MsgJoinRoom:
		if msg.Code == "" || msg.Player == nil || msg.Player.ID == uuid.Nil {
			return ClientMessage{}, fmt.Errorf("joinRoom: code and player are required")
		}
	case MsgSendAction:
		if msg.Code == "" || msg.PlayerID == uuid.Nil || msg.Action == nil {
			return ClientMessage{}, fmt.Errorf("sendAction: code, playerId and action are required")
		}
	case MsgReadyUpdate:
		if msg.Code == "" || msg.PlayerID == uuid.Nil {
			return ClientMessage{}, fmt.Errorf("readyUpdate: code and playerId are required")
		}
	case MsgUpdateRules:
		if msg.Code == "" || msg.PlayerID == uuid.Nil || len(msg.Rules) == 0 {
			return ClientMessage{}, fmt.Errorf("updateRules: code, playerId and rules are required")
		}
	case MsgRequestRoomList:
	default:
		return ClientMessage{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return msg, nil
}

// SenderID is the player a message claims to come from, or uuid.Nil for room listing.
func (m ClientMessage) SenderID() uuid.UUID {
	switch m.Type {
	case MsgCreateRoom:
		return m.Host.ID
	case MsgJoinRoom:
		return m.Player.ID
	}
	return m.PlayerID
}

func roomJoined(code string, players []models.PlayerSnapshot, st models.GameState) ServerMessage {
	return ServerMessage{Type: MsgRoomJoined, Code: code, Players: players, State: &st}
}

func stateUpdated(code string, st models.GameState) ServerMessage {
	return ServerMessage{Type: MsgStateUpdated, Code: code, State: &st}
}

// ErrorMessage builds the error(message) reply.
func ErrorMessage(text string) ServerMessage {
	return ServerMessage{Type: MsgError, Message: text}
}

func roomList(rooms []models.RoomSummary) ServerMessage {
	return ServerMessage{Type: MsgRoomList, Rooms: rooms}
}

func readySnapshot(code string, ids []uuid.UUID) ServerMessage {
	return ServerMessage{Type: MsgReadySnapshot, Code: code, ReadyPlayerIDs: ids}
}
