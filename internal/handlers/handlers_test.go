// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/auth"
	"github.com/jason-s-yu/crazyeights/internal/game"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/jason-s-yu/crazyeights/internal/registry"
	"github.com/jason-s-yu/crazyeights/internal/room"
	"github.com/jason-s-yu/crazyeights/internal/transport"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	srv     *httptest.Server
	issuer  *auth.Issuer
	manager *room.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, _ := test.NewNullLogger()
	issuer, err := auth.NewIssuer(0)
	require.NoError(t, err)
	m := room.NewManager(
		game.NewEngine(game.WithRand(game.NewSeededRand(9))),
		room.WithLogger(logger),
		room.WithPasscodeParams(auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}),
	)
	rs := &RoomServer{Manager: m, Issuer: issuer, Logger: logger, OriginPatterns: []string{"*"}}

	mux := http.NewServeMux()
	mux.HandleFunc("/room/ws", RoomWSHandler(rs))
	mux.HandleFunc("/rooms", ListRoomsHandler(m))
	mux.HandleFunc("/token", TokenHandler(issuer))
	mux.HandleFunc("/modules", ModulesHandler(registry.Default()))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &harness{srv: srv, issuer: issuer, manager: m}
}

func (h *harness) wsURL() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/room/ws"
}

// dial connects as a fresh player and returns the client plus a channel of received states.
func (h *harness) dial(t *testing.T, code, name string) (*transport.WSClient, models.PlayerSnapshot, chan models.GameState) {
	t.Helper()
	player := models.PlayerSnapshot{ID: uuid.New(), Name: name}
	token, err := h.issuer.Issue(player)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := transport.Dial(ctx, h.wsURL(), transport.DialOptions{Token: token, Code: code, Player: player})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	states := make(chan models.GameState, 64)
	c.OnMessage(func(msg transport.Message) {
		if msg.Kind != transport.KindState {
			return
		}
		var st models.GameState
		if err := msg.Decode(&st); err == nil {
			states <- st
		}
	})
	return c, player, states
}

func waitState(t *testing.T, states chan models.GameState, cond func(models.GameState) bool) models.GameState {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case st := <-states:
			if cond(st) {
				return st
			}
		case <-timeout:
			t.Fatal("timed out waiting for state")
		}
	}
}

func TestRoomSocketPlaysARound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	host, hostPlayer, hostStates := h.dial(t, "E2E", "ann")
	require.NoError(t, host.Create(ctx, true, "", nil))
	waitState(t, hostStates, func(st models.GameState) bool { return st.HostID == hostPlayer.ID })

	guest, guestPlayer, guestStates := h.dial(t, "E2E", "bob")
	require.NoError(t, guest.Join(ctx, ""))
	waitState(t, guestStates, func(st models.GameState) bool { return len(st.Players) == 2 })

	require.NoError(t, host.Send(ctx, models.Action{Type: models.ActionStartRound, PlayerID: hostPlayer.ID}))
	st := waitState(t, guestStates, func(st models.GameState) bool { return st.Started })
	assert.Len(t, st.Players, 2)
	var ids []uuid.UUID
	for _, p := range st.Players {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{hostPlayer.ID, guestPlayer.ID}, ids)

	rooms := h.manager.List()
	require.Len(t, rooms, 1)
	assert.Equal(t, "E2E", rooms[0].Code)
	assert.True(t, rooms[0].Started)
}

func TestGuestDisconnectRemovesSeat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	host, hostPlayer, hostStates := h.dial(t, "D", "ann")
	require.NoError(t, host.Create(ctx, false, "", nil))
	waitState(t, hostStates, func(st models.GameState) bool { return st.HostID == hostPlayer.ID })

	guest, _, guestStates := h.dial(t, "D", "bob")
	require.NoError(t, guest.Join(ctx, ""))
	waitState(t, guestStates, func(st models.GameState) bool { return len(st.Players) == 2 })

	require.NoError(t, guest.Close())
	waitState(t, hostStates, func(st models.GameState) bool { return len(st.Players) == 1 })
}

func TestRoomSocketRequiresToken(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, h.wsURL(), &websocket.DialOptions{Subprotocols: []string{transport.Subprotocol}})
	require.NoError(t, err)
	defer c.CloseNow()

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, InvalidAuthTokenError, websocket.CloseStatus(err))
}

func TestRoomSocketRequiresSubprotocol(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, h.wsURL(), nil)
	require.NoError(t, err)
	defer c.CloseNow()

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, BadSubprotocolError, websocket.CloseStatus(err))
}

func TestTokenHandler(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Post(h.srv.URL+"/token", "application/json", bytes.NewBufferString(`{"name":"  ann "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ann", body.Player.Name)

	who, err := h.issuer.Authenticate(body.Token)
	require.NoError(t, err)
	assert.Equal(t, body.Player, who)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "auth_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, body.Token, cookie.Value)
}

func TestTokenHandlerRejectsBadNames(t *testing.T) {
	issuer, err := auth.NewIssuer(0)
	require.NoError(t, err)
	handler := TokenHandler(issuer)

	for _, body := range []string{`{"name":""}`, `{"name":"` + strings.Repeat("x", 33) + `"}`, `nope`} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/token", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestListRoomsHandler(t *testing.T) {
	h := newHarness(t)

	w := httptest.NewRecorder()
	ListRoomsHandler(h.manager).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestModulesHandler(t *testing.T) {
	w := httptest.NewRecorder()
	ModulesHandler(registry.Default()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/modules", nil))

	var mods []moduleInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mods))
	require.Len(t, mods, 1)
	assert.Equal(t, registry.CrazyEightsID, mods[0].ID)
	assert.Equal(t, 8, mods[0].MaxPlayers)
}

func TestExtractCookieToken(t *testing.T) {
	assert.Equal(t, "abc", extractCookieToken("theme=dark; auth_token=abc; x=1", "auth_token"))
	assert.Equal(t, "abc", extractCookieToken("auth_token=abc", "auth_token"))
	assert.Equal(t, "", extractCookieToken("not_auth_token=abc", "auth_token"))
	assert.Equal(t, "", extractCookieToken("", "auth_token"))
}

func TestConnPeerOverflowCloses(t *testing.T) {
	cancelled := false
	p := newConnPeer(uuid.New(), func() { cancelled = true })
	for i := 0; i < outBuffer; i++ {
		require.True(t, p.Send(room.ErrorMessage("x")))
	}
	assert.False(t, p.Send(room.ErrorMessage("x")))
	assert.True(t, p.Closed())
	assert.True(t, p.overflowed())
	assert.True(t, cancelled)
	assert.False(t, p.Send(room.ErrorMessage("x")))
}

func TestRoomSocketUpdatesRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	host, hostPlayer, hostStates := h.dial(t, "R", "ann")
	require.NoError(t, host.Create(ctx, false, "", nil))
	waitState(t, hostStates, func(st models.GameState) bool { return st.HostID == hostPlayer.ID })

	require.NoError(t, host.UpdateRules(ctx, map[string]interface{}{"fogEnabled": true, "fogBlindTurns": 3}))
	st := waitState(t, hostStates, func(st models.GameState) bool { return st.Config.FogEnabled })
	assert.Equal(t, 3, st.Config.FogBlindTurns)
}
