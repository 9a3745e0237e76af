package transport

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inbox struct {
	msgs   []Message
	joined []models.PlayerSnapshot
	left   []uuid.UUID
}

func listen(t Transport) *inbox {
	in := &inbox{}
	t.OnMessage(func(m Message) { in.msgs = append(in.msgs, m) })
	t.OnPeerConnected(func(p models.PlayerSnapshot) { in.joined = append(in.joined, p) })
	t.OnPeerDisconnected(func(id uuid.UUID) { in.left = append(in.left, id) })
	return in
}

func player(name string) models.PlayerSnapshot {
	return models.PlayerSnapshot{ID: uuid.New(), Name: name}
}

func TestHubConnectAnnouncesPeers(t *testing.T) {
	hub := NewHub()
	a, b := player("ann"), player("bob")

	host, err := hub.Connect(a, true)
	require.NoError(t, err)
	hostIn := listen(host)

	guest, err := hub.Connect(b, false)
	require.NoError(t, err)
	assert.Equal(t, []models.PlayerSnapshot{b}, hostIn.joined)
	assert.True(t, host.IsHost())
	assert.False(t, guest.IsHost())
	assert.Equal(t, b.ID, guest.LocalID())

	_, err = hub.Connect(player("eve"), true)
	assert.Error(t, err, "one host per hub")
	_, err = hub.Connect(b, false)
	assert.Error(t, err, "duplicate player")
}

func TestHubSendReachesHost(t *testing.T) {
	hub := NewHub()
	a, b := player("ann"), player("bob")
	host, _ := hub.Connect(a, true)
	guest, _ := hub.Connect(b, false)
	hostIn, guestIn := listen(host), listen(guest)
	ctx := context.Background()

	require.NoError(t, guest.Send(ctx, models.Action{Type: models.ActionIntentDraw, PlayerID: b.ID}))
	require.NoError(t, host.Send(ctx, models.Action{Type: models.ActionStartRound}))

	require.Len(t, hostIn.msgs, 2)
	assert.Empty(t, guestIn.msgs)
	assert.Equal(t, b.ID, hostIn.msgs[0].From)
	assert.Equal(t, KindAction, hostIn.msgs[0].Kind)

	var got models.Action
	require.NoError(t, hostIn.msgs[0].Decode(&got))
	assert.Equal(t, models.ActionIntentDraw, got.Type)
	assert.Equal(t, a.ID, hostIn.msgs[1].From)
}

func TestHubBroadcastIsHostOnly(t *testing.T) {
	hub := NewHub()
	host, _ := hub.Connect(player("ann"), true)
	b, _ := hub.Connect(player("bob"), false)
	c, _ := hub.Connect(player("cat"), false)
	hostIn, bIn, cIn := listen(host), listen(b), listen(c)
	ctx := context.Background()

	st := models.NewGameState()
	st.HostID = host.LocalID()
	assert.ErrorIs(t, b.Broadcast(ctx, st), ErrNotHost)
	require.NoError(t, host.Broadcast(ctx, st))

	assert.Empty(t, hostIn.msgs)
	for _, in := range []*inbox{bIn, cIn} {
		require.Len(t, in.msgs, 1)
		assert.Equal(t, KindState, in.msgs[0].Kind)
		var got models.GameState
		require.NoError(t, in.msgs[0].Decode(&got))
		assert.Equal(t, host.LocalID(), got.HostID)
	}
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	host, _ := hub.Connect(player("ann"), true)
	guest, _ := hub.Connect(player("bob"), false)
	guestIn := listen(guest)

	require.NoError(t, host.Close())
	require.NoError(t, host.Close())
	assert.Equal(t, []uuid.UUID{host.LocalID()}, guestIn.left)

	assert.ErrorIs(t, host.Send(context.Background(), models.Action{Type: models.ActionStartRound}), ErrClosed)
	assert.NoError(t, guest.Send(context.Background(), models.Action{Type: models.ActionCallUno, PlayerID: guest.LocalID()}), "no host means the action is lost")

	_, err := hub.Connect(player("dan"), true)
	assert.NoError(t, err, "host seat is free again")
}
