package game

import (
	"testing"
	"time"

	"github.com/npezzotti/go-askroom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom(t *testing.T, maxPlayers int) *Room {
	return &Room{
		id:         "ab12",
		secret:     "test-secret",
		maxPlayers: maxPlayers,
		log:        testutil.TestLogger(t),
	}
}

func newTestPlayer(t *testing.T, name, connId string) (*Player, *fakeChannel) {
	p := NewPlayer(testutil.TestLogger(t))
	p.SetName(name)
	ch := newFakeChannel(connId)
	p.AttachChannel(ch)
	return p, ch
}

func TestRoomJoin_EmptyName(t *testing.T) {
	room := newTestRoom(t, 10)
	p, ch := newTestPlayer(t, "   ", "conn-1")

	res := room.Join(p)
	assert.Equal(t, JoinRejectedEmptyName, res.Status, "expected blank name to be rejected")
	assert.Zero(t, room.PlayerCount(), "expected roster to be unchanged")
	assert.True(t, ch.hasText("Player name cannot be nothing."), "expected player to be told why")
}

func TestRoomJoin_Accepted(t *testing.T) {
	room := newTestRoom(t, 10)
	p, ch := newTestPlayer(t, "ALICE", "conn-1")

	res := room.Join(p)
	assert.Equal(t, JoinAccepted, res.Status, "expected join to succeed")
	assert.Same(t, p, res.Player, "expected the joining identity to be the participant")
	assert.Equal(t, 1, room.PlayerCount(), "expected one roster member")
	assert.True(t, ch.hasText("Welcome ALICE, you joined room ab12."), "expected welcome message")
	assert.True(t, ch.hasEvent(EventSetImage), "expected displayed image to be cleared on join")
}

func TestRoomJoin_DuplicateName(t *testing.T) {
	room := newTestRoom(t, 10)
	p1, _ := newTestPlayer(t, "ALICE", "conn-1")
	require.Equal(t, JoinAccepted, room.Join(p1).Status)

	// case-insensitive collision with a reachable member
	p2, ch2 := newTestPlayer(t, "alice", "conn-2")
	res := room.Join(p2)
	assert.Equal(t, JoinRejectedDuplicate, res.Status, "expected duplicate name to be rejected while first is reachable")
	assert.Equal(t, 1, room.PlayerCount(), "expected roster to be unchanged")
	assert.True(t, ch2.hasText("A user by that name is already in room ab12."), "expected duplicate notice")
}

func TestRoomJoin_Absorption(t *testing.T) {
	room := newTestRoom(t, 10)
	p1, _ := newTestPlayer(t, "ALICE", "conn-1")
	require.Equal(t, JoinAccepted, room.Join(p1).Status)

	p1.DetachChannel()

	p2, ch2 := newTestPlayer(t, "ALICE", "conn-2")
	res := room.Join(p2)

	assert.Equal(t, JoinAbsorbed, res.Status, "expected reconnect by name to absorb")
	assert.Same(t, p1, res.Player, "expected the original identity to survive")
	assert.Equal(t, 1, room.PlayerCount(), "expected roster size to be unchanged")
	assert.True(t, p1.IsReachable(), "expected survivor to own the new connection")
	assert.False(t, p2.IsReachable(), "expected the new identity to be discarded")

	idMsg := ch2.find(EventPlayerId)
	require.NotNil(t, idMsg, "expected the new connection to be sent a player id")
	assert.Equal(t, p1.ID(), idMsg.PlayerId, "expected the original player id to be preserved")
	assert.True(t, ch2.hasText("Welcome back ALICE, you joined room ab12."), "expected welcome-back message")

	reconnected := room.DrainReconnects()
	require.Len(t, reconnected, 1, "expected one recorded reconnect")
	assert.Same(t, p1, reconnected[0], "expected the surviving identity in the reconnect log")
	assert.Empty(t, room.DrainReconnects(), "expected draining to clear the log")
}

func TestRoomJoin_ReplaysLastPromptOnReconnect(t *testing.T) {
	room := newTestRoom(t, 10)
	p1, _ := newTestPlayer(t, "ALICE", "conn-1")
	require.Equal(t, JoinAccepted, room.Join(p1).Status)

	prompt := TextboxMsg("Question one")
	p1.SetLastPrompt(prompt)
	p1.DetachChannel()

	p2, ch2 := newTestPlayer(t, "ALICE", "conn-2")
	require.Equal(t, JoinAbsorbed, room.Join(p2).Status)

	assert.Equal(t, prompt, ch2.last(), "expected the mid-question prompt to be replayed on reconnect")
}

func TestRoomJoin_Full(t *testing.T) {
	room := newTestRoom(t, 1)
	p1, _ := newTestPlayer(t, "ALICE", "conn-1")
	require.Equal(t, JoinAccepted, room.Join(p1).Status)

	p2, ch2 := newTestPlayer(t, "BOB", "conn-2")
	res := room.Join(p2)
	assert.Equal(t, JoinRejectedFull, res.Status, "expected join to a full room to be rejected")
	assert.True(t, ch2.hasText("Room is full."), "expected full notice")
}

func TestRoomJoin_Locked(t *testing.T) {
	room := newTestRoom(t, 10)
	room.SetLocked(true)

	p, ch := newTestPlayer(t, "ALICE", "conn-1")
	res := room.Join(p)
	assert.Equal(t, JoinRejectedLocked, res.Status, "expected join to a locked room to be rejected")
	assert.Zero(t, room.PlayerCount(), "expected roster to be unchanged")
	assert.True(t, ch.hasText("Room is locked."), "expected locked notice")
}

func TestRoom_PlayerLookup(t *testing.T) {
	room := newTestRoom(t, 10)
	p, _ := newTestPlayer(t, "ALICE", "conn-1")
	require.Equal(t, JoinAccepted, room.Join(p).Status)

	found, err := room.Player(p.ID())
	assert.NoError(t, err, "expected lookup of a roster member to succeed")
	assert.Same(t, p, found, "expected the roster member")

	_, err = room.Player("nonexistent")
	assert.ErrorIs(t, err, ErrPlayerNotFound, "expected unknown id to report not found")
}

func TestRoom_IsIdle(t *testing.T) {
	room := newTestRoom(t, 10)
	assert.True(t, room.IsIdle(), "expected empty room to be idle")

	p, _ := newTestPlayer(t, "ALICE", "conn-1")
	require.Equal(t, JoinAccepted, room.Join(p).Status)
	assert.False(t, room.IsIdle(), "expected room with a reachable member to be active")

	p.DetachChannel()
	assert.True(t, room.IsIdle(), "expected room with only unreachable members to be idle")
}

func TestRoom_IdleAccumulator(t *testing.T) {
	room := newTestRoom(t, 10)

	assert.False(t, room.addIdle(10*time.Minute, 15*time.Minute), "expected room under grace to survive")
	assert.True(t, room.addIdle(6*time.Minute, 15*time.Minute), "expected accumulated idle time past grace")

	room.resetIdle()
	assert.False(t, room.addIdle(time.Minute, 15*time.Minute), "expected accumulator to restart from zero")
}

func TestRoom_Authorize(t *testing.T) {
	room := newTestRoom(t, 10)
	assert.True(t, room.Authorize("test-secret"), "expected matching key to authorize")
	assert.False(t, room.Authorize("wrong"), "expected mismatched key to be refused")
	assert.False(t, room.Authorize(""), "expected empty key to be refused")
}
