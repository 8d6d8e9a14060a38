package gameserver_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/uno/internal/config"
	"github.com/cory-johannsen/uno/internal/game/random"
	"github.com/cory-johannsen/uno/internal/game/room"
	"github.com/cory-johannsen/uno/internal/game/session"
	"github.com/cory-johannsen/uno/internal/gameserver"
	"github.com/cory-johannsen/uno/internal/protocol"
	"github.com/cory-johannsen/uno/internal/testutil"
)

const wait = time.Second

type client struct {
	sess *session.Session
	tr   *testutil.Transport
}

func newDirectory(t *testing.T) *gameserver.Directory {
	t.Helper()
	cfg := config.GameConfig{MaxPlayers: 4, HandSize: 7, MaxNameLength: 16}
	return gameserver.NewDirectory("srv", cfg, session.NewManager(), random.NewSeededSource(7), zaptest.NewLogger(t))
}

func envelope(t *testing.T, kind protocol.Kind, payload any) protocol.Envelope {
	t.Helper()
	env, err := protocol.NewEnvelope(kind, "client", payload)
	require.NoError(t, err)
	return env
}

func send(t *testing.T, dir *gameserver.Directory, c client, kind protocol.Kind, payload any) bool {
	t.Helper()
	return dir.Dispatch(c.sess, envelope(t, kind, payload))
}

func connect(t *testing.T, dir *gameserver.Directory, name string) client {
	t.Helper()
	tr := testutil.NewTransport()
	c := client{sess: dir.NewSession(tr), tr: tr}
	require.False(t, send(t, dir, c, protocol.KindConnect, name))

	accept := tr.Next(t, wait)
	require.Equal(t, protocol.KindConnectAccept, accept.Kind)
	var id string
	require.NoError(t, accept.DecodePayload(&id))
	require.Equal(t, c.sess.PlayerID(), id)
	require.Equal(t, protocol.KindRoomList, tr.Next(t, wait).Kind)
	return c
}

func errorText(t *testing.T, c client) string {
	t.Helper()
	env := c.tr.NextOf(t, protocol.KindError, wait)
	var text string
	require.NoError(t, env.DecodePayload(&text))
	return text
}

func latestRoomList(t *testing.T, c client) []protocol.RoomSummary {
	t.Helper()
	var list []protocol.RoomSummary
	require.NoError(t, c.tr.NextOf(t, protocol.KindRoomList, wait).DecodePayload(&list))
	return list
}

func createRoom(t *testing.T, dir *gameserver.Directory, c client, name string) string {
	t.Helper()
	send(t, dir, c, protocol.KindCreateRoom, name)
	var snap protocol.RoomSnapshot
	require.NoError(t, c.tr.NextOf(t, protocol.KindRoomUpdate, wait).DecodePayload(&snap))
	c.tr.Drain()
	return snap.ID
}

func TestConnect(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "  ann  ")

	assert.Equal(t, "ann", ann.sess.Name())
	_, ok := dir.Sessions().Get(ann.sess.PlayerID())
	assert.True(t, ok)

	send(t, dir, ann, protocol.KindConnect, "again")
	assert.Contains(t, errorText(t, ann), "already connected")
	assert.Equal(t, 1, dir.Sessions().PlayerCount())
}

func TestConnectRejectsInvalidNames(t *testing.T) {
	dir := newDirectory(t)
	tr := testutil.NewTransport()
	c := client{sess: dir.NewSession(tr), tr: tr}

	for _, name := range []string{"", "   ", strings.Repeat("x", 17)} {
		send(t, dir, c, protocol.KindConnect, name)
		assert.Equal(t, protocol.KindConnectReject, tr.Next(t, wait).Kind, "name %q", name)
		assert.False(t, c.sess.Connected())
	}

	send(t, dir, c, protocol.KindConnect, "ann")
	assert.Equal(t, protocol.KindConnectAccept, tr.Next(t, wait).Kind)
}

func TestRequestsBeforeConnect(t *testing.T) {
	dir := newDirectory(t)
	tr := testutil.NewTransport()
	c := client{sess: dir.NewSession(tr), tr: tr}

	assert.False(t, send(t, dir, c, protocol.KindCreateRoom, "den"))
	assert.Contains(t, errorText(t, c), gameserver.ErrNotConnected.Error())
	assert.Empty(t, dir.RoomList())

	assert.True(t, send(t, dir, c, protocol.KindDisconnect, nil))
}

func TestUnknownAndMalformedRequests(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")

	assert.False(t, dir.Dispatch(ann.sess, protocol.Envelope{Kind: "SHUFFLE"}))
	assert.Contains(t, errorText(t, ann), "unknown message kind")

	assert.False(t, send(t, dir, ann, protocol.KindGameUpdate, nil))
	assert.Contains(t, errorText(t, ann), `"GAME_UPDATE" is sent by the server only`)

	assert.False(t, dir.Dispatch(ann.sess, protocol.Envelope{Kind: protocol.KindPlayCard}))
	assert.Contains(t, errorText(t, ann), "request:")

	assert.True(t, ann.sess.Running(), "rejections keep the connection open")
}

func TestCreateAndJoinRoom(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	bob := connect(t, dir, "bob")

	send(t, dir, ann, protocol.KindCreateRoom, "den")
	var snap protocol.RoomSnapshot
	require.NoError(t, ann.tr.NextOf(t, protocol.KindRoomUpdate, wait).DecodePayload(&snap))
	assert.Equal(t, ann.sess.PlayerID(), snap.HostID)

	list := latestRoomList(t, bob)
	require.Len(t, list, 1)
	assert.Equal(t, protocol.RoomSummary{ID: snap.ID, Name: "den", HostName: "ann", PlayerCount: 1}, list[0])

	send(t, dir, bob, protocol.KindJoinRoom, snap.ID)
	require.NoError(t, ann.tr.NextOf(t, protocol.KindRoomUpdate, wait).DecodePayload(&snap))
	assert.Len(t, snap.Members, 2)
	list = latestRoomList(t, bob)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].PlayerCount)

	rm, err := dir.RoomOf(bob.sess.PlayerID())
	require.NoError(t, err)
	assert.Equal(t, snap.ID, rm.ID())
	assert.Equal(t, snap.ID, bob.sess.RoomID())
	assert.ElementsMatch(t,
		[]string{ann.sess.PlayerID(), bob.sess.PlayerID()},
		dir.Sessions().PlayerIDsInRoom(snap.ID),
	)
}

func TestCreateRoomDefaultName(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	createRoom(t, dir, ann, "")

	list := dir.RoomList()
	require.Len(t, list, 1)
	assert.Equal(t, "ann's room", list[0].Name)
}

func TestRoomListKeepsCreationOrder(t *testing.T) {
	dir := newDirectory(t)
	names := []string{"one", "two", "three"}
	for _, n := range names {
		createRoom(t, dir, connect(t, dir, n), n)
	}
	var got []string
	for _, s := range dir.RoomList() {
		got = append(got, s.Name)
	}
	assert.Equal(t, names, got)
}

func TestMembershipRejections(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	roomID := createRoom(t, dir, ann, "den")

	send(t, dir, ann, protocol.KindCreateRoom, "second")
	assert.Equal(t, "create room: "+gameserver.ErrAlreadyInRoom.Error(), errorText(t, ann))

	send(t, dir, ann, protocol.KindJoinRoom, roomID)
	assert.Contains(t, errorText(t, ann), gameserver.ErrAlreadyInRoom.Error())

	bob := connect(t, dir, "bob")
	send(t, dir, bob, protocol.KindJoinRoom, "no-such-room")
	assert.Equal(t, "join room: "+gameserver.ErrRoomNotFound.Error(), errorText(t, bob))

	send(t, dir, bob, protocol.KindLeaveRoom, nil)
	assert.Contains(t, errorText(t, bob), gameserver.ErrNotInRoom.Error())

	send(t, dir, bob, protocol.KindDrawCard, nil)
	assert.Equal(t, "draw card: "+gameserver.ErrNotInRoom.Error(), errorText(t, bob))
	assert.Len(t, dir.RoomList(), 1)
}

func TestJoinFullRoom(t *testing.T) {
	dir := newDirectory(t)
	host := connect(t, dir, "host")
	roomID := createRoom(t, dir, host, "den")
	for _, n := range []string{"b", "c", "d"} {
		c := connect(t, dir, n)
		send(t, dir, c, protocol.KindJoinRoom, roomID)
		c.tr.NextOf(t, protocol.KindRoomUpdate, wait)
	}

	late := connect(t, dir, "late")
	send(t, dir, late, protocol.KindJoinRoom, roomID)
	assert.Contains(t, errorText(t, late), "join room:")
	assert.Empty(t, late.sess.RoomID())
}

func TestLeaveRoomRemovesEmptyRoom(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	roomID := createRoom(t, dir, ann, "den")

	send(t, dir, ann, protocol.KindLeaveRoom, nil)
	assert.Empty(t, latestRoomList(t, ann))
	assert.Empty(t, ann.sess.RoomID())
	_, ok := dir.Room(roomID)
	assert.False(t, ok)
	assert.False(t, dir.RemoveRoom(roomID))
}

func TestHostLeavingHandsOverRoom(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	bob := connect(t, dir, "bob")
	roomID := createRoom(t, dir, ann, "den")
	send(t, dir, bob, protocol.KindJoinRoom, roomID)
	bob.tr.Drain()

	send(t, dir, ann, protocol.KindLeaveRoom, nil)

	var snap protocol.RoomSnapshot
	require.NoError(t, bob.tr.NextOf(t, protocol.KindRoomUpdate, wait).DecodePayload(&snap))
	assert.Equal(t, bob.sess.PlayerID(), snap.HostID)
	assert.Equal(t, []protocol.Member{{ID: bob.sess.PlayerID(), Name: "bob"}}, snap.Members)

	list := latestRoomList(t, bob)
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].HostName)
	assert.Equal(t, 1, list[0].PlayerCount)
}

func TestStartGameSendsFilteredViews(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	bob := connect(t, dir, "bob")
	roomID := createRoom(t, dir, ann, "den")
	send(t, dir, bob, protocol.KindJoinRoom, roomID)
	ann.tr.Drain()
	bob.tr.Drain()

	send(t, dir, bob, protocol.KindStartGame, nil)
	assert.Equal(t, "start game: "+room.ErrNotHost.Error(), errorText(t, bob))

	send(t, dir, ann, protocol.KindStartGame, nil)
	for _, c := range []client{ann, bob} {
		var gs protocol.GameState
		require.NoError(t, c.tr.NextOf(t, protocol.KindStartGame, wait).DecodePayload(&gs))
		assert.Equal(t, c.sess.PlayerID(), gs.ViewerID)
		require.Len(t, gs.Players, 2)
		for _, p := range gs.Players {
			if p.ID == c.sess.PlayerID() {
				assert.Len(t, p.Hand, p.HandSize)
				assert.GreaterOrEqual(t, p.HandSize, 7)
			} else {
				assert.Nil(t, p.Hand, "opponent hands are never sent")
				assert.GreaterOrEqual(t, p.HandSize, 7)
			}
		}

		list := latestRoomList(t, c)
		require.Len(t, list, 1)
		assert.True(t, list[0].GameStarted)
	}

	carol := connect(t, dir, "carol")
	send(t, dir, carol, protocol.KindJoinRoom, roomID)
	assert.Contains(t, errorText(t, carol), "join room:")
}

func TestChat(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	bob := connect(t, dir, "bob")
	roomID := createRoom(t, dir, ann, "den")
	send(t, dir, bob, protocol.KindJoinRoom, roomID)

	send(t, dir, ann, protocol.KindChatMessage, "   ")
	assert.Equal(t, "chat: "+gameserver.ErrEmptyMessage.Error(), errorText(t, ann))

	send(t, dir, ann, protocol.KindChatMessage, strings.Repeat("a", 513))
	assert.Equal(t, "chat: "+gameserver.ErrMessageTooLong.Error(), errorText(t, ann))

	send(t, dir, ann, protocol.KindChatMessage, " hi bob ")
	for _, c := range []client{ann, bob} {
		var text string
		require.NoError(t, c.tr.NextOf(t, protocol.KindChatMessage, wait).DecodePayload(&text))
		assert.Equal(t, "ann: hi bob", text)
	}

	lone := connect(t, dir, "lone")
	send(t, dir, lone, protocol.KindChatMessage, "anyone?")
	assert.Contains(t, errorText(t, lone), gameserver.ErrNotInRoom.Error())
}

func TestDisconnectTearsDown(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	bob := connect(t, dir, "bob")
	roomID := createRoom(t, dir, ann, "den")
	send(t, dir, bob, protocol.KindJoinRoom, roomID)
	ann.tr.Drain()

	assert.True(t, dir.Disconnect(bob.sess))
	assert.True(t, bob.tr.Closed())
	assert.False(t, bob.sess.Running())
	_, ok := dir.Sessions().Get(bob.sess.PlayerID())
	assert.False(t, ok)

	rm, ok := dir.Room(roomID)
	require.True(t, ok)
	assert.Equal(t, 1, rm.Size())
	var snap protocol.RoomSnapshot
	require.NoError(t, ann.tr.NextOf(t, protocol.KindRoomUpdate, wait).DecodePayload(&snap))
	assert.Len(t, snap.Members, 1)

	// A lobby session changes no membership.
	lobby := connect(t, dir, "lobby")
	assert.False(t, dir.Disconnect(lobby.sess))
	assert.False(t, dir.Disconnect(lobby.sess), "disconnect twice is harmless")
}

func TestDisconnectReleasesStalledBroadcast(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	bob := connect(t, dir, "bob")
	carol := connect(t, dir, "carol")
	roomID := createRoom(t, dir, ann, "den")
	send(t, dir, bob, protocol.KindJoinRoom, roomID)
	send(t, dir, carol, protocol.KindJoinRoom, roomID)
	ann.tr.Drain()
	bob.tr.Drain()
	carol.tr.Drain()
	carol.tr.StallWrites()

	hello := envelope(t, protocol.KindChatMessage, "hello")
	chatted := make(chan struct{})
	go func() {
		defer close(chatted)
		dir.Dispatch(ann.sess, hello)
	}()
	// bob is seated before carol, so the broadcast is now blocked on carol.
	bob.tr.NextOf(t, protocol.KindChatMessage, wait)

	left := make(chan bool, 1)
	go func() { left <- dir.Disconnect(carol.sess) }()
	select {
	case changed := <-left:
		assert.True(t, changed)
	case <-time.After(wait):
		t.Fatal("disconnect waited on the stalled broadcast")
	}
	select {
	case <-chatted:
	case <-time.After(wait):
		t.Fatal("chat broadcast never finished")
	}

	var snap protocol.RoomSnapshot
	require.NoError(t, bob.tr.NextOf(t, protocol.KindRoomUpdate, wait).DecodePayload(&snap))
	assert.Len(t, snap.Members, 2)
	assert.False(t, carol.sess.Running())
}

func TestRemoveRoomReturnsOccupantsToLobby(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	bob := connect(t, dir, "bob")
	roomID := createRoom(t, dir, ann, "den")
	send(t, dir, bob, protocol.KindJoinRoom, roomID)
	ann.tr.Drain()
	bob.tr.Drain()

	require.True(t, dir.RemoveRoom(roomID))

	for _, c := range []client{ann, bob} {
		var text string
		require.NoError(t, c.tr.NextOf(t, protocol.KindInfo, wait).DecodePayload(&text))
		assert.Equal(t, `room "den" was closed`, text)
		assert.Empty(t, c.sess.RoomID())
		_, err := dir.RoomOf(c.sess.PlayerID())
		assert.ErrorIs(t, err, gameserver.ErrNotInRoom)
	}
	assert.Empty(t, dir.Sessions().PlayerIDsInRoom(roomID))
	assert.Empty(t, dir.RoomList())

	// Evicted players are free to open a new room.
	createRoom(t, dir, bob, "next")
	assert.Len(t, dir.RoomList(), 1)
}

func TestFailedSendDoesNotAffectOthers(t *testing.T) {
	dir := newDirectory(t)
	ann := connect(t, dir, "ann")
	bob := connect(t, dir, "bob")
	bob.tr.FailWrites()

	createRoom(t, dir, ann, "den")
	assert.False(t, bob.sess.Running(), "a failed send stops the session")
	assert.True(t, bob.tr.Closed())
	assert.True(t, ann.sess.Running())

	_, err := dir.CreateRoom(bob.sess, "bob's")
	assert.ErrorIs(t, err, gameserver.ErrNoSession)

	dir.Disconnect(bob.sess)
	dir.BroadcastRoomList()
	assert.Len(t, latestRoomList(t, ann), 1)
}
