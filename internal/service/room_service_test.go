package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinewave/watchparty/internal/domain"
	"github.com/cinewave/watchparty/internal/service"
)

func TestRoomService_CreateRoom_UniqueCodes(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room, user, err := env.roomSvc.CreateRoom(context.Background(), fmt.Sprintf("conn-%d", i), domain.CreateRoomRequest{
			UserName: "alice",
			RoomName: "movie night",
		})
		require.NoError(t, err)
		assert.False(t, seen[room.Code], "room code %s issued twice", room.Code)
		seen[room.Code] = true

		assert.True(t, user.IsOwner)
		assert.Equal(t, 1, room.MemberCount())
	}
}

func TestRoomService_CreateRoom_PermissiveUserName(t *testing.T) {
	// The roster tolerates empty display names; creation does not validate.
	env := newTestEnv(t, time.Minute)

	room, user, err := env.roomSvc.CreateRoom(context.Background(), "conn-1", domain.CreateRoomRequest{
		RoomName: "movie night",
	})
	require.NoError(t, err)
	assert.Empty(t, user.Name)
	assert.Equal(t, 1, room.MemberCount())
}

func TestRoomService_JoinRoom_WrongPassword(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	room := env.createRoom(t, "conn-a", "alice", "movie night", "s3cret")

	_, _, err := env.roomSvc.JoinRoom(context.Background(), "conn-b", domain.JoinRoomRequest{
		RoomCode: room.Code,
		UserName: "bob",
		Password: "wrong",
	})
	require.ErrorIs(t, err, service.ErrWrongPassword)
	assert.Equal(t, 1, room.MemberCount(), "membership must be unchanged after a rejected join")
}

func TestRoomService_JoinRoom_UnknownCode(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	_, _, err := env.roomSvc.JoinRoom(context.Background(), "conn-b", domain.JoinRoomRequest{
		RoomCode: "ZZZZZZ",
		UserName: "bob",
	})
	require.ErrorIs(t, err, service.ErrRoomNotFound)
}

func TestRoomService_JoinRoom_CaseInsensitiveCode(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	room := env.createRoom(t, "conn-a", "alice", "movie night", "")

	joined := env.joinRoom(t, "conn-b", "bob", "  "+lower(room.Code)+" ", "")
	assert.Equal(t, room.Code, joined.Code)
	assert.Equal(t, 2, room.MemberCount())
}

func TestRoomService_JoinRoom_NotifiesOthersAndRefreshesRoster(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	room := env.createRoom(t, "conn-a", "alice", "movie night", "")
	env.sender.reset()

	env.joinRoom(t, "conn-b", "bob", room.Code, "")

	joins := env.sender.byName(domain.EventUserJoined)
	require.Len(t, joins, 1)
	assert.Equal(t, room.Code, joins[0].roomCode)
	assert.Contains(t, joins[0].exclude, "conn-b", "the joiner gets the snapshot, not the join notice")

	rosters := env.sender.byName(domain.EventUserListUpdate)
	require.Len(t, rosters, 1)
	entries := decodePayload[[]domain.RosterEntry](t, rosters[0].event)
	assert.Len(t, entries, 2)
}

func TestRoomService_PostMessage_BroadcastsToAllIncludingSender(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	room := env.createRoom(t, "conn-a", "alice", "movie night", "")
	env.joinRoom(t, "conn-b", "bob", room.Code, "")
	env.sender.reset()

	err := env.roomSvc.PostMessage(context.Background(), "conn-b", domain.MessageRequest{Text: "hi all"})
	require.NoError(t, err)

	msgs := env.sender.byName(domain.EventMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, room.Code, msgs[0].roomCode)
	assert.Empty(t, msgs[0].exclude, "sender must receive its own message")

	msg := decodePayload[domain.Message](t, msgs[0].event)
	assert.Equal(t, "bob", msg.UserName)
	assert.Equal(t, "hi all", msg.Text)
	assert.Equal(t, "text", msg.Type)
}

func TestRoomService_PostMessage_NotInRoomIsSilent(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	err := env.roomSvc.PostMessage(context.Background(), "stranger", domain.MessageRequest{Text: "hello?"})
	require.NoError(t, err)
	assert.Empty(t, env.sender.byName(domain.EventMessage))
}

func TestRoomService_EmptyRoomReapedAfterGrace(t *testing.T) {
	env := newTestEnv(t, 30*time.Millisecond)
	room := env.createRoom(t, "conn-a", "alice", "movie night", "")

	require.NoError(t, env.roomSvc.RemoveMember(context.Background(), "conn-a"))
	require.Equal(t, 0, room.MemberCount())

	// Still present inside the grace window.
	_, err := env.rooms.GetByCode(context.Background(), room.Code)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := env.rooms.GetByCode(context.Background(), room.Code)
		return err != nil
	}, time.Second, 10*time.Millisecond, "empty room must be deleted after the grace period")
}

func TestRoomService_RejoinWithinGraceCancelsReap(t *testing.T) {
	env := newTestEnv(t, 50*time.Millisecond)
	room := env.createRoom(t, "conn-a", "alice", "movie night", "")

	require.NoError(t, env.roomSvc.RemoveMember(context.Background(), "conn-a"))
	env.joinRoom(t, "conn-b", "bob", room.Code, "")

	time.Sleep(150 * time.Millisecond)

	_, err := env.rooms.GetByCode(context.Background(), room.Code)
	require.NoError(t, err, "a rejoin within the grace window must cancel destruction")
}

func TestRoomService_JoinRacingReapNeverStrandsMember(t *testing.T) {
	// Joins landing right at the destruction deadline either find the room
	// gone or succeed; a success must always leave the room registered. The
	// sleep straddles the grace period so both orderings get exercised.
	for i := 0; i < 20; i++ {
		env := newTestEnv(t, 2*time.Millisecond)
		room := env.createRoom(t, "conn-a", "alice", "movie night", "")
		require.NoError(t, env.roomSvc.RemoveMember(context.Background(), "conn-a"))

		time.Sleep(time.Duration(i%4) * time.Millisecond)

		joined, _, err := env.roomSvc.JoinRoom(context.Background(), "conn-b", domain.JoinRoomRequest{
			RoomCode: room.Code,
			UserName: "bob",
		})
		if err != nil {
			require.ErrorIs(t, err, service.ErrRoomNotFound)
			continue
		}

		stored, getErr := env.rooms.GetByCode(context.Background(), room.Code)
		require.NoError(t, getErr, "a successful join must leave the room registered")
		assert.Same(t, joined, stored)
		require.NotNil(t, stored.Member("conn-b"))

		// The pending destruction is gone for good.
		time.Sleep(10 * time.Millisecond)
		_, getErr = env.rooms.GetByCode(context.Background(), room.Code)
		require.NoError(t, getErr)
	}
}

func TestRoomService_RemoveMember_NotifiesRemaining(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	room := env.createRoom(t, "conn-a", "alice", "movie night", "")
	env.joinRoom(t, "conn-b", "bob", room.Code, "")
	env.sender.reset()

	require.NoError(t, env.roomSvc.RemoveMember(context.Background(), "conn-b"))

	left := env.sender.byName(domain.EventUserLeft)
	require.Len(t, left, 1)
	payload := decodePayload[domain.UserPresencePayload](t, left[0].event)
	assert.Equal(t, "bob", payload.UserName)

	rosters := env.sender.byName(domain.EventUserListUpdate)
	require.Len(t, rosters, 1)
	entries := decodePayload[[]domain.RosterEntry](t, rosters[0].event)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].UserName)
}

func lower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + ('a' - 'A')
		}
	}
	return string(out)
}
