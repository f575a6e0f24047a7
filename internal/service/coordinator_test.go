package service_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinewave/watchparty/internal/domain"
	"github.com/cinewave/watchparty/internal/repository"
	"github.com/cinewave/watchparty/internal/service"
)

// coordEnv wires the coordinator with the real EventSender and socketless
// connections, so the full disconnect cascade runs end to end.
type coordEnv struct {
	coordinator *service.Coordinator
	roomSvc     *service.RoomService
	callSvc     *service.CallService
	monitor     *service.Monitor
	calls       *repository.InMemoryCallRegistry
	rooms       *repository.InMemoryRoomRepository
}

func newCoordEnv(t *testing.T) *coordEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))

	roomRepo := repository.NewInMemoryRoomRepository()
	userRepo := repository.NewInMemoryUserRepository()
	callRepo := repository.NewInMemoryCallRegistry()

	sender := service.NewEventSender(roomRepo, log)
	monitor := service.NewMonitor(sender, time.Hour, time.Hour, 20*time.Millisecond, log)

	roomSvc := service.NewRoomService(roomRepo, userRepo, callRepo, sender, log, time.Minute, "http://localhost:8080")
	callSvc := service.NewCallService(roomRepo, userRepo, callRepo, sender, roomSvc,
		[]string{"stun:stun.l.google.com:19302"}, log)

	coordinator := service.NewCoordinator(sender, roomSvc, callSvc, monitor,
		roomRepo, callRepo, []string{"stun:stun.l.google.com:19302"}, log)

	return &coordEnv{
		coordinator: coordinator,
		roomSvc:     roomSvc,
		callSvc:     callSvc,
		monitor:     monitor,
		calls:       callRepo,
		rooms:       roomRepo,
	}
}

func (env *coordEnv) connect(t *testing.T) *domain.Connection {
	t.Helper()

	conn := domain.NewConnection(nil)
	env.coordinator.Connect(conn)
	return conn
}

func drainEvents(conn *domain.Connection) []domain.Event {
	var out []domain.Event
	for {
		select {
		case event, ok := <-conn.Events():
			if !ok {
				return out
			}
			out = append(out, event)
		default:
			return out
		}
	}
}

func findEvent(events []domain.Event, name string) (domain.Event, bool) {
	for _, event := range events {
		if event.Name == name {
			return event, true
		}
	}
	return domain.Event{}, false
}

func TestCoordinator_Connect_PushesICEServers(t *testing.T) {
	env := newCoordEnv(t)
	conn := env.connect(t)

	events := drainEvents(conn)
	event, ok := findEvent(events, domain.EventICEServers)
	require.True(t, ok)

	payload := decodePayload[domain.ICEServersPayload](t, event)
	require.NotEmpty(t, payload.Servers)
	assert.Equal(t, "stun:stun.l.google.com:19302", payload.Servers[0].URLs)
}

func TestCoordinator_DisconnectCascade(t *testing.T) {
	env := newCoordEnv(t)
	ctx := context.Background()

	connA := env.connect(t)
	connB := env.connect(t)

	room, _, err := env.roomSvc.CreateRoom(ctx, connA.ID, domain.CreateRoomRequest{
		UserName: "alice", RoomName: "movie night",
	})
	require.NoError(t, err)
	_, _, err = env.roomSvc.JoinRoom(ctx, connB.ID, domain.JoinRoomRequest{
		RoomCode: room.Code, UserName: "bob",
	})
	require.NoError(t, err)

	require.NoError(t, env.callSvc.StartCall(ctx, connA.ID, domain.StartCallRequest{
		TargetUserName: "bob",
		Type:           "video",
		Offer:          &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"},
	}))
	drainEvents(connA)
	drainEvents(connB)

	env.coordinator.Disconnect(ctx, connB.ID)

	// The caller learns the call died with the link.
	events := drainEvents(connA)
	ended, ok := findEvent(events, domain.EventCallEnded)
	require.True(t, ok)
	payload := decodePayload[domain.CallEndedPayload](t, ended)
	assert.Equal(t, "connection_lost", payload.Reason)

	// No call slot survives under either id.
	assert.False(t, env.calls.InCall(ctx, connA.ID))
	assert.False(t, env.calls.InCall(ctx, connB.ID))

	// Room membership shrank and the remaining member got the updates.
	assert.Equal(t, 1, room.MemberCount())
	_, ok = findEvent(events, domain.EventUserLeft)
	assert.True(t, ok)
	_, ok = findEvent(events, domain.EventUserListUpdate)
	assert.True(t, ok)

	// A second disconnect for the same id is a no-op.
	env.coordinator.Disconnect(ctx, connB.ID)
	assert.Equal(t, 1, room.MemberCount())
}

func TestCoordinator_StaleReapRunsSameCascade(t *testing.T) {
	env := newCoordEnv(t)
	ctx := context.Background()

	connA := env.connect(t)
	connB := env.connect(t)

	room, _, err := env.roomSvc.CreateRoom(ctx, connA.ID, domain.CreateRoomRequest{
		UserName: "alice", RoomName: "movie night",
	})
	require.NoError(t, err)
	_, _, err = env.roomSvc.JoinRoom(ctx, connB.ID, domain.JoinRoomRequest{
		RoomCode: room.Code, UserName: "bob",
	})
	require.NoError(t, err)
	drainEvents(connA)
	drainEvents(connB)

	// Only A keeps acking; B goes stale and the sweep must unwind its
	// membership exactly like a voluntary disconnect.
	time.Sleep(30 * time.Millisecond)
	env.coordinator.HeartbeatAck(connA.ID)
	env.monitor.Sweep()

	assert.Equal(t, 1, room.MemberCount())

	events := drainEvents(connA)
	_, ok := findEvent(events, domain.EventUserLeft)
	assert.True(t, ok, "survivor must be told the reaped member left")
}

func TestCoordinator_Stats(t *testing.T) {
	env := newCoordEnv(t)
	ctx := context.Background()

	connA := env.connect(t)
	_, _, err := env.roomSvc.CreateRoom(ctx, connA.ID, domain.CreateRoomRequest{
		UserName: "alice", RoomName: "movie night",
	})
	require.NoError(t, err)

	stats := env.coordinator.Stats(ctx)
	assert.Equal(t, 1, stats.Connections)
	assert.Equal(t, 1, stats.Rooms)
	assert.Equal(t, 0, stats.ActiveCalls)
}
