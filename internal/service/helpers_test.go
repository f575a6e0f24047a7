package service_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cinewave/watchparty/internal/domain"
	"github.com/cinewave/watchparty/internal/repository"
	"github.com/cinewave/watchparty/internal/service"
)

type sentEvent struct {
	connID   string
	roomCode string
	exclude  []string
	event    domain.Event
}

// fakeSender records every addressed send so tests can assert on delivery
// scope without a transport.
type fakeSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakeSender) ToConnection(connID string, event domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{connID: connID, event: event})
}

func (f *fakeSender) ToRoom(_ context.Context, roomCode string, event domain.Event, exclude ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{roomCode: roomCode, exclude: exclude, event: event})
}

func (f *fakeSender) byName(name string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []sentEvent
	for _, e := range f.events {
		if e.event.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeSender) lastToConnection(connID, name string) (sentEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.events) - 1; i >= 0; i-- {
		e := f.events[i]
		if e.connID == connID && e.event.Name == name {
			return e, true
		}
	}
	return sentEvent{}, false
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

func decodePayload[T any](t *testing.T, event domain.Event) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(event.Data, &out))
	return out
}

type testEnv struct {
	rooms    *repository.InMemoryRoomRepository
	users    *repository.InMemoryUserRepository
	calls    *repository.InMemoryCallRegistry
	sender   *fakeSender
	roomSvc  *service.RoomService
	playback *service.PlaybackService
	callSvc  *service.CallService
}

func newTestEnv(t *testing.T, grace time.Duration) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))

	rooms := repository.NewInMemoryRoomRepository()
	users := repository.NewInMemoryUserRepository()
	calls := repository.NewInMemoryCallRegistry()
	sender := &fakeSender{}

	roomSvc := service.NewRoomService(rooms, users, calls, sender, log, grace, "http://localhost:8080")
	playback := service.NewPlaybackService(rooms, users, sender, log)
	callSvc := service.NewCallService(rooms, users, calls, sender, roomSvc,
		[]string{"stun:stun.l.google.com:19302"}, log)

	return &testEnv{
		rooms:    rooms,
		users:    users,
		calls:    calls,
		sender:   sender,
		roomSvc:  roomSvc,
		playback: playback,
		callSvc:  callSvc,
	}
}

func (env *testEnv) createRoom(t *testing.T, connID, userName, roomName, password string) *domain.Room {
	t.Helper()

	room, _, err := env.roomSvc.CreateRoom(context.Background(), connID, domain.CreateRoomRequest{
		UserName: userName,
		RoomName: roomName,
		Password: password,
	})
	require.NoError(t, err)
	return room
}

func (env *testEnv) joinRoom(t *testing.T, connID, userName, roomCode, password string) *domain.Room {
	t.Helper()

	room, _, err := env.roomSvc.JoinRoom(context.Background(), connID, domain.JoinRoomRequest{
		RoomCode: roomCode,
		UserName: userName,
		Password: password,
	})
	require.NoError(t, err)
	return room
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
