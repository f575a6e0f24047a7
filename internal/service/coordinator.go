package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cinewave/watchparty/internal/domain"
	"github.com/cinewave/watchparty/internal/repository"
	"github.com/cinewave/watchparty/lib/logger/sl"
)

// Coordinator ties connection lifecycle to the room, playback and call
// state. It is the single entry for connect, heartbeat and the disconnect
// cascade; transport code never touches the tables directly.
type Coordinator struct {
	sender    *EventSender
	rooms     *RoomService
	calls     *CallService
	health    *Monitor
	roomRepo  repository.RoomRepository
	callRepo  repository.CallRegistry
	stun      []string
	log       *slog.Logger
	startedAt time.Time
}

func NewCoordinator(
	sender *EventSender,
	rooms *RoomService,
	calls *CallService,
	health *Monitor,
	roomRepo repository.RoomRepository,
	callRepo repository.CallRegistry,
	stunServers []string,
	log *slog.Logger,
) *Coordinator {
	if log == nil {
		log = slog.Default()
	}

	c := &Coordinator{
		sender:    sender,
		rooms:     rooms,
		calls:     calls,
		health:    health,
		roomRepo:  roomRepo,
		callRepo:  callRepo,
		stun:      stunServers,
		log:       log,
		startedAt: time.Now(),
	}

	health.SetDisconnectFunc(func(connID string) {
		c.Disconnect(context.Background(), connID)
	})

	return c
}

// Connect registers a fresh connection, starts liveness tracking and pushes
// the ICE server list so the client can gather candidates immediately.
func (c *Coordinator) Connect(conn *domain.Connection) {
	c.sender.Register(conn)
	c.health.Track(conn.ID)
	c.sender.ToConnection(conn.ID, domain.NewEvent(domain.EventICEServers, ICEServersPayload(c.stun)))

	c.log.Info("connection established", slog.String("conn", conn.ID))
}

func (c *Coordinator) HeartbeatAck(connID string) {
	c.health.Ack(connID)
}

// Disconnect unwinds everything the connection holds: liveness tracking,
// its call session, then its room membership. Each step runs regardless of
// the others; state cleanup never waits on notification delivery. Safe to
// call more than once per connection.
func (c *Coordinator) Disconnect(ctx context.Context, connID string) {
	conn := c.sender.Unregister(connID)
	if conn == nil {
		return
	}

	c.health.Forget(connID)
	c.calls.EndForConnection(ctx, connID)
	if err := c.rooms.RemoveMember(ctx, connID); err != nil {
		c.log.Error("room cleanup failed", slog.String("conn", connID), sl.Err(err))
	}

	conn.Close()

	c.log.Info("connection closed", slog.String("conn", connID))
}

// Stats is the health endpoint snapshot.
type Stats struct {
	Connections int   `json:"connections"`
	Rooms       int   `json:"rooms"`
	ActiveCalls int   `json:"activeCalls"`
	UptimeSec   int64 `json:"uptime"`
}

func (c *Coordinator) Stats(ctx context.Context) Stats {
	roomCount, _ := c.roomRepo.Count(ctx)
	callCount, _ := c.callRepo.Count(ctx)

	return Stats{
		Connections: c.sender.Count(),
		Rooms:       roomCount,
		ActiveCalls: callCount,
		UptimeSec:   int64(time.Since(c.startedAt).Seconds()),
	}
}
