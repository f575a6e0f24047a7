package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cinewave/watchparty/internal/domain"
	"github.com/cinewave/watchparty/internal/repository"
)

// EventSender owns the live connection table and implements Sender on top of
// it. Room membership is resolved through the room repository at send time,
// so transport code never sees the room tables.
type EventSender struct {
	mu    sync.RWMutex
	conns map[string]*domain.Connection
	rooms repository.RoomRepository
	log   *slog.Logger
}

func NewEventSender(rooms repository.RoomRepository, log *slog.Logger) *EventSender {
	if log == nil {
		log = slog.Default()
	}
	return &EventSender{
		conns: make(map[string]*domain.Connection),
		rooms: rooms,
		log:   log,
	}
}

func (s *EventSender) Register(conn *domain.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.ID] = conn
}

// Unregister removes and returns the connection, or nil if it was already
// gone. The nil return is what makes the disconnect cascade idempotent.
func (s *EventSender) Unregister(connID string) *domain.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.conns[connID]
	if !ok {
		return nil
	}
	delete(s.conns, connID)
	return conn
}

func (s *EventSender) Connection(connID string) *domain.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[connID]
}

func (s *EventSender) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *EventSender) ToConnection(connID string, event domain.Event) {
	conn := s.Connection(connID)
	if conn == nil {
		s.log.Debug("dropping event for unknown connection",
			slog.String("conn", connID),
			slog.String("type", event.Name),
		)
		return
	}
	conn.EnqueueEvent(event)
}

func (s *EventSender) ToRoom(ctx context.Context, roomCode string, event domain.Event, exclude ...string) {
	room, err := s.rooms.GetByCode(ctx, roomCode)
	if err != nil {
		return
	}

	for _, member := range room.Members() {
		if excluded(member.ID, exclude) {
			continue
		}
		s.ToConnection(member.ID, event)
	}
}

func excluded(connID string, exclude []string) bool {
	for _, id := range exclude {
		if id == connID {
			return true
		}
	}
	return false
}
