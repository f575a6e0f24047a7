package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cinewave/watchparty/internal/domain"
	"github.com/cinewave/watchparty/internal/repository"
	"github.com/cinewave/watchparty/lib/logger/sl"
)

// RoomService owns room lifecycle, membership and the chat log. Rooms are
// destroyed only after staying empty for a grace period; a rejoin within the
// window cancels the pending destruction.
type RoomService struct {
	rooms   repository.RoomRepository
	users   repository.UserRepository
	calls   repository.CallRegistry
	sender  Sender
	log     *slog.Logger
	grace   time.Duration
	baseURL string

	mu         sync.Mutex
	reapTimers map[string]*time.Timer
}

func NewRoomService(
	rooms repository.RoomRepository,
	users repository.UserRepository,
	calls repository.CallRegistry,
	sender Sender,
	log *slog.Logger,
	grace time.Duration,
	baseURL string,
) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	return &RoomService{
		rooms:      rooms,
		users:      users,
		calls:      calls,
		sender:     sender,
		log:        log,
		grace:      grace,
		baseURL:    baseURL,
		reapTimers: make(map[string]*time.Timer),
	}
}

// CreateRoom builds a room with a collision-checked code and the requesting
// connection as owner and sole member. Display names are not validated; the
// roster tolerates empty and duplicate names.
func (s *RoomService) CreateRoom(ctx context.Context, connID string, req domain.CreateRoomRequest) (*domain.Room, *domain.User, error) {
	const op = "service.room.create"
	log := s.log.With(slog.String("op", op), slog.String("conn", connID))

	var room *domain.Room
	for {
		room = domain.NewRoom(req.RoomName, req.Password, connID)
		if err := s.rooms.Create(ctx, room); err != nil {
			if errors.Is(err, repository.ErrRoomCodeExists) {
				continue
			}
			return nil, nil, err
		}
		break
	}

	user := domain.NewUser(connID, req.UserName, req.UserPhoto, true, room.Code)
	room.AddUser(user)
	if err := s.users.Create(ctx, user); err != nil {
		log.Error("failed to store user", sl.Err(err))
		return nil, nil, err
	}

	log.Info("room created",
		slog.String("room", room.Code),
		slog.String("user", user.Name),
	)
	return room, user, nil
}

// JoinRoom adds the connection to the room after password validation and
// notifies the existing members. The room code is matched case-insensitively.
func (s *RoomService) JoinRoom(ctx context.Context, connID string, req domain.JoinRoomRequest) (*domain.Room, *domain.User, error) {
	const op = "service.room.join"
	log := s.log.With(slog.String("op", op), slog.String("conn", connID))

	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	room, err := s.rooms.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, err
	}

	if room.Password != "" && room.Password != req.Password {
		log.Info("join rejected", slog.String("room", code))
		return nil, nil, ErrWrongPassword
	}

	isOwner := room.Owner == connID
	user := domain.NewUser(connID, req.UserName, req.UserPhoto, isOwner, room.Code)

	// Cancel any pending destruction and add the member in one critical
	// section with reap. The timer may already have fired between the lookup
	// above and the cancel; in that case the room was deleted while empty
	// and gets re-registered here with the new member in place.
	s.mu.Lock()
	if timer, ok := s.reapTimers[code]; ok {
		timer.Stop()
		delete(s.reapTimers, code)
	}
	room.AddUser(user)
	if _, err := s.rooms.GetByCode(ctx, code); errors.Is(err, repository.ErrRoomNotFound) {
		if err := s.rooms.Create(ctx, room); err != nil {
			s.mu.Unlock()
			room.RemoveUser(connID)
			return nil, nil, err
		}
	}
	s.mu.Unlock()

	if err := s.users.Create(ctx, user); err != nil {
		log.Error("failed to store user", sl.Err(err))
		return nil, nil, err
	}

	s.sender.ToRoom(ctx, room.Code,
		domain.NewEvent(domain.EventUserJoined, domain.UserPresencePayload{UserName: user.Name}),
		connID,
	)
	s.BroadcastRoster(ctx, room.Code)

	log.Info("user joined",
		slog.String("room", room.Code),
		slog.String("user", user.Name),
	)
	return room, user, nil
}

// PostMessage appends to the room log and broadcasts to every member,
// sender included. A connection that is not in any room is silently ignored.
func (s *RoomService) PostMessage(ctx context.Context, connID string, req domain.MessageRequest) error {
	user, err := s.users.GetByID(ctx, connID)
	if err != nil || user.RoomCode == "" {
		return nil
	}

	room, err := s.rooms.GetByCode(ctx, user.RoomCode)
	if err != nil {
		return nil
	}

	msg := domain.NewMessage(user, req)
	room.AddMessage(msg)

	s.sender.ToRoom(ctx, room.Code, domain.NewEvent(domain.EventMessage, msg))
	return nil
}

// RemoveMember takes the connection out of its room, notifies the remaining
// members and schedules destruction once the room is empty.
func (s *RoomService) RemoveMember(ctx context.Context, connID string) error {
	const op = "service.room.removeMember"

	user, err := s.users.GetByID(ctx, connID)
	if err != nil {
		return nil
	}
	_ = s.users.Delete(ctx, connID)

	if user.RoomCode == "" {
		return nil
	}

	room, err := s.rooms.GetByCode(ctx, user.RoomCode)
	if err != nil {
		return nil
	}

	room.RemoveUser(connID)

	s.sender.ToRoom(ctx, room.Code,
		domain.NewEvent(domain.EventUserLeft, domain.UserPresencePayload{UserName: user.Name}),
		connID,
	)
	s.BroadcastRoster(ctx, room.Code)

	if room.MemberCount() == 0 {
		s.scheduleReap(room.Code)
	}

	s.log.Info("member removed",
		slog.String("op", op),
		slog.String("room", room.Code),
		slog.String("user", user.Name),
	)
	return nil
}

// BroadcastRoster pushes the full membership list, including per-user call
// state, to everyone in the room.
func (s *RoomService) BroadcastRoster(ctx context.Context, roomCode string) {
	room, err := s.rooms.GetByCode(ctx, roomCode)
	if err != nil {
		return
	}

	members := room.Members()
	entries := make([]domain.RosterEntry, 0, len(members))
	for _, member := range members {
		entries = append(entries, domain.RosterEntry{
			ID:        member.ID,
			UserName:  member.Name,
			UserPhoto: member.Photo,
			UserColor: member.Color,
			IsOwner:   member.IsOwner,
			IsInCall:  s.calls.InCall(ctx, member.ID),
			Country:   member.Country,
		})
	}

	s.sender.ToRoom(ctx, roomCode, domain.NewEvent(domain.EventUserListUpdate, entries))
}

// ShareableLink returns the join URL handed back on room creation.
func (s *RoomService) ShareableLink(roomCode string) string {
	return s.baseURL + "?room=" + roomCode
}

// scheduleReap arms (or re-arms) the destruction timer for an empty room.
// Emptiness is re-checked at fire time: a member may have rejoined and the
// cancel may have raced the timer.
func (s *RoomService) scheduleReap(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.reapTimers[roomCode]; ok {
		timer.Stop()
	}

	s.reapTimers[roomCode] = time.AfterFunc(s.grace, func() {
		s.reap(roomCode)
	})
}

// reap holds the service mutex across the emptiness re-check and the delete,
// so it cannot interleave with JoinRoom's cancel-and-add section: either the
// join lands first and the count is non-zero here, or the delete completes
// first and the join re-registers the room.
func (s *RoomService) reap(roomCode string) {
	ctx := context.Background()

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reapTimers, roomCode)

	room, err := s.rooms.GetByCode(ctx, roomCode)
	if err != nil {
		return
	}
	if room.MemberCount() > 0 {
		return
	}

	if err := s.rooms.Delete(ctx, roomCode); err != nil {
		s.log.Error("failed to delete empty room", slog.String("room", roomCode), sl.Err(err))
		return
	}
	s.log.Info("empty room deleted", slog.String("room", roomCode))
}
