package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/cinewave/watchparty/internal/domain"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomCodeExists = errors.New("room code already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrCallNotFound   = errors.New("call not found")
	ErrCallExists     = errors.New("participant already in a call")
)

type InMemoryRoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewInMemoryRoomRepository() *InMemoryRoomRepository {
	return &InMemoryRoomRepository{
		rooms: make(map[string]*domain.Room),
	}
}

func (r *InMemoryRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.Code]; ok {
		return ErrRoomCodeExists
	}

	r.rooms[room.Code] = room
	return nil
}

func (r *InMemoryRoomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}

	return room, nil
}

func (r *InMemoryRoomRepository) Delete(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[code]; !ok {
		return ErrRoomNotFound
	}

	delete(r.rooms, code)
	return nil
}

func (r *InMemoryRoomRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), nil
}

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = user
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, connID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[connID]
	if !ok {
		return nil, ErrUserNotFound
	}

	return user, nil
}

func (r *InMemoryUserRepository) Delete(ctx context.Context, connID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[connID]; !ok {
		return ErrUserNotFound
	}

	delete(r.users, connID)
	return nil
}

// InMemoryCallRegistry stores each session under both participant ids. Both
// slots are written and cleared inside a single lock hold; there is no state
// in which only one slot exists.
type InMemoryCallRegistry struct {
	mu    sync.RWMutex
	calls map[string]*domain.CallSession
}

func NewInMemoryCallRegistry() *InMemoryCallRegistry {
	return &InMemoryCallRegistry{
		calls: make(map[string]*domain.CallSession),
	}
}

// Put registers the session under both participant ids. It refuses to
// overwrite: a blind write would orphan an existing session under its other
// participant's slot.
func (r *InMemoryCallRegistry) Put(ctx context.Context, session *domain.CallSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.calls[session.CallerID]; ok {
		return ErrCallExists
	}
	if _, ok := r.calls[session.CalleeID]; ok {
		return ErrCallExists
	}

	r.calls[session.CallerID] = session
	r.calls[session.CalleeID] = session
	return nil
}

func (r *InMemoryCallRegistry) Get(ctx context.Context, connID string) (*domain.CallSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.calls[connID]
	if !ok {
		return nil, ErrCallNotFound
	}

	return session, nil
}

func (r *InMemoryCallRegistry) Remove(ctx context.Context, session *domain.CallSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.calls, session.CallerID)
	delete(r.calls, session.CalleeID)
	return nil
}

// Drop removes whatever session connID participates in, clearing both of its
// slots.
func (r *InMemoryCallRegistry) Drop(ctx context.Context, connID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.calls[connID]
	if !ok {
		return ErrCallNotFound
	}

	delete(r.calls, session.CallerID)
	delete(r.calls, session.CalleeID)
	return nil
}

func (r *InMemoryCallRegistry) InCall(ctx context.Context, connID string) bool {
	if ctx.Err() != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.calls[connID]
	return ok
}

func (r *InMemoryCallRegistry) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[*domain.CallSession]struct{}, len(r.calls))
	for _, session := range r.calls {
		seen[session] = struct{}{}
	}
	return len(seen), nil
}
