package repository

import (
	"context"

	"github.com/cinewave/watchparty/internal/domain"
)

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByCode(ctx context.Context, code string) (*domain.Room, error)
	Delete(ctx context.Context, code string) error
	Count(ctx context.Context) (int, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, connID string) (*domain.User, error)
	Delete(ctx context.Context, connID string) error
}

// CallRegistry indexes every call session under both participant connection
// ids. Implementations must add and remove the two slots in one critical
// section so a session is never visible under exactly one id.
type CallRegistry interface {
	Put(ctx context.Context, session *domain.CallSession) error
	Get(ctx context.Context, connID string) (*domain.CallSession, error)
	Remove(ctx context.Context, session *domain.CallSession) error
	Drop(ctx context.Context, connID string) error
	InCall(ctx context.Context, connID string) bool
	Count(ctx context.Context) (int, error)
}
