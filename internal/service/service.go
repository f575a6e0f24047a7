package service

import (
	"context"

	"github.com/cinewave/watchparty/internal/domain"
)

// Sender is the addressed-send primitive: fire-and-forget delivery to one
// connection or to every member of a room. No acknowledgment, no retry.
type Sender interface {
	ToConnection(connID string, event domain.Event)
	ToRoom(ctx context.Context, roomCode string, event domain.Event, exclude ...string)
}

// RosterNotifier pushes a full membership refresh to a room. The call relay
// uses it because call state is part of the roster (isInCall).
type RosterNotifier interface {
	BroadcastRoster(ctx context.Context, roomCode string)
}

type RoomInteractor interface {
	CreateRoom(ctx context.Context, connID string, req domain.CreateRoomRequest) (*domain.Room, *domain.User, error)
	JoinRoom(ctx context.Context, connID string, req domain.JoinRoomRequest) (*domain.Room, *domain.User, error)
	PostMessage(ctx context.Context, connID string, req domain.MessageRequest) error
	RemoveMember(ctx context.Context, connID string) error
	ShareableLink(roomCode string) string
}

type PlaybackInteractor interface {
	ShareUpload(ctx context.Context, connID string, req domain.UploadMediaRequest) error
	ShareLink(ctx context.Context, connID string, req domain.ShareLinkRequest) error
	Control(ctx context.Context, connID string, update domain.PlaybackUpdate) error
	DeleteMedia(ctx context.Context, connID string) error
}

type CallInteractor interface {
	StartCall(ctx context.Context, connID string, req domain.StartCallRequest) error
	AcceptCall(ctx context.Context, connID string, req domain.AcceptCallRequest) error
	Answer(ctx context.Context, connID string, req domain.AnswerRequest) error
	ICECandidate(ctx context.Context, connID string, req domain.CandidateRequest) error
	RejectCall(ctx context.Context, connID string, req domain.RejectCallRequest) error
	EndCall(ctx context.Context, connID string, req domain.EndCallRequest) error
	CallStatus(ctx context.Context, connID string, req domain.CallStatusRequest) error
	EndForConnection(ctx context.Context, connID string)
}
