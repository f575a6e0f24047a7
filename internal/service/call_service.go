package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cinewave/watchparty/internal/domain"
	"github.com/cinewave/watchparty/internal/repository"
	"github.com/cinewave/watchparty/lib/logger/sl"
)

// CallService pairs callers with targets, relays offer/answer/ICE payloads
// and tears sessions down. Targets are resolved by display name within the
// caller's room, first match wins; names are not unique and that ambiguity
// is part of the contract.
type CallService struct {
	rooms  repository.RoomRepository
	users  repository.UserRepository
	calls  repository.CallRegistry
	sender Sender
	roster RosterNotifier
	stun   []string
	log    *slog.Logger
}

func NewCallService(
	rooms repository.RoomRepository,
	users repository.UserRepository,
	calls repository.CallRegistry,
	sender Sender,
	roster RosterNotifier,
	stunServers []string,
	log *slog.Logger,
) *CallService {
	if log == nil {
		log = slog.Default()
	}
	return &CallService{
		rooms:  rooms,
		users:  users,
		calls:  calls,
		sender: sender,
		roster: roster,
		stun:   stunServers,
		log:    log,
	}
}

// StartCall resolves the target, registers the session under both
// connection ids and rings the target. A participant can hold at most one
// session, so a busy caller or target rejects the call before any slot is
// written.
func (s *CallService) StartCall(ctx context.Context, connID string, req domain.StartCallRequest) error {
	const op = "service.call.start"
	log := s.log.With(slog.String("op", op), slog.String("conn", connID))

	caller, target, err := s.resolveTarget(ctx, connID, req.TargetUserName)
	if err != nil {
		return err
	}

	if s.calls.InCall(ctx, connID) {
		return ErrAlreadyInCall
	}
	if s.calls.InCall(ctx, target.ID) {
		return ErrTargetBusy
	}

	session := domain.NewCallSession(caller, target, req.CallerName, req.Type)
	if err := s.calls.Put(ctx, session); err != nil {
		if errors.Is(err, repository.ErrCallExists) {
			return ErrTargetBusy
		}
		return err
	}

	// The target may have connected before any call was in sight; refresh
	// its ICE server list before the offer arrives.
	s.sender.ToConnection(target.ID, domain.NewEvent(domain.EventICEServers, ICEServersPayload(s.stun)))
	s.sender.ToConnection(target.ID, domain.NewEvent(domain.EventIncomingCall, domain.IncomingCallPayload{
		Offer:      req.Offer,
		CallerName: session.CallerName,
		Type:       session.Type,
		CallerRef:  caller.ID,
	}))

	log.Info("call started",
		slog.String("caller", session.CallerName),
		slog.String("target", session.CalleeName),
		slog.String("type", session.Type),
	)
	return nil
}

// AcceptCall marks the session accepted and notifies the caller.
func (s *CallService) AcceptCall(ctx context.Context, connID string, req domain.AcceptCallRequest) error {
	session, err := s.calls.Get(ctx, connID)
	if err != nil || session.CallerID != req.CallerRef {
		return nil
	}

	session.Accept()

	s.sender.ToConnection(session.CallerID, domain.NewEvent(domain.EventCallAccepted, domain.CallAcceptedPayload{
		AnswererRef:  connID,
		AnswererName: s.displayName(ctx, connID),
	}))

	s.log.Info("call accepted",
		slog.String("op", "service.call.accept"),
		slog.String("caller", session.CallerName),
		slog.String("answerer", session.CalleeName),
	)
	return nil
}

// Answer relays an SDP answer to the peer.
func (s *CallService) Answer(ctx context.Context, connID string, req domain.AnswerRequest) error {
	if req.TargetRef == "" {
		return nil
	}

	s.sender.ToConnection(req.TargetRef, domain.NewEvent(domain.EventAnswer, domain.AnswerPayload{
		Answer:       req.Answer,
		AnswererRef:  connID,
		AnswererName: s.displayName(ctx, connID),
	}))
	return nil
}

// ICECandidate relays a candidate to the peer regardless of session state;
// candidates may legitimately arrive before acceptance.
func (s *CallService) ICECandidate(ctx context.Context, connID string, req domain.CandidateRequest) error {
	if req.TargetRef == "" {
		return nil
	}

	s.sender.ToConnection(req.TargetRef, domain.NewEvent(domain.EventICECandidate, domain.CandidatePayload{
		Candidate: req.Candidate,
		SenderRef: connID,
	}))
	return nil
}

// RejectCall notifies the caller and removes the session from both slots.
func (s *CallService) RejectCall(ctx context.Context, connID string, req domain.RejectCallRequest) error {
	session, err := s.calls.Get(ctx, connID)
	if err != nil {
		return nil
	}

	s.sender.ToConnection(session.CallerID, domain.NewEvent(domain.EventCallRejected, domain.CallRejectedPayload{
		RejectedBy: s.displayName(ctx, connID),
	}))

	if err := s.calls.Remove(ctx, session); err != nil {
		s.log.Error("failed to remove rejected call", sl.Err(err))
	}
	s.roster.BroadcastRoster(ctx, session.RoomCode)

	s.log.Info("call rejected",
		slog.String("op", "service.call.reject"),
		slog.String("caller", session.CallerName),
		slog.String("target", session.CalleeName),
	)
	return nil
}

// EndCall notifies the other participant and removes the session. When no
// session is registered but the request names a target directly, the
// notification still goes out and any slots held by either side are cleared.
func (s *CallService) EndCall(ctx context.Context, connID string, req domain.EndCallRequest) error {
	endedBy := s.displayName(ctx, connID)

	session, err := s.calls.Get(ctx, connID)
	if err != nil {
		if req.TargetRef == "" {
			return nil
		}
		s.sender.ToConnection(req.TargetRef, domain.NewEvent(domain.EventCallEnded, domain.CallEndedPayload{
			EndedBy: endedBy,
		}))
		_ = s.calls.Drop(ctx, connID)
		_ = s.calls.Drop(ctx, req.TargetRef)
		return nil
	}

	other := session.Other(connID)
	s.sender.ToConnection(other, domain.NewEvent(domain.EventCallEnded, domain.CallEndedPayload{
		EndedBy: endedBy,
	}))

	if err := s.calls.Remove(ctx, session); err != nil {
		s.log.Error("failed to remove ended call", sl.Err(err))
	}
	s.roster.BroadcastRoster(ctx, session.RoomCode)

	s.log.Info("call ended",
		slog.String("op", "service.call.end"),
		slog.String("by", endedBy),
	)
	return nil
}

// CallStatus reports whether the named target is reachable in the caller's
// room and whether it already holds a call.
func (s *CallService) CallStatus(ctx context.Context, connID string, req domain.CallStatusRequest) error {
	payload := domain.CallStatusPayload{TargetUserName: req.TargetUserName}

	if _, target, err := s.resolveTarget(ctx, connID, req.TargetUserName); err == nil {
		payload.IsInCall = s.calls.InCall(ctx, target.ID)
		payload.IsAvailable = !payload.IsInCall
	}

	s.sender.ToConnection(connID, domain.NewEvent(domain.EventCallStatusResponse, payload))
	return nil
}

// EndForConnection is the disconnect path: the surviving participant learns
// the call is over because the link dropped, and both slots are cleared.
func (s *CallService) EndForConnection(ctx context.Context, connID string) {
	session, err := s.calls.Get(ctx, connID)
	if err != nil {
		return
	}

	other := session.Other(connID)
	s.sender.ToConnection(other, domain.NewEvent(domain.EventCallEnded, domain.CallEndedPayload{
		EndedBy: session.NameOf(connID),
		Reason:  "connection_lost",
	}))

	if err := s.calls.Remove(ctx, session); err != nil {
		s.log.Error("failed to remove call on disconnect", sl.Err(err))
	}
	s.roster.BroadcastRoster(ctx, session.RoomCode)

	s.log.Info("call torn down on disconnect",
		slog.String("op", "service.call.endForConnection"),
		slog.String("conn", connID),
	)
}

func (s *CallService) resolveTarget(ctx context.Context, connID, targetName string) (*domain.User, *domain.User, error) {
	caller, err := s.users.GetByID(ctx, connID)
	if err != nil || caller.RoomCode == "" {
		return nil, nil, ErrTargetUnavailable
	}

	room, err := s.rooms.GetByCode(ctx, caller.RoomCode)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, nil, ErrTargetUnavailable
		}
		return nil, nil, err
	}

	for _, member := range room.Members() {
		if member.ID != connID && member.Name == targetName {
			return caller, member, nil
		}
	}
	return nil, nil, ErrTargetUnavailable
}

func (s *CallService) displayName(ctx context.Context, connID string) string {
	user, err := s.users.GetByID(ctx, connID)
	if err != nil {
		return ""
	}
	return user.Name
}

// ICEServersPayload wraps the configured STUN list in the wire shape.
func ICEServersPayload(servers []string) domain.ICEServersPayload {
	out := make([]domain.ICEServer, 0, len(servers))
	for _, s := range servers {
		out = append(out, domain.ICEServer{URLs: s})
	}
	return domain.ICEServersPayload{Servers: out}
}
