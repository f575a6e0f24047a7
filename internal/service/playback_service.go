package service

import (
	"context"
	"log/slog"

	"github.com/cinewave/watchparty/internal/domain"
	"github.com/cinewave/watchparty/internal/repository"
)

// PlaybackService owns each room's shared playback state. Every mutation is
// owner-only; a non-owner call is dropped without an error, matching the
// roster the clients already see.
type PlaybackService struct {
	rooms  repository.RoomRepository
	users  repository.UserRepository
	sender Sender
	log    *slog.Logger
}

func NewPlaybackService(
	rooms repository.RoomRepository,
	users repository.UserRepository,
	sender Sender,
	log *slog.Logger,
) *PlaybackService {
	if log == nil {
		log = slog.Default()
	}
	return &PlaybackService{
		rooms:  rooms,
		users:  users,
		sender: sender,
		log:    log,
	}
}

// ShareUpload replaces the room media with an uploaded file reference and
// restarts playback from zero for everyone.
func (s *PlaybackService) ShareUpload(ctx context.Context, connID string, req domain.UploadMediaRequest) error {
	room, user, ok := s.ownedRoom(ctx, connID)
	if !ok {
		return nil
	}

	title := req.Title
	if title == "" {
		title = "Video"
	}

	media := domain.NewFileMedia(req.MediaRef, title, user.Name)
	playback := domain.StartedPlayback("")
	room.SetMedia(media, playback)

	s.sender.ToRoom(ctx, room.Code, domain.NewEvent(domain.EventMediaUploaded, domain.MediaUploadedPayload{
		MediaURL:   media.URL,
		Title:      media.Title,
		UploadedBy: media.SharedBy,
		Playback:   playback,
	}))
	s.sender.ToConnection(connID, domain.NewEvent(domain.EventUploadProgress, domain.UploadProgressPayload{
		Status:   "completed",
		Progress: 100,
	}))

	s.log.Info("media uploaded",
		slog.String("op", "service.playback.shareUpload"),
		slog.String("room", room.Code),
		slog.String("title", media.Title),
	)
	return nil
}

// ShareLink replaces the room media with an externally embedded video.
func (s *PlaybackService) ShareLink(ctx context.Context, connID string, req domain.ShareLinkRequest) error {
	room, user, ok := s.ownedRoom(ctx, connID)
	if !ok {
		return nil
	}

	embedID := domain.ExtractEmbedID(req.URL)
	if embedID == "" {
		return ErrInvalidMediaLink
	}

	title := req.Title
	if title == "" {
		title = "Video"
	}

	media := domain.NewEmbedMedia(embedID, req.URL, title, user.Name)
	playback := domain.StartedPlayback(embedID)
	room.SetMedia(media, playback)

	s.sender.ToRoom(ctx, room.Code, domain.NewEvent(domain.EventMediaShared, domain.MediaSharedPayload{
		EmbedID:  embedID,
		Title:    media.Title,
		SharedBy: media.SharedBy,
		Playback: playback,
	}))

	s.log.Info("media shared",
		slog.String("op", "service.playback.shareLink"),
		slog.String("room", room.Code),
		slog.String("embed", embedID),
	)
	return nil
}

// Control merges a partial update into the playback state and broadcasts the
// result. File media goes to every member; embedded media skips the sender,
// whose player already applied the change locally.
func (s *PlaybackService) Control(ctx context.Context, connID string, update domain.PlaybackUpdate) error {
	room, _, ok := s.ownedRoom(ctx, connID)
	if !ok {
		return nil
	}

	merged, kind := room.ApplyControl(update)

	event := domain.NewEvent(domain.EventControl, merged)
	if kind == domain.MediaEmbed {
		s.sender.ToRoom(ctx, room.Code, event, connID)
	} else {
		s.sender.ToRoom(ctx, room.Code, event)
	}
	return nil
}

// DeleteMedia clears the active media and resets playback to idle.
func (s *PlaybackService) DeleteMedia(ctx context.Context, connID string) error {
	room, _, ok := s.ownedRoom(ctx, connID)
	if !ok {
		return nil
	}

	room.ClearMedia()
	s.sender.ToRoom(ctx, room.Code, domain.NewEvent(domain.EventMediaDeleted, struct{}{}))
	return nil
}

// ownedRoom resolves the acting connection's room and reports whether the
// connection is its owner.
func (s *PlaybackService) ownedRoom(ctx context.Context, connID string) (*domain.Room, *domain.User, bool) {
	user, err := s.users.GetByID(ctx, connID)
	if err != nil || user.RoomCode == "" {
		return nil, nil, false
	}

	room, err := s.rooms.GetByCode(ctx, user.RoomCode)
	if err != nil {
		return nil, nil, false
	}

	if room.Owner != connID {
		s.log.Debug("ignoring playback mutation from non-owner",
			slog.String("room", room.Code),
			slog.String("conn", connID),
		)
		return nil, nil, false
	}

	return room, user, true
}
