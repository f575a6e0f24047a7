package converter

import (
	"github.com/cinewave/watchparty/internal/domain"
)

// RoomJoined builds the join snapshot handed to a freshly joined member:
// recent chat history, the active media and the current playback state.
func RoomJoined(room *domain.Room, user *domain.User) domain.RoomJoinedPayload {
	media, playback := room.ActiveMedia()

	return domain.RoomJoinedPayload{
		RoomCode:         room.Code,
		RoomName:         room.Name,
		IsOwner:          user.IsOwner,
		UserColor:        user.Color,
		PreviousMessages: room.RecentMessages(domain.HistoryLimit),
		ActiveMedia:      media,
		Playback:         playback,
	}
}

// RoomCreated builds the creation acknowledgment for the room owner.
func RoomCreated(room *domain.Room, user *domain.User, shareableLink string) domain.RoomCreatedPayload {
	return domain.RoomCreatedPayload{
		RoomCode:      room.Code,
		RoomName:      room.Name,
		IsOwner:       true,
		ShareableLink: shareableLink,
		UserColor:     user.Color,
	}
}
