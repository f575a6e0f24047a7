package domain

import (
	"regexp"
	"time"
)

type MediaKind string

const (
	// MediaFile is media addressed by a direct URL (uploaded file).
	MediaFile MediaKind = "file"
	// MediaEmbed is externally embedded media addressed by a provider id.
	MediaEmbed MediaKind = "embed"
)

// PlaybackState is the single authoritative playback record of a room,
// mutable only through owner-issued control events.
type PlaybackState struct {
	Playing  bool    `json:"playing"`
	Position float64 `json:"position"`
	Rate     float64 `json:"rate"`
	MediaID  string  `json:"mediaId,omitempty"`
}

func IdlePlayback() PlaybackState {
	return PlaybackState{Playing: false, Position: 0, Rate: 1}
}

// StartedPlayback is the state a freshly shared piece of media begins in.
func StartedPlayback(mediaID string) PlaybackState {
	return PlaybackState{Playing: true, Position: 0, Rate: 1, MediaID: mediaID}
}

// PlaybackUpdate carries a partial state change; nil fields are left
// untouched by Apply.
type PlaybackUpdate struct {
	Playing  *bool    `json:"playing,omitempty"`
	Position *float64 `json:"position,omitempty"`
	Rate     *float64 `json:"rate,omitempty"`
	MediaID  *string  `json:"mediaId,omitempty"`
}

// Apply shallow-merges the update into the state.
func (s *PlaybackState) Apply(u PlaybackUpdate) {
	if u.Playing != nil {
		s.Playing = *u.Playing
	}
	if u.Position != nil {
		s.Position = *u.Position
	}
	if u.Rate != nil {
		s.Rate = *u.Rate
	}
	if u.MediaID != nil {
		s.MediaID = *u.MediaID
	}
}

// Media references what a room is watching. The coordinator never touches
// media bytes, only this metadata.
type Media struct {
	Kind     MediaKind `json:"kind"`
	URL      string    `json:"url,omitempty"`
	EmbedID  string    `json:"embedId,omitempty"`
	Title    string    `json:"title"`
	SharedBy string    `json:"sharedBy"`
	SharedAt time.Time `json:"sharedAt"`
}

func NewFileMedia(url, title, sharedBy string) *Media {
	return &Media{
		Kind:     MediaFile,
		URL:      url,
		Title:    title,
		SharedBy: sharedBy,
		SharedAt: time.Now().UTC(),
	}
}

func NewEmbedMedia(embedID, url, title, sharedBy string) *Media {
	return &Media{
		Kind:     MediaEmbed,
		URL:      url,
		EmbedID:  embedID,
		Title:    title,
		SharedBy: sharedBy,
		SharedAt: time.Now().UTC(),
	}
}

var embedIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ExtractEmbedID pulls the 11-character video id out of a share link.
// Returns "" when the link is not recognized.
func ExtractEmbedID(link string) string {
	match := embedIDPattern.FindStringSubmatch(link)
	if match == nil {
		return ""
	}
	return match[1]
}
