package domain

import (
	"fmt"
	"net/url"
)

var userColors = []string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7"}

// User represents a connection joined to a room. Its id is the connection id,
// so a user exists only while its transport session does.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"userName"`
	Photo    string `json:"userPhoto"`
	Color    string `json:"userColor"`
	IsOwner  bool   `json:"isOwner"`
	RoomCode string `json:"-"`
	Country  string `json:"country,omitempty"`
}

func NewUser(connID, name, photo string, isOwner bool, roomCode string) *User {
	color := ColorFor(name)
	if photo == "" {
		photo = defaultAvatar(name, color)
	}

	return &User{
		ID:       connID,
		Name:     name,
		Photo:    photo,
		Color:    color,
		IsOwner:  isOwner,
		RoomCode: roomCode,
	}
}

// ColorFor picks a palette color deterministically from the display name, so
// the same name always renders the same color.
func ColorFor(name string) string {
	sum := 0
	for _, r := range name {
		sum += int(r)
	}
	return userColors[sum%len(userColors)]
}

func defaultAvatar(name, color string) string {
	initial := ""
	for _, r := range name {
		initial = string(r)
		break
	}

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100"><rect fill="%s" width="100" height="100"/><text x="50" y="60" font-size="40" text-anchor="middle" fill="white">%s</text></svg>`,
		color, initial,
	)
	return "data:image/svg+xml;utf8," + url.PathEscape(svg)
}
