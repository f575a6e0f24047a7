package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is an immutable chat entry with a snapshot of the sender at send
// time, so roster churn never rewrites history.
type Message struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	UserPhoto string    `json:"userPhoto"`
	UserColor string    `json:"userColor"`
	Text      string    `json:"text,omitempty"`
	Type      string    `json:"type"`
	FileURL   string    `json:"fileUrl,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
	FileSize  int64     `json:"fileSize,omitempty"`
	Time      string    `json:"time"`
	Country   string    `json:"country,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessage(sender *User, req MessageRequest) Message {
	kind := req.Type
	if kind == "" {
		kind = "text"
	}

	now := time.Now().UTC()

	return Message{
		ID:        uuid.New().String(),
		UserName:  sender.Name,
		UserPhoto: sender.Photo,
		UserColor: sender.Color,
		Text:      req.Text,
		Type:      kind,
		FileURL:   req.FileURL,
		FileName:  req.FileName,
		FileSize:  req.FileSize,
		Time:      now.Format("15:04"),
		Country:   sender.Country,
		Timestamp: now,
	}
}
