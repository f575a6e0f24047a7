package domain

import (
	"sync"
	"time"
)

type CallStatus string

const (
	CallRinging  CallStatus = "ringing"
	CallAccepted CallStatus = "accepted"
)

// CallSession pairs two connections attempting or conducting a call. It is a
// single record looked up under both participant connection ids; the registry
// owns that paired-slot discipline. Identity fields are immutable after
// construction; only the status transitions, behind the session mutex.
type CallSession struct {
	CallerID   string
	CallerName string
	CalleeID   string
	CalleeName string
	RoomCode   string
	Type       string
	StartedAt  time.Time

	mu     sync.Mutex
	status CallStatus
}

func NewCallSession(caller, callee *User, callerName, mediaType string) *CallSession {
	if callerName == "" {
		callerName = caller.Name
	}

	return &CallSession{
		CallerID:   caller.ID,
		CallerName: callerName,
		CalleeID:   callee.ID,
		CalleeName: callee.Name,
		RoomCode:   caller.RoomCode,
		Type:       mediaType,
		status:     CallRinging,
		StartedAt:  time.Now().UTC(),
	}
}

func (c *CallSession) Status() CallStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Accept marks the session accepted.
func (c *CallSession) Accept() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = CallAccepted
}

// Other returns the participant id opposite to connID.
func (c *CallSession) Other(connID string) string {
	if c.CallerID == connID {
		return c.CalleeID
	}
	return c.CallerID
}

// NameOf returns the display name recorded for connID at call start.
func (c *CallSession) NameOf(connID string) string {
	if c.CallerID == connID {
		return c.CallerName
	}
	return c.CalleeName
}

func (c *CallSession) Has(connID string) bool {
	return c.CallerID == connID || c.CalleeID == connID
}
