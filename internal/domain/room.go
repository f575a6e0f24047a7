package domain

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

const (
	codeLength = 6
	codeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// MessageLogCap bounds the per-room message log; oldest entries are
	// evicted first.
	MessageLogCap = 100

	// HistoryLimit is how many recent messages a joining member receives.
	HistoryLimit = 50
)

// Room is a code-addressed group of users sharing chat, playback state and an
// owner. All mutable state lives behind the mutex; readers that iterate must
// copy under RLock before emitting anything.
type Room struct {
	Mutex     sync.RWMutex
	Code      string
	Name      string
	Password  string
	Owner     string
	Users     map[string]*User
	Media     *Media
	Playback  PlaybackState
	Messages  []Message
	CreatedAt time.Time
}

// NewRoom constructs a room owned by the given connection. The code is
// random; uniqueness among live rooms is the repository's concern.
func NewRoom(name, password, owner string) *Room {
	return &Room{
		Code:      GenerateCode(),
		Name:      name,
		Password:  password,
		Owner:     owner,
		Users:     make(map[string]*User),
		Playback:  IdlePlayback(),
		CreatedAt: time.Now().UTC(),
	}
}

// GenerateCode returns a short uppercase alphanumeric room code drawn
// uniformly from the alphabet.
func GenerateCode() string {
	max := big.NewInt(int64(len(codeChars)))

	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("room code entropy unavailable: " + err.Error())
		}
		buf[i] = codeChars[n.Int64()]
	}
	return string(buf)
}

func (r *Room) AddUser(user *User) {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()
	r.Users[user.ID] = user
}

func (r *Room) RemoveUser(connID string) *User {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()

	user, ok := r.Users[connID]
	if !ok {
		return nil
	}
	delete(r.Users, connID)
	return user
}

func (r *Room) Member(connID string) *User {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	return r.Users[connID]
}

// Members returns a copy of the current membership.
func (r *Room) Members() []*User {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()

	members := make([]*User, 0, len(r.Users))
	for _, user := range r.Users {
		members = append(members, user)
	}
	return members
}

func (r *Room) MemberCount() int {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	return len(r.Users)
}

// AddMessage appends to the log and evicts from the front once the cap is
// exceeded.
func (r *Room) AddMessage(msg Message) {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()

	r.Messages = append(r.Messages, msg)
	if len(r.Messages) > MessageLogCap {
		r.Messages = r.Messages[len(r.Messages)-MessageLogCap:]
	}
}

// RecentMessages returns up to limit of the newest messages, oldest first.
func (r *Room) RecentMessages(limit int) []Message {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()

	start := 0
	if len(r.Messages) > limit {
		start = len(r.Messages) - limit
	}

	out := make([]Message, len(r.Messages)-start)
	copy(out, r.Messages[start:])
	return out
}

// SetMedia replaces the active media and the playback state wholesale.
func (r *Room) SetMedia(media *Media, playback PlaybackState) {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()
	r.Media = media
	r.Playback = playback
}

// ClearMedia drops the active media and resets playback to idle.
func (r *Room) ClearMedia() {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()
	r.Media = nil
	r.Playback = IdlePlayback()
}

// ApplyControl merges a partial update into the playback state and returns
// the merged result together with the media kind it applies to.
func (r *Room) ApplyControl(update PlaybackUpdate) (PlaybackState, MediaKind) {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()

	r.Playback.Apply(update)

	kind := MediaFile
	if r.Media != nil {
		kind = r.Media.Kind
	}
	return r.Playback, kind
}

// ActiveMedia returns the current media reference and playback state.
func (r *Room) ActiveMedia() (*Media, PlaybackState) {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	return r.Media, r.Playback
}
