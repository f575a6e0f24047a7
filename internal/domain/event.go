package domain

import (
	"encoding/json"

	"github.com/pion/webrtc/v3"
)

// Inbound event names.
const (
	EventCreateRoom      = "create-room"
	EventJoinRoom        = "join-room"
	EventMessage         = "message"
	EventUploadMedia     = "upload-media"
	EventShareLink       = "share-link"
	EventControl         = "control"
	EventDeleteMedia     = "delete-media"
	EventStartCall       = "start-call"
	EventAcceptCall      = "accept-call"
	EventAnswer          = "webrtc-answer"
	EventICECandidate    = "webrtc-ice-candidate"
	EventRejectCall      = "reject-call"
	EventEndCall         = "end-call"
	EventCheckCallStatus = "check-call-status"
	EventPong            = "pong"
)

// Outbound event names.
const (
	EventRoomCreated        = "room-created"
	EventRoomJoined         = "room-joined"
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventUserListUpdate     = "user-list-update"
	EventMediaUploaded      = "media-uploaded"
	EventMediaShared        = "media-shared"
	EventMediaDeleted       = "media-deleted"
	EventUploadProgress     = "upload-progress"
	EventIncomingCall       = "incoming-call"
	EventCallAccepted       = "call-accepted"
	EventCallRejected       = "call-rejected"
	EventCallEnded          = "call-ended"
	EventCallStatusResponse = "call-status-response"
	EventCallError          = "call-error"
	EventError              = "error"
	EventPing               = "ping"
	EventICEServers         = "ice-servers"
)

// Event is the wire envelope for both directions: a name plus a JSON payload.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals payload into an Event envelope. A payload that cannot be
// marshaled yields an event with empty data rather than an error: outbound
// delivery is fire-and-forget.
func NewEvent(name string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{Name: name}
	}
	return Event{Name: name, Data: data}
}

type CreateRoomRequest struct {
	UserName  string `json:"userName"`
	UserPhoto string `json:"userPhoto,omitempty"`
	RoomName  string `json:"roomName"`
	Password  string `json:"password,omitempty"`
}

type JoinRoomRequest struct {
	RoomCode  string `json:"roomCode"`
	UserName  string `json:"userName"`
	UserPhoto string `json:"userPhoto,omitempty"`
	Password  string `json:"password,omitempty"`
}

type MessageRequest struct {
	Text     string `json:"text"`
	Type     string `json:"type,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

type UploadMediaRequest struct {
	MediaRef string `json:"mediaRef"`
	Title    string `json:"title,omitempty"`
}

type ShareLinkRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type StartCallRequest struct {
	TargetUserName string                     `json:"targetUserName"`
	CallerName     string                     `json:"callerName,omitempty"`
	Type           string                     `json:"type"`
	Offer          *webrtc.SessionDescription `json:"offer"`
}

type AcceptCallRequest struct {
	CallerRef string `json:"callerRef"`
}

type AnswerRequest struct {
	TargetRef string                     `json:"targetRef"`
	Answer    *webrtc.SessionDescription `json:"answer"`
}

type CandidateRequest struct {
	TargetRef string                   `json:"targetRef"`
	Candidate *webrtc.ICECandidateInit `json:"candidate"`
}

type RejectCallRequest struct {
	CallerRef string `json:"callerRef"`
}

type EndCallRequest struct {
	TargetRef string `json:"targetRef,omitempty"`
}

type CallStatusRequest struct {
	TargetUserName string `json:"targetUserName"`
}

type RoomCreatedPayload struct {
	RoomCode      string `json:"roomCode"`
	RoomName      string `json:"roomName"`
	IsOwner       bool   `json:"isOwner"`
	ShareableLink string `json:"shareableLink"`
	UserColor     string `json:"userColor"`
}

type RoomJoinedPayload struct {
	RoomCode         string        `json:"roomCode"`
	RoomName         string        `json:"roomName"`
	IsOwner          bool          `json:"isOwner"`
	UserColor        string        `json:"userColor"`
	PreviousMessages []Message     `json:"previousMessages"`
	ActiveMedia      *Media        `json:"activeMedia"`
	Playback         PlaybackState `json:"playbackState"`
}

type UserPresencePayload struct {
	UserName string `json:"userName"`
}

type RosterEntry struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	UserPhoto string `json:"userPhoto"`
	UserColor string `json:"userColor"`
	IsOwner   bool   `json:"isOwner"`
	IsInCall  bool   `json:"isInCall"`
	Country   string `json:"country,omitempty"`
}

type MediaUploadedPayload struct {
	MediaURL   string        `json:"mediaUrl"`
	Title      string        `json:"title"`
	UploadedBy string        `json:"uploadedBy"`
	Playback   PlaybackState `json:"playbackState"`
}

type MediaSharedPayload struct {
	EmbedID  string        `json:"embedId"`
	Title    string        `json:"title"`
	SharedBy string        `json:"sharedBy"`
	Playback PlaybackState `json:"playbackState"`
}

type UploadProgressPayload struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

type IncomingCallPayload struct {
	Offer      *webrtc.SessionDescription `json:"offer"`
	CallerName string                     `json:"callerName"`
	Type       string                     `json:"type"`
	CallerRef  string                     `json:"callerRef"`
}

type CallAcceptedPayload struct {
	AnswererRef  string `json:"answererRef"`
	AnswererName string `json:"answererName"`
}

type AnswerPayload struct {
	Answer       *webrtc.SessionDescription `json:"answer"`
	AnswererRef  string                     `json:"answererRef"`
	AnswererName string                     `json:"answererName,omitempty"`
}

type CandidatePayload struct {
	Candidate *webrtc.ICECandidateInit `json:"candidate"`
	SenderRef string                   `json:"senderRef"`
}

type CallRejectedPayload struct {
	RejectedBy string `json:"rejectedBy"`
}

type CallEndedPayload struct {
	EndedBy string `json:"endedBy"`
	Reason  string `json:"reason,omitempty"`
}

type CallStatusPayload struct {
	TargetUserName string `json:"targetUserName"`
	IsAvailable    bool   `json:"isAvailable"`
	IsInCall       bool   `json:"isInCall"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

type ICEServer struct {
	URLs string `json:"urls"`
}

type ICEServersPayload struct {
	Servers []ICEServer `json:"servers"`
}
