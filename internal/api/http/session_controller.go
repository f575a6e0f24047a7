package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cinewave/watchparty/internal/api/http/converter"
	"github.com/cinewave/watchparty/internal/domain"
	"github.com/cinewave/watchparty/internal/service"
	"github.com/cinewave/watchparty/lib/logger/sl"
)

// SessionController upgrades connections and dispatches named events to the
// coordinator's interactors. Each event is handled to completion before the
// next is read from the same connection, so a single peer's events never
// interleave with each other.
type SessionController struct {
	coordinator *service.Coordinator
	rooms       service.RoomInteractor
	playback    service.PlaybackInteractor
	calls       service.CallInteractor
	upgrader    websocket.Upgrader
	log         *slog.Logger
}

func NewSessionController(
	coordinator *service.Coordinator,
	rooms service.RoomInteractor,
	playback service.PlaybackInteractor,
	calls service.CallInteractor,
	log *slog.Logger,
) *SessionController {
	if log == nil {
		log = slog.Default()
	}
	return &SessionController{
		coordinator: coordinator,
		rooms:       rooms,
		playback:    playback,
		calls:       calls,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

func (c *SessionController) Session(ctx *gin.Context) {
	socket, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.String(http.StatusInternalServerError, "failed to upgrade connection")
		return
	}

	conn := domain.NewConnection(socket)
	c.coordinator.Connect(conn)

	go forwardConnectionEvents(conn)

	for {
		var event domain.Event
		if err := socket.ReadJSON(&event); err != nil {
			c.coordinator.Disconnect(context.Background(), conn.ID)
			return
		}

		c.dispatch(context.Background(), conn, event)
	}
}

func (c *SessionController) dispatch(ctx context.Context, conn *domain.Connection, event domain.Event) {
	switch event.Name {
	case domain.EventPong:
		c.coordinator.HeartbeatAck(conn.ID)

	case domain.EventCreateRoom:
		var req domain.CreateRoomRequest
		if !c.decode(conn, event, &req) {
			return
		}
		room, user, err := c.rooms.CreateRoom(ctx, conn.ID, req)
		if err != nil {
			c.emitError(conn, domain.EventError, err)
			return
		}
		link := c.rooms.ShareableLink(room.Code)
		conn.EnqueueEvent(domain.NewEvent(domain.EventRoomCreated, converter.RoomCreated(room, user, link)))

	case domain.EventJoinRoom:
		var req domain.JoinRoomRequest
		if !c.decode(conn, event, &req) {
			return
		}
		room, user, err := c.rooms.JoinRoom(ctx, conn.ID, req)
		if err != nil {
			c.emitError(conn, domain.EventError, err)
			return
		}
		conn.EnqueueEvent(domain.NewEvent(domain.EventRoomJoined, converter.RoomJoined(room, user)))

	case domain.EventMessage:
		var req domain.MessageRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.rooms.PostMessage(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventError, err)
		}

	case domain.EventUploadMedia:
		var req domain.UploadMediaRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.playback.ShareUpload(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventError, err)
		}

	case domain.EventShareLink:
		var req domain.ShareLinkRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.playback.ShareLink(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventError, err)
		}

	case domain.EventControl:
		var update domain.PlaybackUpdate
		if !c.decode(conn, event, &update) {
			return
		}
		if err := c.playback.Control(ctx, conn.ID, update); err != nil {
			c.emitError(conn, domain.EventError, err)
		}

	case domain.EventDeleteMedia:
		if err := c.playback.DeleteMedia(ctx, conn.ID); err != nil {
			c.emitError(conn, domain.EventError, err)
		}

	case domain.EventStartCall:
		var req domain.StartCallRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.calls.StartCall(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventCallError, err)
		}

	case domain.EventAcceptCall:
		var req domain.AcceptCallRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.calls.AcceptCall(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventCallError, err)
		}

	case domain.EventAnswer:
		var req domain.AnswerRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.calls.Answer(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventCallError, err)
		}

	case domain.EventICECandidate:
		var req domain.CandidateRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.calls.ICECandidate(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventCallError, err)
		}

	case domain.EventRejectCall:
		var req domain.RejectCallRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.calls.RejectCall(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventCallError, err)
		}

	case domain.EventEndCall:
		var req domain.EndCallRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.calls.EndCall(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventCallError, err)
		}

	case domain.EventCheckCallStatus:
		var req domain.CallStatusRequest
		if !c.decode(conn, event, &req) {
			return
		}
		if err := c.calls.CallStatus(ctx, conn.ID, req); err != nil {
			c.emitError(conn, domain.EventCallError, err)
		}

	default:
		c.log.Debug("unknown event", slog.String("type", event.Name), slog.String("conn", conn.ID))
	}
}

func (c *SessionController) decode(conn *domain.Connection, event domain.Event, dst any) bool {
	if len(event.Data) == 0 {
		// Events without payloads decode into zero values.
		return true
	}
	if err := json.Unmarshal(event.Data, dst); err != nil {
		c.log.Debug("malformed event payload",
			slog.String("type", event.Name),
			slog.String("conn", conn.ID),
			sl.Err(err),
		)
		conn.EnqueueEvent(domain.NewEvent(domain.EventError, domain.ErrorPayload{Message: "malformed payload"}))
		return false
	}
	return true
}

// emitError maps a service error to a scoped error event on the originating
// connection only. Nothing here terminates the connection.
func (c *SessionController) emitError(conn *domain.Connection, eventName string, err error) {
	msg := "request failed"
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		msg = "room not found"
	case errors.Is(err, service.ErrWrongPassword):
		msg = "wrong password"
	case errors.Is(err, service.ErrTargetUnavailable):
		msg = "user not found or offline"
	case errors.Is(err, service.ErrTargetBusy):
		msg = "user is already in a call"
	case errors.Is(err, service.ErrAlreadyInCall):
		msg = "you are already in a call"
	case errors.Is(err, service.ErrInvalidMediaLink):
		msg = "invalid media link"
	default:
		c.log.Error("event handling failed", sl.Err(err))
	}

	conn.EnqueueEvent(domain.NewEvent(eventName, domain.ErrorPayload{Message: msg}))
}

func forwardConnectionEvents(conn *domain.Connection) {
	for event := range conn.Events() {
		if conn.Socket == nil {
			return
		}
		if err := conn.Socket.WriteJSON(event); err != nil {
			return
		}
	}
}
