package transport

import (
	"bubble/domain/event"
	"bubble/services"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WsHandler upgrades HTTP requests and runs one session per connection.
// A session owns a connection ID, a sink registered with the engine, and
// a writer goroutine; all writes to the socket go through that goroutine
// because gorilla connections allow a single concurrent writer.
type WsHandler struct {
	log        *slog.Logger
	chat       services.IChatService
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewWsHandler(log *slog.Logger, chat services.IChatService, bufferSize int) *WsHandler {
	return &WsHandler{
		log:  log,
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		bufferSize: bufferSize,
	}
}

func (h *WsHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	connectionID := uuid.NewString()
	sink := NewWsSink(h.log, h.bufferSize)
	h.log.Info("Connection opened", "connection_id", connectionID)

	done := make(chan struct{})
	go h.writeLoop(conn, sink, done)

	defer func() {
		h.chat.Disconnect(connectionID)
		close(done)
		_ = conn.Close()
		h.log.Info("Connection closed", "connection_id", connectionID)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("Connection read failed", "connection_id", connectionID, "error", err)
			}
			return
		}
		h.handleFrame(connectionID, sink, raw)
	}
}

// handleFrame decodes one inbound envelope and dispatches it. Bad frames
// never kill the session; the client gets an error event instead.
func (h *WsHandler) handleFrame(connectionID string, sink *WsSink, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.reject(sink, "malformed envelope")
		return
	}

	switch envelope.Event {
	case eventJoinRoom:
		var payload JoinRoomPayload
		if err := decodePayload(envelope.Data, &payload); err != nil {
			h.reject(sink, err.Error())
			return
		}
		h.chat.JoinRoom(connectionID, payload.Room, sink)
	case eventSend:
		var payload SendMessagePayload
		if err := decodePayload(envelope.Data, &payload); err != nil {
			h.reject(sink, err.Error())
			return
		}
		h.chat.SendMessage(connectionID, payload.Room, payload.User, payload.Text)
	case eventLeaveRoom:
		var payload LeaveRoomPayload
		if err := decodePayload(envelope.Data, &payload); err != nil {
			h.reject(sink, err.Error())
			return
		}
		h.chat.LeaveRoom(connectionID, payload.Room)
	default:
		h.reject(sink, fmt.Sprintf("unknown event %q", envelope.Event))
	}
}

func (h *WsHandler) reject(sink *WsSink, reason string) {
	select {
	case sink.Events <- event.ProtocolError{Reason: reason}:
	default:
	}
}

// writeLoop drains the sink in FIFO order onto the socket, so the client
// observes events exactly as the engine emitted them.
func (h *WsHandler) writeLoop(conn *websocket.Conn, sink *WsSink, done <-chan struct{}) {
	for {
		select {
		case e := <-sink.Events:
			envelope, err := toEnvelope(e)
			if err != nil {
				h.log.Error("Event not serializable", "event", e.Name(), "error", err)
				continue
			}
			if err := conn.WriteJSON(envelope); err != nil {
				h.log.Debug("Connection write failed", "error", err)
				return
			}
		case <-done:
			return
		}
	}
}
