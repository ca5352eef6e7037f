package transport

import (
	"bubble/domain"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newWsServer(t *testing.T) *httptest.Server {
	t.Helper()
	stack := newTestStack(t)
	server := httptest.NewServer(stack.engine)
	t.Cleanup(server.Close)
	return server
}

func dialWs(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, eventName string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: eventName, Data: raw}))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var envelope Envelope
	require.NoError(t, conn.ReadJSON(&envelope))
	return envelope
}

func TestWs_Join_Send_Receive(t *testing.T) {
	req := require.New(t)
	server := newWsServer(t)

	alice := dialWs(t, server)
	bob := dialWs(t, server)

	// Given both clients joined an empty room
	sendEnvelope(t, alice, "joinRoom", JoinRoomPayload{Room: "general"})
	sendEnvelope(t, bob, "joinRoom", JoinRoomPayload{Room: "general"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		envelope := readEnvelope(t, conn)
		req.Equal("previousMessages", envelope.Event)

		var history []domain.Message
		req.NoError(json.Unmarshal(envelope.Data, &history))
		req.Empty(history)
	}

	// When one client sends a message
	sendEnvelope(t, alice, "sendMessage",
		SendMessagePayload{Room: "general", User: "alice@mail.io", Text: "hello"})

	// Then both clients receive the same broadcast
	for _, conn := range []*websocket.Conn{alice, bob} {
		envelope := readEnvelope(t, conn)
		req.Equal("receiveMessage", envelope.Event)

		var message domain.Message
		req.NoError(json.Unmarshal(envelope.Data, &message))
		req.Equal("general", message.Room)
		req.Equal("alice@mail.io", message.User)
		req.Equal("hello", message.Text)
		req.False(message.CreatedAt.IsZero())
	}
}

func TestWs_Late_Joiner_Receives_History(t *testing.T) {
	req := require.New(t)
	server := newWsServer(t)

	alice := dialWs(t, server)
	sendEnvelope(t, alice, "joinRoom", JoinRoomPayload{Room: "general"})
	readEnvelope(t, alice)

	// Given two broadcasts already happened
	sendEnvelope(t, alice, "sendMessage",
		SendMessagePayload{Room: "general", User: "alice@mail.io", Text: "first"})
	sendEnvelope(t, alice, "sendMessage",
		SendMessagePayload{Room: "general", User: "alice@mail.io", Text: "second"})
	readEnvelope(t, alice)
	readEnvelope(t, alice)

	// When a second client joins
	bob := dialWs(t, server)
	sendEnvelope(t, bob, "joinRoom", JoinRoomPayload{Room: "general"})

	// Then its first frame is the full history, oldest first
	envelope := readEnvelope(t, bob)
	req.Equal("previousMessages", envelope.Event)

	var history []domain.Message
	req.NoError(json.Unmarshal(envelope.Data, &history))
	req.Len(history, 2)
	req.Equal("first", history[0].Text)
	req.Equal("second", history[1].Text)
}

func TestWs_Leave_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	server := newWsServer(t)

	alice := dialWs(t, server)
	bob := dialWs(t, server)
	sendEnvelope(t, alice, "joinRoom", JoinRoomPayload{Room: "general"})
	sendEnvelope(t, bob, "joinRoom", JoinRoomPayload{Room: "general"})
	readEnvelope(t, alice)
	readEnvelope(t, bob)

	// When one client leaves and the other sends
	sendEnvelope(t, bob, "leaveRoom", LeaveRoomPayload{Room: "general"})
	sendEnvelope(t, alice, "sendMessage",
		SendMessagePayload{Room: "general", User: "alice@mail.io", Text: "anyone?"})

	// Then the sender still gets its echo
	envelope := readEnvelope(t, alice)
	req.Equal("receiveMessage", envelope.Event)

	// And the departed client gets nothing until its read times out
	req.NoError(bob.SetReadDeadline(time.Now().Add(200 * time.Millisecond)))
	var unexpected Envelope
	req.Error(bob.ReadJSON(&unexpected))
}

func TestWs_Invalid_Payload_Is_Rejected(t *testing.T) {
	req := require.New(t)
	server := newWsServer(t)
	conn := dialWs(t, server)

	// When the text field is missing
	sendEnvelope(t, conn, "sendMessage",
		map[string]string{"room": "general", "user": "alice@mail.io"})

	// Then the session survives and reports the problem
	envelope := readEnvelope(t, conn)
	req.Equal("error", envelope.Event)

	var body map[string]string
	req.NoError(json.Unmarshal(envelope.Data, &body))
	req.Contains(body["error"], "invalid payload")
}

func TestWs_Unknown_Event_Is_Rejected(t *testing.T) {
	req := require.New(t)
	server := newWsServer(t)
	conn := dialWs(t, server)

	sendEnvelope(t, conn, "teleport", map[string]string{"room": "general"})

	envelope := readEnvelope(t, conn)
	req.Equal("error", envelope.Event)
}
