package transport

import (
	"bubble/domain"
	"bubble/repositories"
	"bubble/runtime"
	"bubble/runtime/workers"
	"bubble/search"
	"bubble/services"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testStack struct {
	engine   *gin.Engine
	messages repositories.IMessageRepository
	index    *search.MessageIndex
	chat     services.IChatService
}

// newTestStack assembles the whole service on throwaway storage: badger in
// a temp dir, a fresh search index, one broadcast engine.
func newTestStack(t *testing.T) *testStack {
	t.Helper()
	log := slog.Default()

	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	index, err := search.NewMessageIndex(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, index.Close())
	})

	messages := repositories.NewMessageRepository(db, log)
	users := repositories.NewUserRepository(db)
	rooms := repositories.NewRoomRepository(db)

	broadcaster := runtime.NewBroadcaster(log,
		workers.NewSupervisor(log, 10*time.Millisecond),
		runtime.NewRegistry(), messages, users, 64)
	broadcaster.AddSinks(index)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	broadcaster.Start(ctx)

	chat := services.NewChatService(broadcaster, messages)
	router := NewRouter(log, chat,
		services.NewRoomService(rooms),
		services.NewUserService(users),
		index,
		NewWsHandler(log, chat, 32))

	return &testStack{engine: router.Engine(), messages: messages, index: index, chat: chat}
}

func (s *testStack) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	s.engine.ServeHTTP(recorder, req)
	return recorder
}

func errorOf(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body["error"]
}

func TestHTTP_CreateRoom(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodPost, "/chatrooms", gin.H{"name": "general"})

	req.Equal(http.StatusCreated, recorder.Code)
	var room domain.Room
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &room))
	req.Equal("general", room.Name)
}

func TestHTTP_CreateRoom_Duplicate(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	stack.do(t, http.MethodPost, "/chatrooms", gin.H{"name": "general"})
	recorder := stack.do(t, http.MethodPost, "/chatrooms", gin.H{"name": "general"})

	req.Equal(http.StatusBadRequest, recorder.Code)
	req.Equal("Chat room already exists", errorOf(t, recorder))
}

func TestHTTP_CreateRoom_MissingName(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodPost, "/chatrooms", gin.H{})

	req.Equal(http.StatusBadRequest, recorder.Code)
	req.Equal("Chat room name is required", errorOf(t, recorder))
}

func TestHTTP_ListRooms(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	stack.do(t, http.MethodPost, "/chatrooms", gin.H{"name": "general"})
	stack.do(t, http.MethodPost, "/chatrooms", gin.H{"name": "random"})

	recorder := stack.do(t, http.MethodGet, "/chatrooms", nil)

	req.Equal(http.StatusOK, recorder.Code)
	var rooms []domain.Room
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &rooms))
	req.Len(rooms, 2)
}

func TestHTTP_History(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	// Given two persisted messages
	for _, text := range []string{"first", "second"} {
		req.NoError(stack.messages.Store(domain.Message{
			ID:        uuid.New(),
			Room:      "general",
			User:      "alice@mail.io",
			Text:      text,
			CreatedAt: time.Now().UTC(),
		}))
	}

	recorder := stack.do(t, http.MethodGet, "/messages/general", nil)

	req.Equal(http.StatusOK, recorder.Code)
	var messages []domain.Message
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &messages))
	req.Len(messages, 2)
	req.Equal("first", messages[0].Text)
	req.Equal("second", messages[1].Text)
}

func TestHTTP_History_UnknownRoom(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodGet, "/messages/nowhere", nil)

	req.Equal(http.StatusOK, recorder.Code)
	var messages []domain.Message
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &messages))
	req.Empty(messages)
}

func TestHTTP_SearchMessages(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	req.NoError(stack.index.Index(domain.Message{
		ID:        uuid.New(),
		Room:      "general",
		User:      "alice@mail.io",
		Text:      "deployment went fine",
		CreatedAt: time.Now().UTC(),
	}))
	req.NoError(stack.index.Index(domain.Message{
		ID:        uuid.New(),
		Room:      "random",
		User:      "alice@mail.io",
		Text:      "deployment talk does not belong here",
		CreatedAt: time.Now().UTC(),
	}))

	recorder := stack.do(t, http.MethodGet, "/messages/general/search?q=deployment", nil)

	req.Equal(http.StatusOK, recorder.Code)
	var messages []domain.Message
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &messages))
	req.Len(messages, 1)
	req.Equal("general", messages[0].Room)
}

func TestHTTP_SearchMessages_MissingQuery(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodGet, "/messages/general/search", nil)

	req.Equal(http.StatusBadRequest, recorder.Code)
	req.Equal("Search query is required", errorOf(t, recorder))
}

func TestHTTP_UpsertUser(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodPost, "/users",
		gin.H{"email": "alice@mail.io", "displayName": "Alice"})

	req.Equal(http.StatusOK, recorder.Code)
	var profile domain.UserProfile
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &profile))
	req.Equal("Alice", profile.DisplayName)
}

func TestHTTP_UpsertUser_MissingFields(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodPost, "/users", gin.H{"email": "alice@mail.io"})

	req.Equal(http.StatusBadRequest, recorder.Code)
	req.Equal("Email and display name are required", errorOf(t, recorder))
}

func TestHTTP_GetUser(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	stack.do(t, http.MethodPost, "/users",
		gin.H{"email": "alice@mail.io", "displayName": "Alice"})

	recorder := stack.do(t, http.MethodGet, "/users/alice@mail.io", nil)

	req.Equal(http.StatusOK, recorder.Code)
	var body map[string]string
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
	req.Equal("Alice", body["displayName"])
}

func TestHTTP_GetUser_Unknown(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodGet, "/users/nobody@mail.io", nil)

	req.Equal(http.StatusNotFound, recorder.Code)
	req.Equal("User not found", errorOf(t, recorder))
}

func TestHTTP_UpdateUser(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	stack.do(t, http.MethodPost, "/users",
		gin.H{"email": "alice@mail.io", "displayName": "Alice"})
	recorder := stack.do(t, http.MethodPut, "/users/alice@mail.io",
		gin.H{"displayName": "Alicia"})

	req.Equal(http.StatusOK, recorder.Code)
	var profile domain.UserProfile
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &profile))
	req.Equal("Alicia", profile.DisplayName)
}

func TestHTTP_UpdateUser_MissingDisplayName(t *testing.T) {
	req := require.New(t)
	stack := newTestStack(t)

	recorder := stack.do(t, http.MethodPut, "/users/alice@mail.io", gin.H{})

	req.Equal(http.StatusBadRequest, recorder.Code)
	req.Equal("Display name is required", errorOf(t, recorder))
}
