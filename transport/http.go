package transport

import (
	goerrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"bubble/errors"
	"bubble/search"
	"bubble/services"

	"github.com/gin-gonic/gin"
)

const defaultSearchLimit = 50

type createRoomRequest struct {
	Name string `json:"name"`
}

type createUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type updateUserRequest struct {
	DisplayName string `json:"displayName"`
}

// Router wires the HTTP surface: room and profile CRUD, history and search
// reads, and the WebSocket entry point.
type Router struct {
	log   *slog.Logger
	chat  services.IChatService
	rooms services.IRoomService
	users services.IUserService
	index *search.MessageIndex
	ws    *WsHandler
}

func NewRouter(log *slog.Logger, chat services.IChatService, rooms services.IRoomService,
	users services.IUserService, index *search.MessageIndex, ws *WsHandler) *Router {
	return &Router{log: log, chat: chat, rooms: rooms, users: users, index: index, ws: ws}
}

func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.POST("/chatrooms", r.createRoom)
	engine.GET("/chatrooms", r.listRooms)
	engine.GET("/messages/:room", r.history)
	engine.GET("/messages/:room/search", r.searchMessages)
	engine.POST("/users", r.upsertUser)
	engine.GET("/users/:email", r.getUser)
	engine.PUT("/users/:email", r.updateUser)
	engine.GET("/ws", r.ws.Handle)

	return engine
}

func (r *Router) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat room name is required"})
		return
	}

	room, err := r.rooms.Create(req.Name)
	if err != nil {
		if goerrors.Is(err, errors.ErrDuplicateRoom) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Chat room already exists"})
			return
		}
		r.log.Error("Room creation failed", "name", req.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (r *Router) listRooms(c *gin.Context) {
	rooms, err := r.rooms.List()
	if err != nil {
		r.log.Error("Room listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chat rooms"})
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// history returns the room's full chronological log. An unknown room is not
// an error, only an empty list.
func (r *Router) history(c *gin.Context) {
	messages, err := r.chat.History(c.Param("room"))
	if err != nil {
		r.log.Error("History read failed", "room", c.Param("room"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (r *Router) searchMessages(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	messages, err := r.index.Search(c.Request.Context(), c.Param("room"), query, limit)
	if err != nil {
		r.log.Error("Search failed", "room", c.Param("room"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (r *Router) upsertUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.DisplayName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and display name are required"})
		return
	}

	profile, err := r.users.SetDisplayName(req.Email, req.DisplayName)
	if err != nil {
		r.log.Error("Profile upsert failed", "email", req.Email, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// getUser returns only the display name, the single field clients need to
// label their messages.
func (r *Router) getUser(c *gin.Context) {
	profile, err := r.users.GetProfile(c.Param("email"))
	if err != nil {
		if goerrors.Is(err, errors.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		r.log.Error("Profile read failed", "email", c.Param("email"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"displayName": profile.DisplayName})
}

func (r *Router) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DisplayName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Display name is required"})
		return
	}

	profile, err := r.users.SetDisplayName(c.Param("email"), req.DisplayName)
	if err != nil {
		r.log.Error("Profile update failed", "email", c.Param("email"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update display name"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
