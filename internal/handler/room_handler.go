package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/intelliq-api/internal/handler/dto"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	"github.com/yourusername/intelliq-api/internal/service"
	"github.com/yourusername/intelliq-api/internal/service/roommanager"
)

// RoomHandler обрабатывает запросы, связанные с комнатами
type RoomHandler struct {
	roomService *service.RoomService
	presence    *roommanager.PresenceManager
	coordinator *roommanager.Coordinator
}

// NewRoomHandler создает новый обработчик комнат
func NewRoomHandler(
	roomService *service.RoomService,
	presence *roommanager.PresenceManager,
	coordinator *roommanager.Coordinator,
) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		presence:    presence,
		coordinator: coordinator,
	}
}

// CreateRoomRequest представляет запрос на создание комнаты
type CreateRoomRequest struct {
	MaxPlayers   int    `json:"max_players" binding:"omitempty,min=1"`
	NumQuestions int    `json:"num_questions" binding:"omitempty,min=1"`
	TimeLimitSec int    `json:"time_limit_sec" binding:"omitempty,min=1"`
	Topic        string `json:"topic" binding:"omitempty,max=200"`
	Language     string `json:"language" binding:"omitempty,oneof=en ru"`
}

// CreateRoom обрабатывает запрос на создание комнаты
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("userID").(uint)

	room, err := h.roomService.CreateRoom(c.Request.Context(), userID, service.CreateRoomInput{
		MaxPlayers:   req.MaxPlayers,
		NumQuestions: req.NumQuestions,
		TimeLimitSec: req.TimeLimitSec,
		Topic:        req.Topic,
		Language:     req.Language,
	})
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewRoomResponse(room))
}

// GetRoomByCode возвращает комнату по её короткому коду
func (h *RoomHandler) GetRoomByCode(c *gin.Context) {
	code := c.Param("code")

	room, err := h.roomService.GetRoomByCode(c.Request.Context(), code)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room":         dto.NewRoomResponse(room),
		"member_count": h.presence.Count(room.ID),
	})
}

// UpdateSettingsRequest представляет запрос на изменение настроек комнаты.
// Отсутствующее поле означает "не менять".
type UpdateSettingsRequest struct {
	MaxPlayers   *int    `json:"max_players" binding:"omitempty,min=1"`
	NumQuestions *int    `json:"num_questions" binding:"omitempty,min=1"`
	TimeLimitSec *int    `json:"time_limit_sec" binding:"omitempty,min=1"`
	Topic        *string `json:"topic" binding:"omitempty,max=200"`
}

// UpdateSettings обрабатывает запрос хоста на изменение настроек комнаты
func (h *RoomHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := c.MustGet("roomID").(uint)
	userID := c.MustGet("userID").(uint)

	room, err := h.roomService.UpdateSettings(c.Request.Context(), roomID, userID, service.UpdateSettingsInput{
		MaxPlayers:   req.MaxPlayers,
		NumQuestions: req.NumQuestions,
		TimeLimitSec: req.TimeLimitSec,
		Topic:        req.Topic,
	})
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRoomResponse(room))
}

// GetRoomState возвращает снимок состояния комнаты: состав участников,
// лидера и позицию активной викторины. Используется клиентами для
// ресинхронизации после переподключения.
func (h *RoomHandler) GetRoomState(c *gin.Context) {
	roomID := c.MustGet("roomID").(uint)

	room, err := h.roomService.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	members := h.presence.Members(roomID)
	var leaderID uint
	if leader, ok := h.presence.Leader(roomID); ok {
		leaderID = leader.UserID
	}

	response := gin.H{
		"room":         dto.NewRoomResponse(room),
		"members":      members,
		"member_count": len(members),
		"leader_id":    leaderID,
	}

	if session, err := h.coordinator.State(c.Request.Context(), roomID); err == nil {
		response["session"] = session
	}

	c.JSON(http.StatusOK, response)
}

func (h *RoomHandler) handleRoomError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrRoomFull) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in RoomHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
