package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	"github.com/yourusername/intelliq-api/internal/service"
)

// SubmissionHandler обрабатывает ответы игроков и запросы лидерборда
type SubmissionHandler struct {
	submissionService  *service.SubmissionService
	leaderboardService *service.LeaderboardService
}

// NewSubmissionHandler создает новый обработчик ответов
func NewSubmissionHandler(
	submissionService *service.SubmissionService,
	leaderboardService *service.LeaderboardService,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService:  submissionService,
		leaderboardService: leaderboardService,
	}
}

// SubmitAnswerRequest представляет ответ игрока на вопрос
type SubmitAnswerRequest struct {
	QuestionID  uint   `json:"question_id" binding:"required"`
	Answer      string `json:"answer" binding:"required"`
	TimeTakenMs int64  `json:"time_taken_ms" binding:"min=0"`
}

// SubmitAnswer принимает ответ игрока в мультиплеерной сессии
func (h *SubmissionHandler) SubmitAnswer(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("userID").(uint)
	roomCode := c.Param("code")

	result, err := h.submissionService.SubmitAnswer(c.Request.Context(), userID, service.SubmitAnswerInput{
		RoomCode:    roomCode,
		QuestionID:  req.QuestionID,
		Answer:      req.Answer,
		TimeTakenMs: req.TimeTakenMs,
	})
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetMySubmission возвращает агрегат текущего игрока в комнате
func (h *SubmissionHandler) GetMySubmission(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID := c.MustGet("roomID").(uint)

	submission, err := h.submissionService.GetRoomSubmission(c.Request.Context(), userID, roomID)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetLeaderboard возвращает таблицу лидеров комнаты
func (h *SubmissionHandler) GetLeaderboard(c *gin.Context) {
	roomID := c.MustGet("roomID").(uint)

	entries, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), roomID)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":     roomID,
		"leaderboard": entries,
	})
}

// ExportLeaderboard выгружает лидерборд комнаты в формате XLSX
func (h *SubmissionHandler) ExportLeaderboard(c *gin.Context) {
	roomID := c.MustGet("roomID").(uint)

	buf, filename, err := h.leaderboardService.ExportLeaderboardXLSX(c.Request.Context(), roomID)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// SubmitSingleResponseRequest представляет ответ одиночного режима
type SubmitSingleResponseRequest struct {
	QuestionID  uint   `json:"question_id" binding:"required"`
	Answer      string `json:"answer" binding:"required"`
	TimeTakenMs int64  `json:"time_taken_ms" binding:"min=0"`
}

// SubmitSingleResponse принимает ответ одиночного режима
func (h *SubmissionHandler) SubmitSingleResponse(c *gin.Context) {
	var req SubmitSingleResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("userID").(uint)
	quizID := c.MustGet("quizID").(uint)

	result, err := h.submissionService.SubmitSingleResponse(c.Request.Context(), userID, service.SubmitSingleResponseInput{
		QuizID:      quizID,
		QuestionID:  req.QuestionID,
		Answer:      req.Answer,
		TimeTakenMs: req.TimeTakenMs,
	})
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetMyResponses возвращает историю ответов текущего пользователя
func (h *SubmissionHandler) GetMyResponses(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	responses, total, err := h.submissionService.GetUserResponses(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"responses": responses,
		"total":     total,
	})
}

func (h *SubmissionHandler) handleSubmissionError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in SubmissionHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
