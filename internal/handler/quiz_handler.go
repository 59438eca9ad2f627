package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/intelliq-api/internal/handler/dto"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	"github.com/yourusername/intelliq-api/internal/service"
)

// QuizHandler обрабатывает запросы, связанные с квизами комнат
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler создает новый обработчик квизов
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// CreateQuizRequest представляет запрос на создание квиза комнаты
type CreateQuizRequest struct {
	Title     string   `json:"title" binding:"required,min=3,max=100"`
	Topics    []string `json:"topics" binding:"omitempty,max=10"`
	Language  string   `json:"language" binding:"omitempty,oneof=en ru"`
	Questions []struct {
		Text          string   `json:"text" binding:"required,max=500"`
		Options       []string `json:"options" binding:"required,min=2,max=10"`
		CorrectAnswer string   `json:"correct_answer" binding:"required"`
	} `json:"questions" binding:"required,min=1"`
}

// CreateQuiz обрабатывает запрос хоста на создание квиза комнаты
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := c.MustGet("roomID").(uint)
	userID := c.MustGet("userID").(uint)

	input := service.CreateQuizInput{
		Title:    req.Title,
		Topics:   req.Topics,
		Language: req.Language,
	}
	for _, q := range req.Questions {
		input.Questions = append(input.Questions, service.QuestionInput{
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	quiz, err := h.quizService.CreateQuizForRoom(c.Request.Context(), roomID, userID, input)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz))
}

// GetQuiz возвращает квиз комнаты
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	roomID := c.MustGet("roomID").(uint)

	quiz, err := h.quizService.GetQuizByRoomID(c.Request.Context(), roomID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz))
}

// GetQuestions возвращает вопросы квиза комнаты без правильных ответов
func (h *QuizHandler) GetQuestions(c *gin.Context) {
	roomID := c.MustGet("roomID").(uint)

	quiz, questions, err := h.quizService.GetRoomQuestions(c.Request.Context(), roomID)
	if err != nil {
		h.handleQuizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quiz_id":    quiz.ID,
		"quiz_title": quiz.Title,
		"questions":  questions,
	})
}

func (h *QuizHandler) handleQuizError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in QuizHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
