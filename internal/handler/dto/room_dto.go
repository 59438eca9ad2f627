package dto

import (
	"time"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
)

// RoomResponse представляет комнату в HTTP-ответах
type RoomResponse struct {
	ID           uint       `json:"id"`
	Code         string     `json:"code"`
	HostUserID   uint       `json:"host_user_id"`
	MaxPlayers   int        `json:"max_players"`
	NumQuestions int        `json:"num_questions"`
	TimeLimitSec int        `json:"time_limit_sec"`
	Topic        string     `json:"topic"`
	Language     string     `json:"language"`
	Ended        bool       `json:"ended"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewRoomResponse собирает ответ из сущности комнаты
func NewRoomResponse(room *entity.Room) *RoomResponse {
	return &RoomResponse{
		ID:           room.ID,
		Code:         room.Code,
		HostUserID:   room.HostUserID,
		MaxPlayers:   room.MaxPlayers,
		NumQuestions: room.NumQuestions,
		TimeLimitSec: room.TimeLimitSec,
		Topic:        room.Topic,
		Language:     room.Language,
		Ended:        room.IsEnded(),
		EndedAt:      room.EndedAt,
		CreatedAt:    room.CreatedAt,
	}
}

// QuizResponse представляет квиз комнаты без правильных ответов
type QuizResponse struct {
	ID            uint     `json:"id"`
	RoomID        uint     `json:"room_id"`
	Title         string   `json:"title"`
	Topics        []string `json:"topics"`
	Language      string   `json:"language"`
	QuestionCount int      `json:"question_count"`
}

// NewQuizResponse собирает ответ из сущности квиза
func NewQuizResponse(quiz *entity.Quiz) *QuizResponse {
	return &QuizResponse{
		ID:            quiz.ID,
		RoomID:        quiz.RoomID,
		Title:         quiz.Title,
		Topics:        quiz.Topics,
		Language:      quiz.Language,
		QuestionCount: quiz.QuestionCount,
	}
}
