package repository

import (
	"github.com/yourusername/intelliq-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с квизами
type QuizRepository interface {
	Create(quiz *entity.Quiz) error
	GetByID(id uint) (*entity.Quiz, error)
	// GetByRoomID возвращает квиз комнаты (в задуманном потоке он один)
	GetByRoomID(roomID uint) (*entity.Quiz, error)
	GetByRoomIDWithQuestions(roomID uint) (*entity.Quiz, error)
}
