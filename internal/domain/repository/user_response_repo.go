package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
)

// UserResponseRepository определяет методы для журнала ответов
type UserResponseRepository interface {
	// CreateTx вставляет запись внутри транзакции агрегатора.
	// Нарушение уникального индекса (user_id, question_id) означает
	// повторный ответ на вопрос.
	CreateTx(tx *gorm.DB, response *entity.UserResponse) error
	Create(response *entity.UserResponse) error
	GetByUser(userID uint, limit, offset int) ([]entity.UserResponse, int64, error)
}
