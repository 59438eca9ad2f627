package repository

import (
	"github.com/yourusername/intelliq-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	Update(user *entity.User) error
	// ApplySessionResult обновляет агрегатную статистику пользователя
	// после завершения сессии: total_score, highest_score, games_played
	ApplySessionResult(userID uint, score int64) error
}
