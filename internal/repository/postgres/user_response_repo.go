package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
)

// UserResponseRepo реализует repository.UserResponseRepository
type UserResponseRepo struct {
	db *gorm.DB
}

// NewUserResponseRepo создает новый репозиторий журнала ответов
func NewUserResponseRepo(db *gorm.DB) *UserResponseRepo {
	return &UserResponseRepo{db: db}
}

// CreateTx вставляет запись внутри транзакции агрегатора.
// Нарушение уникального индекса (user_id, question_id) отдаётся
// как apperrors.ErrConflict - пользователь уже отвечал на этот вопрос.
func (r *UserResponseRepo) CreateTx(tx *gorm.DB, response *entity.UserResponse) error {
	err := tx.Create(response).Error
	if err != nil && IsUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	return err
}

// Create вставляет запись вне транзакции (синглплеерный путь)
func (r *UserResponseRepo) Create(response *entity.UserResponse) error {
	return r.CreateTx(r.db, response)
}

// GetByUser возвращает историю ответов пользователя с пагинацией
func (r *UserResponseRepo) GetByUser(userID uint, limit, offset int) ([]entity.UserResponse, int64, error) {
	var responses []entity.UserResponse
	var total int64

	if err := r.db.Model(&entity.UserResponse{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&responses).Error
	if err != nil {
		return nil, 0, err
	}

	return responses, total, nil
}
