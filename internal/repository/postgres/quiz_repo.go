package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий квизов
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новый квиз
func (r *QuizRepo) Create(quiz *entity.Quiz) error {
	return r.db.Create(quiz).Error
}

// GetByID возвращает квиз по ID
func (r *QuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetByRoomID возвращает квиз комнаты. Если хост по ошибке создал
// несколько квизов, берётся самый ранний - он и раздавался игрокам.
func (r *QuizRepo) GetByRoomID(roomID uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.Where("room_id = ?", roomID).Order("id ASC").First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetByRoomIDWithQuestions возвращает квиз комнаты вместе с вопросами
// в порядке их создания
func (r *QuizRepo) GetByRoomIDWithQuestions(roomID uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.id ASC")
	}).Where("room_id = ?", roomID).Order("id ASC").First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}
