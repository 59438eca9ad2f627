package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
)

// RoomRepo реализует repository.RoomRepository
type RoomRepo struct {
	db *gorm.DB
}

// NewRoomRepo создает новый репозиторий комнат
func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create создает новую комнату. Нарушение уникальности кода
// возвращается как apperrors.ErrConflict, чтобы сервис мог
// сгенерировать новый код и повторить.
func (r *RoomRepo) Create(room *entity.Room) error {
	err := r.db.Create(room).Error
	if err != nil && IsUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	return err
}

// GetByID возвращает комнату по ID
func (r *RoomRepo) GetByID(id uint) (*entity.Room, error) {
	var room entity.Room
	err := r.db.First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// GetByCode возвращает комнату по человекочитаемому коду
func (r *RoomRepo) GetByCode(code string) (*entity.Room, error) {
	var room entity.Room
	err := r.db.Where("code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// UpdateSettings точечно обновляет изменённые настройки без полного Save
func (r *RoomRepo) UpdateSettings(roomID uint, settings repository.RoomSettings) error {
	updates := map[string]interface{}{}
	if settings.MaxPlayers != nil {
		updates["max_players"] = *settings.MaxPlayers
	}
	if settings.NumQuestions != nil {
		updates["num_questions"] = *settings.NumQuestions
	}
	if settings.TimeLimitSec != nil {
		updates["time_limit_sec"] = *settings.TimeLimitSec
	}
	if settings.Topic != nil {
		updates["topic"] = *settings.Topic
	}
	if len(updates) == 0 {
		return nil
	}

	return r.db.Model(&entity.Room{}).
		Where("id = ?", roomID).
		Updates(updates).Error
}

// SetEndedAt помечает сессию комнаты завершённой.
// Повторный вызов не затирает уже выставленное время.
func (r *RoomRepo) SetEndedAt(roomID uint, endedAt time.Time) error {
	return r.db.Model(&entity.Room{}).
		Where("id = ? AND ended_at IS NULL", roomID).
		Update("ended_at", endedAt).Error
}
