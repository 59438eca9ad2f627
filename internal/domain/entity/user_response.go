package entity

import (
	"time"
)

// UserResponse - запись об ответе пользователя на конкретный вопрос.
// Служит одновременно журналом для просмотра истории и леджером
// идемпотентности агрегатора: уникальный индекс (user_id, question_id)
// отсекает повторную отправку ответа на один и тот же вопрос.
type UserResponse struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index;uniqueIndex:idx_user_question" json:"user_id"`
	QuestionID  uint   `gorm:"not null;index;uniqueIndex:idx_user_question" json:"question_id"`
	QuizID      uint   `gorm:"not null;index" json:"quiz_id"`
	Answer      string `gorm:"size:500;not null;default:''" json:"answer"`
	IsCorrect   bool   `gorm:"not null" json:"is_correct"`
	TimeTakenMs int64  `gorm:"not null;default:0" json:"time_taken_ms"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (UserResponse) TableName() string {
	return "user_responses"
}
