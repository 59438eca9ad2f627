package entity

import (
	"time"
)

// MultiplayerQuizSubmission - агрегат по тройке (пользователь, квиз, комната).
// Инвариант: ровно одна строка на тройку, обеспечивается составным
// уникальным индексом. Все ответы игрока в рамках сессии сливаются
// в эту строку (upsert), а не вставляются по одной на ответ.
type MultiplayerQuizSubmission struct {
	ID                  uint `gorm:"primaryKey" json:"id"`
	UserID              uint `gorm:"not null;index;uniqueIndex:idx_user_quiz_room" json:"user_id"`
	QuizID              uint `gorm:"not null;index;uniqueIndex:idx_user_quiz_room" json:"quiz_id"`
	RoomID              uint `gorm:"not null;index;uniqueIndex:idx_user_quiz_room" json:"room_id"`
	UserScore           int  `gorm:"not null;default:0" json:"user_score"`
	CorrectAnswersCount int  `gorm:"not null;default:0" json:"correct_answers_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (MultiplayerQuizSubmission) TableName() string {
	return "multiplayer_quiz_submissions"
}
