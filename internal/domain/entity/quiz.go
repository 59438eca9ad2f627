package entity

import (
	"time"
)

// Quiz представляет набор вопросов, созданный хостом один раз на комнату.
// В задуманном потоке на комнату приходится не более одного квиза -
// это дисциплина вызова, а не ограничение схемы.
type Quiz struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	RoomID        uint        `gorm:"not null;index" json:"room_id"`
	Title         string      `gorm:"size:200;not null" json:"title"`
	Topics        StringArray `gorm:"type:jsonb;not null" json:"topics"`
	Language      string      `gorm:"size:5;not null;default:'en'" json:"language"`
	QuestionCount int         `gorm:"not null;default:0" json:"question_count"`
	Questions     []Question  `gorm:"foreignKey:QuizID" json:"questions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}
