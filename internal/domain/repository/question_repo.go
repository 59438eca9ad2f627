package repository

import (
	"github.com/yourusername/intelliq-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	CreateBatch(questions []entity.Question) error
	// GetByIDForQuiz возвращает вопрос только если он принадлежит квизу
	GetByIDForQuiz(questionID, quizID uint) (*entity.Question, error)
	GetByQuizID(quizID uint) ([]entity.Question, error)
}
