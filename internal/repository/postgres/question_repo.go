package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// CreateBatch создает несколько вопросов одной вставкой
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Create(&questions).Error
}

// GetByIDForQuiz возвращает вопрос, только если он принадлежит квизу.
// Вопрос из чужого квиза неотличим от несуществующего.
func (r *QuestionRepo) GetByIDForQuiz(questionID, quizID uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.Where("id = ? AND quiz_id = ?", questionID, quizID).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByQuizID возвращает вопросы квиза в порядке создания.
// Порядок фиксируется при создании квиза и не меняется по ходу сессии.
func (r *QuestionRepo) GetByQuizID(quizID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("quiz_id = ?", quizID).Order("id ASC").Find(&questions).Error
	return questions, err
}
