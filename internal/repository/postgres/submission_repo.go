package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
)

// SubmissionRepo реализует repository.SubmissionRepository
type SubmissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo создает новый репозиторий агрегатов ответов
func NewSubmissionRepo(db *gorm.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// GetForUpdate читает строку агрегата с блокировкой FOR UPDATE.
// Конкурирующие мерджи одного игрока сериализуются на этой блокировке,
// мерджи разных игроков друг другу не мешают.
func (r *SubmissionRepo) GetForUpdate(tx *gorm.DB, userID, quizID, roomID uint) (*entity.MultiplayerQuizSubmission, error) {
	var submission entity.MultiplayerQuizSubmission
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND quiz_id = ? AND room_id = ?", userID, quizID, roomID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// Create вставляет новую строку агрегата внутри транзакции.
// Вставка выполняется под savepoint-ом (вложенная транзакция gorm):
// после нарушения уникального индекса по тройке Postgres помечает
// транзакцию аварийной (25P02), и без отката к savepoint-у вызывающий
// не смог бы повторить слияние обновлением в той же транзакции.
func (r *SubmissionRepo) Create(tx *gorm.DB, submission *entity.MultiplayerQuizSubmission) error {
	return tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(submission).Error
	})
}

// AddToTotals атомарно прибавляет очки и счётчик верных ответов через gorm.Expr
func (r *SubmissionRepo) AddToTotals(tx *gorm.DB, id uint, scoreDelta, correctDelta int) error {
	return tx.Model(&entity.MultiplayerQuizSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"user_score":            gorm.Expr("user_score + ?", scoreDelta),
			"correct_answers_count": gorm.Expr("correct_answers_count + ?", correctDelta),
		}).Error
}

// GetByUserQuizRoom возвращает агрегат по тройке без блокировки
func (r *SubmissionRepo) GetByUserQuizRoom(userID, quizID, roomID uint) (*entity.MultiplayerQuizSubmission, error) {
	var submission entity.MultiplayerQuizSubmission
	err := r.db.Where("user_id = ? AND quiz_id = ? AND room_id = ?", userID, quizID, roomID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// GetLeaderboard возвращает строки лидерборда комнаты.
// Сортировка: score DESC, тай-брейк created_at ASC (кто раньше начал
// отвечать - выше), затем user_id ASC для полной детерминированности.
func (r *SubmissionRepo) GetLeaderboard(roomID uint) ([]repository.LeaderboardEntry, error) {
	var entries []repository.LeaderboardEntry
	err := r.db.Model(&entity.MultiplayerQuizSubmission{}).
		Select("multiplayer_quiz_submissions.user_id, users.username AS user_name, multiplayer_quiz_submissions.user_score AS score, multiplayer_quiz_submissions.correct_answers_count").
		Joins("JOIN users ON users.id = multiplayer_quiz_submissions.user_id").
		Where("multiplayer_quiz_submissions.room_id = ?", roomID).
		Order("multiplayer_quiz_submissions.user_score DESC, multiplayer_quiz_submissions.created_at ASC, multiplayer_quiz_submissions.user_id ASC").
		Scan(&entries).Error
	return entries, err
}

// GetByRoomID возвращает все агрегаты комнаты
func (r *SubmissionRepo) GetByRoomID(roomID uint) ([]entity.MultiplayerQuizSubmission, error) {
	var submissions []entity.MultiplayerQuizSubmission
	err := r.db.Where("room_id = ?", roomID).Find(&submissions).Error
	return submissions, err
}
