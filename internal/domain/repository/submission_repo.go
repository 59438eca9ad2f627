package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
)

// LeaderboardEntry - производная строка лидерборда (не персистится):
// агрегат игрока, соединённый с его отображаемым именем.
type LeaderboardEntry struct {
	UserID              uint   `json:"user_id"`
	UserName            string `json:"userName"`
	Score               int    `json:"score"`
	CorrectAnswersCount int    `json:"correctAnswers"`
}

// SubmissionRepository определяет методы для работы с агрегатами ответов.
// Методы с параметром tx выполняются внутри переданной транзакции -
// агрегатор делает read-modify-write под транзакцией с уровнем изоляции
// не ниже read committed, а уникальный индекс служит страховкой от гонок.
type SubmissionRepository interface {
	// GetForUpdate читает строку агрегата с блокировкой FOR UPDATE
	GetForUpdate(tx *gorm.DB, userID, quizID, roomID uint) (*entity.MultiplayerQuizSubmission, error)
	Create(tx *gorm.DB, submission *entity.MultiplayerQuizSubmission) error
	// AddToTotals атомарно прибавляет очки и счётчик верных ответов
	AddToTotals(tx *gorm.DB, id uint, scoreDelta, correctDelta int) error
	GetByUserQuizRoom(userID, quizID, roomID uint) (*entity.MultiplayerQuizSubmission, error)
	// GetLeaderboard возвращает строки лидерборда комнаты, отсортированные
	// по score DESC; тай-брейк: created_at ASC, затем user_id ASC
	GetLeaderboard(roomID uint) ([]LeaderboardEntry, error)
	GetByRoomID(roomID uint) ([]entity.MultiplayerQuizSubmission, error)
}
