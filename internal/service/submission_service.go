package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	"github.com/yourusername/intelliq-api/internal/repository/postgres"
	"github.com/yourusername/intelliq-api/internal/service/roommanager"
)

// SubmissionService агрегирует ответы игроков в суммарный результат
// по тройке (пользователь, квиз, комната).
//
// Каждый принятый ответ проходит через одну транзакцию: сначала
// вставка в журнал ответов (уникальный индекс по паре пользователь/вопрос
// отсекает повторную отправку того же вопроса), затем чтение строки
// агрегата с блокировкой FOR UPDATE и прибавление дельты. Гонка двух
// первых ответов одного игрока разрешается уникальным индексом по
// тройке: проигравшая вставка повторяется как обновление.
type SubmissionService struct {
	db               *gorm.DB
	submissionRepo   repository.SubmissionRepository
	userResponseRepo repository.UserResponseRepository
	roomRepo         repository.RoomRepository
	quizRepo         repository.QuizRepository
	questionRepo     repository.QuestionRepository
	cacheRepo        repository.CacheRepository
}

// NewSubmissionService создает новый сервис агрегации ответов
func NewSubmissionService(
	db *gorm.DB,
	submissionRepo repository.SubmissionRepository,
	userResponseRepo repository.UserResponseRepository,
	roomRepo repository.RoomRepository,
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
) *SubmissionService {
	return &SubmissionService{
		db:               db,
		submissionRepo:   submissionRepo,
		userResponseRepo: userResponseRepo,
		roomRepo:         roomRepo,
		quizRepo:         quizRepo,
		questionRepo:     questionRepo,
		cacheRepo:        cacheRepo,
	}
}

// SubmitAnswerInput - ответ игрока на вопрос мультиплеерной сессии
type SubmitAnswerInput struct {
	RoomCode    string
	QuestionID  uint
	Answer      string
	TimeTakenMs int64
}

// SubmissionResult - итог обработки одного ответа
type SubmissionResult struct {
	QuestionID          uint   `json:"question_id"`
	IsCorrect           bool   `json:"is_correct"`
	CorrectAnswer       string `json:"correct_answer"`
	CalculatedScore     int    `json:"calculated_score"`
	TotalScore          int    `json:"total_score"`
	CorrectAnswersCount int    `json:"correct_answers_count"`
	TotalQuestions      int    `json:"total_questions"`
}

// SubmitAnswer обрабатывает ответ игрока и вливает его в агрегат комнаты
func (s *SubmissionService) SubmitAnswer(ctx context.Context, userID uint, input SubmitAnswerInput) (*SubmissionResult, error) {
	room, err := s.roomRepo.GetByCode(input.RoomCode)
	if err != nil {
		return nil, err
	}
	if room.IsEnded() {
		return nil, fmt.Errorf("сессия комнаты %s завершена, ответы не принимаются: %w",
			input.RoomCode, apperrors.ErrForbidden)
	}

	quiz, err := s.quizRepo.GetByRoomID(room.ID)
	if err != nil {
		return nil, fmt.Errorf("квиз комнаты %s не найден: %w", input.RoomCode, err)
	}

	// вопрос ищется строго в рамках квиза комнаты: ID чужого квиза
	// даст not found, а не утечку чужого правильного ответа
	question, err := s.questionRepo.GetByIDForQuiz(input.QuestionID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("вопрос %d не принадлежит квизу комнаты: %w", input.QuestionID, err)
	}

	isCorrect := question.IsCorrect(input.Answer)
	score := roommanager.Score(input.TimeTakenMs, room.TimeLimitSec, isCorrect)

	correctDelta := 0
	if isCorrect {
		correctDelta = 1
	}

	var total *entity.MultiplayerQuizSubmission
	err = s.db.Transaction(func(tx *gorm.DB) error {
		response := &entity.UserResponse{
			UserID:      userID,
			QuestionID:  question.ID,
			QuizID:      quiz.ID,
			Answer:      input.Answer,
			IsCorrect:   isCorrect,
			TimeTakenMs: input.TimeTakenMs,
		}
		if err := s.userResponseRepo.CreateTx(tx, response); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return fmt.Errorf("ответ на вопрос %d уже учтён: %w", question.ID, apperrors.ErrConflict)
			}
			return err
		}

		merged, err := s.mergeIntoSubmission(tx, userID, quiz.ID, room.ID, score, correctDelta)
		if err != nil {
			return err
		}
		total = merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	// агрегат изменился - кешированный лидерборд устарел
	if err := s.cacheRepo.Delete(leaderboardCacheKey(room.ID)); err != nil {
		log.Printf("[SubmissionService] Ошибка сброса кеша лидерборда комнаты %d: %v", room.ID, err)
	}

	log.Printf("[SubmissionService] Пользователь %d, комната %s, вопрос %d: correct=%v, очки=%d, всего=%d",
		userID, input.RoomCode, question.ID, isCorrect, score, total.UserScore)

	return &SubmissionResult{
		QuestionID:          question.ID,
		IsCorrect:           isCorrect,
		CorrectAnswer:       question.CorrectAnswer,
		CalculatedScore:     score,
		TotalScore:          total.UserScore,
		CorrectAnswersCount: total.CorrectAnswersCount,
		TotalQuestions:      quiz.QuestionCount,
	}, nil
}

// mergeIntoSubmission вливает дельту одного ответа в строку агрегата.
// Выполняется внутри транзакции вызывающего.
func (s *SubmissionService) mergeIntoSubmission(tx *gorm.DB, userID, quizID, roomID uint, score, correctDelta int) (*entity.MultiplayerQuizSubmission, error) {
	existing, err := s.submissionRepo.GetForUpdate(tx, userID, quizID, roomID)
	if err == nil {
		if err := s.submissionRepo.AddToTotals(tx, existing.ID, score, correctDelta); err != nil {
			return nil, err
		}
		existing.UserScore += score
		existing.CorrectAnswersCount += correctDelta
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	submission := &entity.MultiplayerQuizSubmission{
		UserID:              userID,
		QuizID:              quizID,
		RoomID:              roomID,
		UserScore:           score,
		CorrectAnswersCount: correctDelta,
	}
	if err := s.submissionRepo.Create(tx, submission); err != nil {
		// параллельный первый ответ успел создать строку; вставка откатилась
		// к savepoint-у, транзакция жива - повторяем как обновление
		if postgres.IsUniqueViolation(err) {
			existing, err := s.submissionRepo.GetForUpdate(tx, userID, quizID, roomID)
			if err != nil {
				return nil, err
			}
			if err := s.submissionRepo.AddToTotals(tx, existing.ID, score, correctDelta); err != nil {
				return nil, err
			}
			existing.UserScore += score
			existing.CorrectAnswersCount += correctDelta
			return existing, nil
		}
		return nil, err
	}
	return submission, nil
}

// GetRoomSubmission возвращает агрегат игрока в комнате
func (s *SubmissionService) GetRoomSubmission(ctx context.Context, userID, roomID uint) (*entity.MultiplayerQuizSubmission, error) {
	quiz, err := s.quizRepo.GetByRoomID(roomID)
	if err != nil {
		return nil, err
	}
	return s.submissionRepo.GetByUserQuizRoom(userID, quiz.ID, roomID)
}

// SubmitSingleResponseInput - ответ в одиночном режиме, вне комнат
type SubmitSingleResponseInput struct {
	QuizID      uint
	QuestionID  uint
	Answer      string
	TimeTakenMs int64
}

// SubmitSingleResponse сохраняет ответ одиночного режима в журнал.
// Агрегат комнаты не затрагивается.
func (s *SubmissionService) SubmitSingleResponse(ctx context.Context, userID uint, input SubmitSingleResponseInput) (*SubmissionResult, error) {
	quiz, err := s.quizRepo.GetByID(input.QuizID)
	if err != nil {
		return nil, err
	}

	question, err := s.questionRepo.GetByIDForQuiz(input.QuestionID, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("вопрос %d не принадлежит квизу %d: %w", input.QuestionID, quiz.ID, err)
	}

	isCorrect := question.IsCorrect(input.Answer)
	score := roommanager.Score(input.TimeTakenMs, entity.DefaultTimeLimitSec, isCorrect)

	response := &entity.UserResponse{
		UserID:      userID,
		QuestionID:  question.ID,
		QuizID:      quiz.ID,
		Answer:      input.Answer,
		IsCorrect:   isCorrect,
		TimeTakenMs: input.TimeTakenMs,
	}
	if err := s.userResponseRepo.Create(response); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("ответ на вопрос %d уже учтён: %w", question.ID, apperrors.ErrConflict)
		}
		return nil, err
	}

	return &SubmissionResult{
		QuestionID:      question.ID,
		IsCorrect:       isCorrect,
		CorrectAnswer:   question.CorrectAnswer,
		CalculatedScore: score,
		TotalQuestions:  quiz.QuestionCount,
	}, nil
}

// GetUserResponses возвращает историю ответов пользователя с пагинацией
func (s *SubmissionService) GetUserResponses(ctx context.Context, userID uint, limit, offset int) ([]entity.UserResponse, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.userResponseRepo.GetByUser(userID, limit, offset)
}
