package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/intelliq-api/internal/config"
	"github.com/yourusername/intelliq-api/internal/domain/entity"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
)

// QuizService предоставляет методы для управления квизами и вопросами
type QuizService struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	roomRepo     repository.RoomRepository
	roomConfig   config.RoomConfig
}

// NewQuizService создает новый сервис квизов
func NewQuizService(
	quizRepo repository.QuizRepository,
	questionRepo repository.QuestionRepository,
	roomRepo repository.RoomRepository,
	roomConfig config.RoomConfig,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		roomRepo:     roomRepo,
		roomConfig:   roomConfig,
	}
}

// QuestionInput - один вопрос в запросе на создание квиза
type QuestionInput struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// CreateQuizInput - запрос на создание квиза комнаты
type CreateQuizInput struct {
	Title     string          `json:"title"`
	Topics    []string        `json:"topics"`
	Language  string          `json:"language"`
	Questions []QuestionInput `json:"questions"`
}

// CreateQuizForRoom создает квиз с вопросами для комнаты.
// У комнаты может быть только один квиз; повторный вызов возвращает конфликт.
func (s *QuizService) CreateQuizForRoom(ctx context.Context, roomID uint, requestedBy uint, input CreateQuizInput) (*entity.Quiz, error) {
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, err
	}

	if !room.IsHost(requestedBy) {
		return nil, fmt.Errorf("создание квиза доступно только хосту комнаты: %w", apperrors.ErrForbidden)
	}
	if room.IsEnded() {
		return nil, fmt.Errorf("комната %d уже завершена: %w", roomID, apperrors.ErrForbidden)
	}

	if _, err := s.quizRepo.GetByRoomID(roomID); err == nil {
		return nil, fmt.Errorf("у комнаты %d уже есть квиз: %w", roomID, apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if len(input.Questions) == 0 {
		return nil, fmt.Errorf("квиз должен содержать хотя бы один вопрос: %w", apperrors.ErrValidation)
	}
	if len(input.Questions) > s.roomConfig.MaxQuestions {
		return nil, fmt.Errorf("квиз не может содержать больше %d вопросов: %w",
			s.roomConfig.MaxQuestions, apperrors.ErrValidation)
	}

	for i, q := range input.Questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("вопрос %d: %w", i+1, err)
		}
	}

	language := input.Language
	if language == "" {
		language = room.Language
	}

	quiz := &entity.Quiz{
		RoomID:        roomID,
		Title:         input.Title,
		Topics:        entity.StringArray(input.Topics),
		Language:      language,
		QuestionCount: len(input.Questions),
	}
	if err := s.quizRepo.Create(quiz); err != nil {
		return nil, fmt.Errorf("ошибка создания квиза: %w", err)
	}

	questions := make([]entity.Question, 0, len(input.Questions))
	for _, q := range input.Questions {
		questions = append(questions, entity.Question{
			QuizID:        quiz.ID,
			Text:          q.Text,
			Options:       entity.StringArray(q.Options),
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return nil, fmt.Errorf("ошибка создания вопросов: %w", err)
	}
	quiz.Questions = questions

	log.Printf("[QuizService] Создан квиз %d для комнаты %d (%d вопросов)", quiz.ID, roomID, len(questions))
	return quiz, nil
}

// GetQuizByRoomID возвращает квиз комнаты
func (s *QuizService) GetQuizByRoomID(ctx context.Context, roomID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetByRoomID(roomID)
}

// GetRoomQuestions возвращает квиз комнаты и его вопросы. Правильные
// ответы скрыты json-тегом и до клиента не доходят.
func (s *QuizService) GetRoomQuestions(ctx context.Context, roomID uint) (*entity.Quiz, []entity.Question, error) {
	quiz, err := s.quizRepo.GetByRoomID(roomID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.questionRepo.GetByQuizID(quiz.ID)
	if err != nil {
		return nil, nil, err
	}
	return quiz, questions, nil
}

// validateQuestion проверяет корректность вопроса.
// Правильный ответ должен дословно совпадать с одним из вариантов,
// включая возможный префикс вида "a) ": сравнение при проверке ответов
// тоже дословное, поэтому канонической формой считается строка варианта
// целиком.
func validateQuestion(q QuestionInput) error {
	if q.Text == "" {
		return fmt.Errorf("текст вопроса не может быть пустым: %w", apperrors.ErrValidation)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("вопрос должен содержать минимум два варианта ответа: %w", apperrors.ErrValidation)
	}
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt == "" {
			return fmt.Errorf("вариант ответа не может быть пустым: %w", apperrors.ErrValidation)
		}
		if seen[opt] {
			return fmt.Errorf("варианты ответа должны быть уникальными: %w", apperrors.ErrValidation)
		}
		seen[opt] = true
	}
	if !seen[q.CorrectAnswer] {
		return fmt.Errorf("правильный ответ должен совпадать с одним из вариантов: %w", apperrors.ErrValidation)
	}
	return nil
}
