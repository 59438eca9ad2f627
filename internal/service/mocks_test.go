package service

import (
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	"github.com/yourusername/intelliq-api/internal/domain/repository"
)

// ============================================================================
// Общие моки репозиториев для тестов сервисного слоя
// ============================================================================

// MockUserRepo реализует repository.UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByUsername(username string) (*entity.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) ApplySessionResult(userID uint, score int64) error {
	args := m.Called(userID, score)
	return args.Error(0)
}

// MockRoomRepo реализует repository.RoomRepository
type MockRoomRepo struct {
	mock.Mock
}

func (m *MockRoomRepo) Create(room *entity.Room) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockRoomRepo) GetByID(id uint) (*entity.Room, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Room), args.Error(1)
}

func (m *MockRoomRepo) GetByCode(code string) (*entity.Room, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Room), args.Error(1)
}

func (m *MockRoomRepo) UpdateSettings(roomID uint, settings repository.RoomSettings) error {
	args := m.Called(roomID, settings)
	return args.Error(0)
}

func (m *MockRoomRepo) SetEndedAt(roomID uint, endedAt time.Time) error {
	args := m.Called(roomID, endedAt)
	return args.Error(0)
}

// MockQuizRepo реализует repository.QuizRepository
type MockQuizRepo struct {
	mock.Mock
}

func (m *MockQuizRepo) Create(quiz *entity.Quiz) error {
	args := m.Called(quiz)
	return args.Error(0)
}

func (m *MockQuizRepo) GetByID(id uint) (*entity.Quiz, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepo) GetByRoomID(roomID uint) (*entity.Quiz, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

func (m *MockQuizRepo) GetByRoomIDWithQuestions(roomID uint) (*entity.Quiz, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Quiz), args.Error(1)
}

// MockQuestionRepo реализует repository.QuestionRepository
type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) CreateBatch(questions []entity.Question) error {
	args := m.Called(questions)
	return args.Error(0)
}

func (m *MockQuestionRepo) GetByIDForQuiz(questionID, quizID uint) (*entity.Question, error) {
	args := m.Called(questionID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) GetByQuizID(quizID uint) ([]entity.Question, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

// MockSubmissionRepo реализует repository.SubmissionRepository
type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) GetForUpdate(tx *gorm.DB, userID, quizID, roomID uint) (*entity.MultiplayerQuizSubmission, error) {
	args := m.Called(tx, userID, quizID, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MultiplayerQuizSubmission), args.Error(1)
}

func (m *MockSubmissionRepo) Create(tx *gorm.DB, submission *entity.MultiplayerQuizSubmission) error {
	args := m.Called(tx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepo) AddToTotals(tx *gorm.DB, id uint, scoreDelta, correctDelta int) error {
	args := m.Called(tx, id, scoreDelta, correctDelta)
	return args.Error(0)
}

func (m *MockSubmissionRepo) GetByUserQuizRoom(userID, quizID, roomID uint) (*entity.MultiplayerQuizSubmission, error) {
	args := m.Called(userID, quizID, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MultiplayerQuizSubmission), args.Error(1)
}

func (m *MockSubmissionRepo) GetLeaderboard(roomID uint) ([]repository.LeaderboardEntry, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.LeaderboardEntry), args.Error(1)
}

func (m *MockSubmissionRepo) GetByRoomID(roomID uint) ([]entity.MultiplayerQuizSubmission, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.MultiplayerQuizSubmission), args.Error(1)
}

// MockUserResponseRepo реализует repository.UserResponseRepository
type MockUserResponseRepo struct {
	mock.Mock
}

func (m *MockUserResponseRepo) CreateTx(tx *gorm.DB, response *entity.UserResponse) error {
	args := m.Called(tx, response)
	return args.Error(0)
}

func (m *MockUserResponseRepo) Create(response *entity.UserResponse) error {
	args := m.Called(response)
	return args.Error(0)
}

func (m *MockUserResponseRepo) GetByUser(userID uint, limit, offset int) ([]entity.UserResponse, int64, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.UserResponse), args.Get(1).(int64), args.Error(2)
}

// MockCacheRepo реализует repository.CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) GetInt64(key string) (int64, error) {
	args := m.Called(key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepo) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

// MockBroadcaster реализует roommanager.Broadcaster
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastEventToRoom(roomID uint, eventType string, data interface{}) error {
	args := m.Called(roomID, eventType, data)
	return args.Error(0)
}

func (m *MockBroadcaster) SendEventToUser(userID string, eventType string, data interface{}) error {
	args := m.Called(userID, eventType, data)
	return args.Error(0)
}
