package roommanager

import (
	"time"

	"github.com/yourusername/intelliq-api/internal/domain/repository"
)

// DefaultAdvanceGraceSec - запас после дедлайна вопроса, в течение
// которого координатор ждёт команду лидера, прежде чем продвинуть
// вопрос самостоятельно (лидер мог отключиться).
const DefaultAdvanceGraceSec = 5

// Config содержит настройки компонентов менеджера комнат
type Config struct {
	// AdvanceGraceSec - запас после дедлайна вопроса до автопродвижения
	AdvanceGraceSec int

	// SessionStateTTL - время жизни долговечного состояния сессии в Redis
	SessionStateTTL time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		AdvanceGraceSec: DefaultAdvanceGraceSec,
		SessionStateTTL: 6 * time.Hour,
	}
}

// Broadcaster описывает методы рассылки, необходимые менеджеру комнат.
// Реализуется websocket.Manager; в тестах подменяется моком.
type Broadcaster interface {
	BroadcastEventToRoom(roomID uint, eventType string, data interface{}) error
	SendEventToUser(userID string, eventType string, data interface{}) error
}

// Dependencies содержит зависимости менеджера комнат
type Dependencies struct {
	RoomRepo       repository.RoomRepository
	QuizRepo       repository.QuizRepository
	SubmissionRepo repository.SubmissionRepository
	UserRepo       repository.UserRepository
	CacheRepo      repository.CacheRepository
	Broadcaster    Broadcaster
}
