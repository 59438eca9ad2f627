package roommanager

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	ws "github.com/yourusername/intelliq-api/internal/websocket"
)

// sessionState хранит оперативное состояние активной викторины комнаты
type sessionState struct {
	mu              sync.Mutex
	roomID          uint
	quiz            *entity.Quiz
	questions       []entity.Question
	questionIndex   int
	questionStartMs int64
	timeLimitSec    int
	timer           *time.Timer
	finished        bool
}

// SessionSnapshot - снимок состояния сессии для ресинхронизации клиентов
type SessionSnapshot struct {
	RoomID          uint  `json:"room_id"`
	QuizID          uint  `json:"quiz_id"`
	Active          bool  `json:"active"`
	Finished        bool  `json:"finished"`
	QuestionIndex   int   `json:"question_index"`
	TotalQuestions  int   `json:"total_questions"`
	QuestionStartMs int64 `json:"question_start_ms"`
	TimeLimitSec    int   `json:"time_limit_sec"`
}

// Coordinator управляет ходом викторины в комнате.
//
// Источником команд перехода является лидер комнаты: команды остальных
// участников отклоняются. Текущий индекс вопроса после каждого перехода
// сохраняется в Redis, поэтому переподключившийся клиент (в том числе
// новый лидер после смены) восстанавливает позицию с сервера, а не из
// собственной памяти.
type Coordinator struct {
	config   *Config
	deps     *Dependencies
	presence *PresenceManager

	sessions sync.Map // map[uint]*sessionState
}

// NewCoordinator создает новый координатор викторин
func NewCoordinator(config *Config, deps *Dependencies, presence *PresenceManager) *Coordinator {
	c := &Coordinator{
		config:   config,
		deps:     deps,
		presence: presence,
	}
	presence.SetRoomEmptyHandler(c.StopSession)
	return c
}

func questionIndexKey(roomID uint) string {
	return fmt.Sprintf("room:%d:question_index", roomID)
}

func questionStartKey(roomID uint) string {
	return fmt.Sprintf("room:%d:question_start_ms", roomID)
}

// StartQuiz запускает викторину комнаты. Доступно только лидеру.
func (c *Coordinator) StartQuiz(ctx context.Context, roomID uint, requestedBy uint) error {
	if !c.presence.IsLeader(roomID, requestedBy) {
		return fmt.Errorf("запуск викторины доступен только лидеру комнаты: %w", apperrors.ErrForbidden)
	}

	if _, exists := c.sessions.Load(roomID); exists {
		return fmt.Errorf("викторина в комнате %d уже запущена: %w", roomID, apperrors.ErrConflict)
	}

	room, err := c.deps.RoomRepo.GetByID(roomID)
	if err != nil {
		return err
	}
	if room.IsEnded() {
		return fmt.Errorf("комната %d уже завершена: %w", roomID, apperrors.ErrForbidden)
	}

	quiz, err := c.deps.QuizRepo.GetByRoomIDWithQuestions(roomID)
	if err != nil {
		return fmt.Errorf("викторина для комнаты %d не найдена: %w", roomID, err)
	}
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("в викторине %d нет вопросов: %w", quiz.ID, apperrors.ErrValidation)
	}

	state := &sessionState{
		roomID:        roomID,
		quiz:          quiz,
		questions:     quiz.Questions,
		questionIndex: 0,
		timeLimitSec:  room.TimeLimitSec,
	}
	if _, loaded := c.sessions.LoadOrStore(roomID, state); loaded {
		return fmt.Errorf("викторина в комнате %d уже запущена: %w", roomID, apperrors.ErrConflict)
	}

	log.Printf("[Coordinator] Викторина %d запущена в комнате %d лидером %d (%d вопросов)",
		quiz.ID, roomID, requestedBy, len(quiz.Questions))

	c.deps.Broadcaster.BroadcastEventToRoom(roomID, ws.ROOM_QUIZ_STARTED, map[string]interface{}{
		"room_id":         roomID,
		"quiz_id":         quiz.ID,
		"title":           quiz.Title,
		"total_questions": len(quiz.Questions),
		"time_limit_sec":  room.TimeLimitSec,
	})

	c.sendCurrentQuestion(state)
	return nil
}

// AdvanceQuestion продвигает викторину на следующий вопрос по команде
// лидера. После последнего вопроса завершает сессию.
func (c *Coordinator) AdvanceQuestion(ctx context.Context, roomID uint, requestedBy uint) error {
	if !c.presence.IsLeader(roomID, requestedBy) {
		return fmt.Errorf("переход к следующему вопросу доступен только лидеру: %w", apperrors.ErrForbidden)
	}
	return c.advance(roomID)
}

// advance выполняет переход по команде лидера, без проверки позиции
func (c *Coordinator) advance(roomID uint) error {
	return c.advanceIfCurrent(roomID, -1)
}

// advanceIfCurrent выполняет собственно переход. Таймер автопродвижения
// передаёт индекс вопроса, под который был взведён: если лидер успел
// продвинуть викторину раньше, позиция уже не совпадает и сработавший
// таймер не должен трогать текущий вопрос. expectedIndex < 0 означает
// безусловный переход.
func (c *Coordinator) advanceIfCurrent(roomID uint, expectedIndex int) error {
	value, ok := c.sessions.Load(roomID)
	if !ok {
		return fmt.Errorf("в комнате %d нет активной викторины: %w", roomID, apperrors.ErrNotFound)
	}
	state := value.(*sessionState)

	state.mu.Lock()
	if state.finished {
		state.mu.Unlock()
		return fmt.Errorf("викторина в комнате %d уже завершена: %w", roomID, apperrors.ErrConflict)
	}
	if expectedIndex >= 0 && state.questionIndex != expectedIndex {
		state.mu.Unlock()
		return nil
	}
	if state.timer != nil {
		state.timer.Stop()
		state.timer = nil
	}
	state.questionIndex++
	last := state.questionIndex >= len(state.questions)
	if last {
		state.finished = true
	}
	state.mu.Unlock()

	if last {
		return c.finishSession(roomID, state)
	}

	c.sendCurrentQuestion(state)
	return nil
}

// sendCurrentQuestion сохраняет позицию в Redis, рассылает вопрос
// участникам и взводит таймер автопродвижения
func (c *Coordinator) sendCurrentQuestion(state *sessionState) {
	state.mu.Lock()
	index := state.questionIndex
	question := state.questions[index]
	total := len(state.questions)
	limitSec := state.timeLimitSec
	startMs := time.Now().UnixMilli()
	state.questionStartMs = startMs
	state.mu.Unlock()

	if err := c.deps.CacheRepo.Set(questionIndexKey(state.roomID),
		fmt.Sprintf("%d", index), c.config.SessionStateTTL); err != nil {
		log.Printf("[Coordinator] Ошибка сохранения индекса вопроса комнаты %d: %v", state.roomID, err)
	}
	if err := c.deps.CacheRepo.Set(questionStartKey(state.roomID),
		fmt.Sprintf("%d", startMs), c.config.SessionStateTTL); err != nil {
		log.Printf("[Coordinator] Ошибка сохранения старта вопроса комнаты %d: %v", state.roomID, err)
	}

	log.Printf("[Coordinator] Комната %d: вопрос %d/%d (id=%d)", state.roomID, index+1, total, question.ID)

	// правильный ответ в событие не попадает: поле скрыто json-тегом
	c.deps.Broadcaster.BroadcastEventToRoom(state.roomID, ws.ROOM_NEXT_QUESTION, map[string]interface{}{
		"room_id":           state.roomID,
		"question_id":       question.ID,
		"question_number":   index + 1,
		"total_questions":   total,
		"text":              question.Text,
		"options":           question.Options,
		"time_limit_sec":    limitSec,
		"question_start_ms": startMs,
	})

	deadline := time.Duration(limitSec+c.config.AdvanceGraceSec) * time.Second
	state.mu.Lock()
	state.timer = time.AfterFunc(deadline, func() {
		log.Printf("[Coordinator] Комната %d: дедлайн вопроса %d истёк, автопродвижение", state.roomID, index+1)
		if err := c.advanceIfCurrent(state.roomID, index); err != nil {
			log.Printf("[Coordinator] Ошибка автопродвижения в комнате %d: %v", state.roomID, err)
		}
	})
	state.mu.Unlock()
}

// finishSession завершает викторину: фиксирует окончание комнаты,
// обновляет статистику игроков и рассылает итоговую таблицу
func (c *Coordinator) finishSession(roomID uint, state *sessionState) error {
	log.Printf("[Coordinator] Викторина %d в комнате %d завершена", state.quiz.ID, roomID)

	if err := c.deps.RoomRepo.SetEndedAt(roomID, time.Now()); err != nil {
		log.Printf("[Coordinator] Ошибка фиксации завершения комнаты %d: %v", roomID, err)
	}

	submissions, err := c.deps.SubmissionRepo.GetByRoomID(roomID)
	if err != nil {
		log.Printf("[Coordinator] Ошибка загрузки результатов комнаты %d: %v", roomID, err)
	} else {
		for _, sub := range submissions {
			if err := c.deps.UserRepo.ApplySessionResult(sub.UserID, int64(sub.UserScore)); err != nil {
				log.Printf("[Coordinator] Ошибка обновления статистики пользователя %d: %v", sub.UserID, err)
			}
		}
	}

	leaderboard, err := c.deps.SubmissionRepo.GetLeaderboard(roomID)
	if err != nil {
		log.Printf("[Coordinator] Ошибка построения таблицы лидеров комнаты %d: %v", roomID, err)
		leaderboard = nil
	}

	c.deps.Broadcaster.BroadcastEventToRoom(roomID, ws.ROOM_QUIZ_FINISHED, map[string]interface{}{
		"room_id":         roomID,
		"quiz_id":         state.quiz.ID,
		"total_questions": len(state.questions),
		"leaderboard":     leaderboard,
	})

	c.cleanupSession(roomID)
	return nil
}

// StopSession останавливает сессию без завершения викторины.
// Вызывается когда комната опустела.
func (c *Coordinator) StopSession(roomID uint) {
	value, ok := c.sessions.Load(roomID)
	if !ok {
		return
	}
	state := value.(*sessionState)

	state.mu.Lock()
	state.finished = true
	if state.timer != nil {
		state.timer.Stop()
		state.timer = nil
	}
	state.mu.Unlock()

	log.Printf("[Coordinator] Сессия комнаты %d остановлена", roomID)
	c.cleanupSession(roomID)
}

func (c *Coordinator) cleanupSession(roomID uint) {
	c.sessions.Delete(roomID)

	if err := c.deps.CacheRepo.Delete(questionIndexKey(roomID)); err != nil {
		log.Printf("[Coordinator] Ошибка очистки индекса вопроса комнаты %d: %v", roomID, err)
	}
	if err := c.deps.CacheRepo.Delete(questionStartKey(roomID)); err != nil {
		log.Printf("[Coordinator] Ошибка очистки старта вопроса комнаты %d: %v", roomID, err)
	}
}

// State возвращает снимок состояния сессии комнаты. Для неактивной
// комнаты позиция восстанавливается из Redis, если она там сохранилась.
func (c *Coordinator) State(ctx context.Context, roomID uint) (*SessionSnapshot, error) {
	if value, ok := c.sessions.Load(roomID); ok {
		state := value.(*sessionState)
		state.mu.Lock()
		defer state.mu.Unlock()
		return &SessionSnapshot{
			RoomID:          roomID,
			QuizID:          state.quiz.ID,
			Active:          !state.finished,
			Finished:        state.finished,
			QuestionIndex:   state.questionIndex,
			TotalQuestions:  len(state.questions),
			QuestionStartMs: state.questionStartMs,
			TimeLimitSec:    state.timeLimitSec,
		}, nil
	}

	index, err := c.deps.CacheRepo.GetInt64(questionIndexKey(roomID))
	if err != nil {
		return nil, fmt.Errorf("состояние сессии комнаты %d не найдено: %w", roomID, apperrors.ErrNotFound)
	}
	startMs, err := c.deps.CacheRepo.GetInt64(questionStartKey(roomID))
	if err != nil {
		startMs = 0
	}

	quiz, err := c.deps.QuizRepo.GetByRoomID(roomID)
	if err != nil {
		return nil, err
	}

	return &SessionSnapshot{
		RoomID:          roomID,
		QuizID:          quiz.ID,
		Active:          false,
		QuestionIndex:   int(index),
		TotalQuestions:  quiz.QuestionCount,
		QuestionStartMs: startMs,
	}, nil
}
