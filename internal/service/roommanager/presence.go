package roommanager

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/intelliq-api/internal/domain/entity"
	apperrors "github.com/yourusername/intelliq-api/internal/pkg/errors"
	ws "github.com/yourusername/intelliq-api/internal/websocket"
)

// Member представляет участника комнаты в оперативной памяти
type Member struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	JoinSeq  uint64    `json:"join_seq"`
	IsLeader bool      `json:"is_leader"`
	JoinedAt time.Time `json:"joined_at"`
}

// roomPresence хранит состав одной комнаты
type roomPresence struct {
	mu      sync.RWMutex
	members map[uint]*Member
	nextSeq uint64
}

// PresenceManager отслеживает участников комнат и назначает лидера.
// Лидером всегда является участник с минимальным порядковым номером
// входа: номера монотонно растут и не переиспользуются, поэтому выбор
// детерминирован и не зависит от порядка обработки отключений.
type PresenceManager struct {
	config *Config
	deps   *Dependencies

	mu    sync.RWMutex
	rooms map[uint]*roomPresence

	// вызывается после выхода последнего участника
	roomEmptyHandler func(roomID uint)
}

// NewPresenceManager создает новый менеджер присутствия
func NewPresenceManager(config *Config, deps *Dependencies) *PresenceManager {
	return &PresenceManager{
		config: config,
		deps:   deps,
		rooms:  make(map[uint]*roomPresence),
	}
}

// SetRoomEmptyHandler регистрирует обработчик опустевшей комнаты.
// Координатор использует его для остановки сессии и освобождения таймеров.
func (pm *PresenceManager) SetRoomEmptyHandler(handler func(roomID uint)) {
	pm.roomEmptyHandler = handler
}

// Join добавляет пользователя в комнату по её коду.
//
// Вместимость проверяется по свежему состоянию комнаты из БД, а не по
// кэшу: настройка max_players могла измениться после создания комнаты.
// Повторный вход уже присутствующего пользователя идемпотентен и не
// выдаёт новый порядковый номер.
func (pm *PresenceManager) Join(ctx context.Context, roomCode string, userID uint, username string) (*entity.Room, []Member, error) {
	room, err := pm.deps.RoomRepo.GetByCode(roomCode)
	if err != nil {
		return nil, nil, err
	}

	if room.IsEnded() {
		return nil, nil, fmt.Errorf("комната %s уже завершена: %w", roomCode, apperrors.ErrForbidden)
	}

	rp := pm.getOrCreateRoom(room.ID)

	rp.mu.Lock()
	if existing, ok := rp.members[userID]; ok {
		// повторное подключение того же пользователя
		existing.Username = username
		members := rp.snapshotLocked()
		rp.mu.Unlock()
		pm.broadcastPresence(room.ID, members)
		return room, members, nil
	}

	if len(rp.members) >= room.MaxPlayers {
		rp.mu.Unlock()
		return nil, nil, fmt.Errorf("комната %s заполнена (%d/%d): %w",
			roomCode, room.MaxPlayers, room.MaxPlayers, apperrors.ErrRoomFull)
	}

	rp.nextSeq++
	member := &Member{
		UserID:   userID,
		Username: username,
		JoinSeq:  rp.nextSeq,
		JoinedAt: time.Now(),
	}
	rp.members[userID] = member
	members := rp.snapshotLocked()
	rp.mu.Unlock()

	log.Printf("[PresenceManager] Пользователь %d вошёл в комнату %d (seq=%d, участников: %d)",
		userID, room.ID, member.JoinSeq, len(members))

	pm.deps.Broadcaster.BroadcastEventToRoom(room.ID, ws.ROOM_PLAYER_JOINED, map[string]interface{}{
		"room_id":  room.ID,
		"user_id":  userID,
		"username": username,
		"join_seq": member.JoinSeq,
	})
	pm.broadcastPresence(room.ID, members)

	return room, members, nil
}

// Leave удаляет пользователя из комнаты. Если уходит лидер, лидерство
// переходит к участнику со следующим минимальным номером входа. Выход
// последнего участника удаляет состояние комнаты из памяти.
func (pm *PresenceManager) Leave(ctx context.Context, roomID uint, userID uint) {
	pm.mu.RLock()
	rp, ok := pm.rooms[roomID]
	pm.mu.RUnlock()
	if !ok {
		return
	}

	rp.mu.Lock()
	member, ok := rp.members[userID]
	if !ok {
		rp.mu.Unlock()
		return
	}
	delete(rp.members, userID)
	empty := len(rp.members) == 0
	members := rp.snapshotLocked()
	rp.mu.Unlock()

	log.Printf("[PresenceManager] Пользователь %d покинул комнату %d (seq=%d, осталось: %d)",
		userID, roomID, member.JoinSeq, len(members))

	if empty {
		pm.mu.Lock()
		delete(pm.rooms, roomID)
		pm.mu.Unlock()

		log.Printf("[PresenceManager] Комната %d опустела, состояние освобождено", roomID)
		if pm.roomEmptyHandler != nil {
			pm.roomEmptyHandler(roomID)
		}
		return
	}

	pm.deps.Broadcaster.BroadcastEventToRoom(roomID, ws.ROOM_PLAYER_LEFT, map[string]interface{}{
		"room_id":  roomID,
		"user_id":  userID,
		"username": member.Username,
	})
	pm.broadcastPresence(roomID, members)
}

// Members возвращает участников комнаты, отсортированных по номеру входа
func (pm *PresenceManager) Members(roomID uint) []Member {
	pm.mu.RLock()
	rp, ok := pm.rooms[roomID]
	pm.mu.RUnlock()
	if !ok {
		return nil
	}

	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return rp.snapshotLocked()
}

// Leader возвращает текущего лидера комнаты
func (pm *PresenceManager) Leader(roomID uint) (Member, bool) {
	members := pm.Members(roomID)
	if len(members) == 0 {
		return Member{}, false
	}
	return members[0], true
}

// IsLeader проверяет, является ли пользователь лидером комнаты
func (pm *PresenceManager) IsLeader(roomID uint, userID uint) bool {
	leader, ok := pm.Leader(roomID)
	return ok && leader.UserID == userID
}

// Count возвращает количество участников комнаты
func (pm *PresenceManager) Count(roomID uint) int {
	pm.mu.RLock()
	rp, ok := pm.rooms[roomID]
	pm.mu.RUnlock()
	if !ok {
		return 0
	}

	rp.mu.RLock()
	defer rp.mu.RUnlock()
	return len(rp.members)
}

func (pm *PresenceManager) getOrCreateRoom(roomID uint) *roomPresence {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	rp, ok := pm.rooms[roomID]
	if !ok {
		rp = &roomPresence{members: make(map[uint]*Member)}
		pm.rooms[roomID] = rp
	}
	return rp
}

// snapshotLocked возвращает срез участников в порядке входа.
// Вызывается под rp.mu; флаг лидера проставляется первому элементу.
func (rp *roomPresence) snapshotLocked() []Member {
	members := make([]Member, 0, len(rp.members))
	for _, m := range rp.members {
		members = append(members, *m)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].JoinSeq < members[j].JoinSeq
	})
	for i := range members {
		members[i].IsLeader = i == 0
	}
	return members
}

// broadcastPresence рассылает полный снимок состава комнаты.
// Полный снимок вместо дельт устраняет расхождения при потере
// отдельных событий join/left.
func (pm *PresenceManager) broadcastPresence(roomID uint, members []Member) {
	var leaderID uint
	if len(members) > 0 {
		leaderID = members[0].UserID
	}

	if err := pm.deps.Broadcaster.BroadcastEventToRoom(roomID, ws.ROOM_PRESENCE_SYNC, map[string]interface{}{
		"room_id":      roomID,
		"members":      members,
		"member_count": len(members),
		"leader_id":    leaderID,
	}); err != nil {
		log.Printf("[PresenceManager] Ошибка рассылки presence_sync для комнаты %d: %v", roomID, err)
	}
}
