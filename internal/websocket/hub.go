package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Hub управляет активными WebSocket-клиентами и рассылкой сообщений.
// Помимо общей рассылки ведёт индекс подписок по комнатам, чтобы события
// сессии доставлялись только участникам конкретной комнаты.
type Hub struct {
	// Все подключенные клиенты
	clients sync.Map // *Client -> struct{}

	// Карта UserID -> *Client
	userMap sync.Map

	// Индекс подписок: roomID -> map[*Client]struct{}
	roomSubscriptions sync.Map

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	// Relay для горизонтального масштабирования (nil в одиночном режиме)
	relay *ClusterRelay

	// Вызывается после окончательного отключения клиента.
	// При замене соединения тем же пользователем не срабатывает.
	disconnectHandler func(client *Client)

	clientCount  atomic.Int64
	messagesSent atomic.Int64
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// SetClusterRelay подключает relay для межинстансовой рассылки.
// Должен вызываться до Run.
func (h *Hub) SetClusterRelay(relay *ClusterRelay) {
	h.relay = relay
}

// SetDisconnectHandler регистрирует обработчик отключения клиента.
// Должен вызываться до Run.
func (h *Hub) SetDisconnectHandler(handler func(client *Client)) {
	h.disconnectHandler = handler
}

// Run запускает цикл обработки сообщений хаба
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case message := <-h.broadcast:
			h.broadcastLocal(message)
		case <-h.done:
			log.Println("[Hub] Получен сигнал завершения работы, закрываем клиентов")
			h.closeAllClients()
			return
		}
	}
}

// Shutdown останавливает цикл хаба
func (h *Hub) Shutdown() {
	close(h.done)
}

// RegisterClient ставит клиента в очередь на регистрацию
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) handleRegister(client *Client) {
	// Один пользователь - одно живое соединение: старое вытесняется
	if existing, loaded := h.userMap.LoadOrStore(client.UserID, client); loaded {
		oldClient, ok := existing.(*Client)
		if ok && oldClient != client {
			log.Printf("[Hub] Замена соединения пользователя %s новым подключением", client.UserID)
			h.removeClient(oldClient)
			h.userMap.Store(client.UserID, client)
		}
	}

	h.clients.Store(client, struct{}{})
	h.clientCount.Add(1)
	log.Printf("[Hub] Клиент %s зарегистрирован (conn %s), всего: %d",
		client.UserID, client.ConnectionID, h.clientCount.Load())
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients.Load(client); !ok {
		return
	}
	h.removeClient(client)
	log.Printf("[Hub] Клиент %s отключен, всего: %d", client.UserID, h.clientCount.Load())

	if h.disconnectHandler != nil {
		h.disconnectHandler(client)
	}
}

// removeClient убирает клиента из всех индексов и закрывает его канал
func (h *Hub) removeClient(client *Client) {
	h.clients.Delete(client)
	h.userMap.CompareAndDelete(client.UserID, client)
	h.unsubscribeLocked(client)
	client.CloseSend()
	h.clientCount.Add(-1)
}

func (h *Hub) closeAllClients() {
	h.clients.Range(func(key, _ interface{}) bool {
		if client, ok := key.(*Client); ok {
			h.removeClient(client)
		}
		return true
	})
}

// SubscribeToRoom подписывает клиента на события комнаты.
// Предыдущая подписка клиента снимается: клиент может находиться
// только в одной комнате.
func (h *Hub) SubscribeToRoom(client *Client, roomID uint) {
	h.unsubscribeLocked(client)

	subsAny, _ := h.roomSubscriptions.LoadOrStore(roomID, &sync.Map{})
	subs := subsAny.(*sync.Map)
	subs.Store(client, struct{}{})
	client.SetRoomID(roomID)
}

// UnsubscribeFromRoom отписывает клиента от его текущей комнаты
func (h *Hub) UnsubscribeFromRoom(client *Client) {
	h.unsubscribeLocked(client)
}

func (h *Hub) unsubscribeLocked(client *Client) {
	roomID := client.GetRoomID()
	if roomID == 0 {
		return
	}
	if subsAny, ok := h.roomSubscriptions.Load(roomID); ok {
		subs := subsAny.(*sync.Map)
		subs.Delete(client)
	}
	client.ClearRoomID()
}

// RoomSubscriberCount возвращает количество подписчиков комнаты
func (h *Hub) RoomSubscriberCount(roomID uint) int {
	count := 0
	if subsAny, ok := h.roomSubscriptions.Load(roomID); ok {
		subsAny.(*sync.Map).Range(func(_, _ interface{}) bool {
			count++
			return true
		})
	}
	return count
}

// BroadcastToRoom отправляет сообщение всем подписчикам комнаты.
// В кластерном режиме сообщение также публикуется другим инстансам.
func (h *Hub) BroadcastToRoom(roomID uint, message []byte) {
	h.broadcastToRoomLocal(roomID, message)

	if h.relay != nil {
		if err := h.relay.PublishRoomMessage(roomID, message); err != nil {
			log.Printf("[Hub] Ошибка публикации сообщения комнаты %d в кластер: %v", roomID, err)
		}
	}
}

// broadcastToRoomLocal доставляет сообщение только локальным подписчикам.
// Используется relay-ем при получении сообщения из кластера, чтобы
// не зациклить публикацию.
func (h *Hub) broadcastToRoomLocal(roomID uint, message []byte) {
	subsAny, ok := h.roomSubscriptions.Load(roomID)
	if !ok {
		return
	}
	subsAny.(*sync.Map).Range(func(key, _ interface{}) bool {
		if client, ok := key.(*Client); ok {
			if client.Send(message) {
				h.messagesSent.Add(1)
			}
		}
		return true
	})
}

// BroadcastBytes отправляет байтовое сообщение всем клиентам
func (h *Hub) BroadcastBytes(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Println("[Hub] Канал broadcast переполнен, сообщение отброшено")
	}
}

func (h *Hub) broadcastLocal(message []byte) {
	h.clients.Range(func(key, _ interface{}) bool {
		if client, ok := key.(*Client); ok {
			if client.Send(message) {
				h.messagesSent.Add(1)
			}
		}
		return true
	})
}

// BroadcastJSON отправляет структуру JSON всем клиентам
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast message: %w", err)
	}
	h.BroadcastBytes(data)
	return nil
}

// SendToUser отправляет байтовое сообщение конкретному пользователю.
// Возвращает true, если клиент найден и сообщение поставлено в очередь.
func (h *Hub) SendToUser(userID string, message []byte) bool {
	clientAny, ok := h.userMap.Load(userID)
	if !ok {
		return false
	}
	client, ok := clientAny.(*Client)
	if !ok {
		return false
	}
	if client.Send(message) {
		h.messagesSent.Add(1)
		return true
	}
	return false
}

// SendJSONToUser отправляет структуру JSON конкретному пользователю
func (h *Hub) SendJSONToUser(userID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message for user %s: %w", userID, err)
	}
	if !h.SendToUser(userID, data) {
		return fmt.Errorf("user %s is not connected", userID)
	}
	return nil
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// GetMetrics возвращает метрики хаба
func (h *Hub) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"client_count":  h.clientCount.Load(),
		"messages_sent": h.messagesSent.Load(),
	}
}
