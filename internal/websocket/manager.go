package websocket

import (
	"encoding/json"
	"fmt"
	"log"
)

// Manager обрабатывает WebSocket сообщения
type Manager struct {
	hub            HubInterface
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub HubInterface) *Manager {
	return &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
	log.Printf("[WebSocketManager] Зарегистрирован обработчик для сообщений типа: %s", eventType)
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если обработка не удалась и соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var event Event
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("[WebSocketManager] Не удалось разобрать сообщение от %s: %v", client.UserID, err)
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err // Ошибка парсинга - закрываем соединение
	}

	handler, ok := m.messageHandler[event.Type]
	if !ok {
		log.Printf("[WebSocketManager] Нет обработчика для типа '%s' от клиента %s", event.Type, client.UserID)
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", event.Type))
		return nil // Неизвестный тип - не закрываем соединение
	}

	rawMessage, _ := json.Marshal(event.Data)
	if err := handler(rawMessage, client); err != nil {
		log.Printf("[WebSocketManager] Обработчик '%s' вернул ошибку для клиента %s: %v", event.Type, client.UserID, err)
		return err
	}

	return nil
}

// SendErrorToClient отправляет стандартизированное сообщение об ошибке клиенту.
// Этот метод НЕ закрывает соединение.
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	errorEvent := Event{
		Type: SERVER_ERROR,
		Data: map[string]string{
			"code":    code,
			"message": message,
		},
	}
	if err := m.hub.SendJSONToUser(client.UserID, errorEvent); err != nil {
		log.Printf("[WebSocketManager] Ошибка отправки server:error клиенту %s: %v", client.UserID, err)
	}
}

// BroadcastEvent отправляет событие всем клиентам
func (m *Manager) BroadcastEvent(eventType string, data interface{}) error {
	return m.hub.BroadcastJSON(Event{Type: eventType, Data: data})
}

// SendEventToUser отправляет событие конкретному пользователю
func (m *Manager) SendEventToUser(userID string, eventType string, data interface{}) error {
	return m.hub.SendJSONToUser(userID, Event{Type: eventType, Data: data})
}

// BroadcastEventToRoom отправляет событие всем подписчикам комнаты
func (m *Manager) BroadcastEventToRoom(roomID uint, eventType string, data interface{}) error {
	event := Event{Type: eventType, Data: data}
	jsonBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for room %d: %w", roomID, err)
	}
	m.hub.BroadcastToRoom(roomID, jsonBytes)
	return nil
}

// SubscribeClientToRoom подписывает клиента на события комнаты
func (m *Manager) SubscribeClientToRoom(client *Client, roomID uint) {
	m.hub.SubscribeToRoom(client, roomID)
	log.Printf("[WebSocketManager] Клиент %s подписан на комнату %d", client.UserID, roomID)
}

// UnsubscribeClientFromRoom отписывает клиента от его текущей комнаты
func (m *Manager) UnsubscribeClientFromRoom(client *Client) {
	m.hub.UnsubscribeFromRoom(client)
}

// RoomSubscriberCount возвращает количество подключений в комнате
func (m *Manager) RoomSubscriberCount(roomID uint) int {
	return m.hub.RoomSubscriberCount(roomID)
}

// GetMetrics возвращает текущие метрики WebSocket-системы
func (m *Manager) GetMetrics() map[string]interface{} {
	return m.hub.GetMetrics()
}
