package websocket

// HubInterface описывает возможности хаба, необходимые Manager.
type HubInterface interface {
	// BroadcastJSON отправляет структуру JSON всем клиентам
	BroadcastJSON(v interface{}) error

	// SendJSONToUser отправляет структуру JSON конкретному пользователю
	SendJSONToUser(userID string, v interface{}) error

	// SendToUser отправляет байтовое сообщение конкретному пользователю
	SendToUser(userID string, message []byte) bool

	// BroadcastToRoom отправляет байтовое сообщение всем подписчикам комнаты
	BroadcastToRoom(roomID uint, message []byte)

	// SubscribeToRoom подписывает клиента на события комнаты
	SubscribeToRoom(client *Client, roomID uint)

	// UnsubscribeFromRoom отписывает клиента от его текущей комнаты
	UnsubscribeFromRoom(client *Client)

	// RoomSubscriberCount возвращает количество подписчиков комнаты
	RoomSubscriberCount(roomID uint) int

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int

	// GetMetrics возвращает метрики хаба
	GetMetrics() map[string]interface{}
}
