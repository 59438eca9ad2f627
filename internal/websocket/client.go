package websocket

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту.
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения
	maxMessageSize = 1024

	// Размер буфера по умолчанию для канала отправки сообщений клиенту
	defaultClientBufferSize = 128
)

// Client является посредником между WebSocket соединением и хабом.
type Client struct {
	// ID пользователя
	UserID string

	// Уникальный ID для каждого соединения
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn

	// Буферизованный канал для исходящих сообщений
	send chan []byte

	// Флаг, указывающий что канал send закрыт (для предотвращения panic)
	sendClosed atomic.Bool

	// Время последней активности клиента
	lastActivity atomic.Int64

	// ID комнаты, на которую подписан клиент (0 - нет подписки)
	currentRoomID atomic.Uint32
}

// NewClient создает нового клиента
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	c := &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, defaultClientBufferSize),
		UserID:       userID,
		ConnectionID: uuid.New().String(),
	}
	c.lastActivity.Store(time.Now().UnixMilli())
	return c
}

// SetRoomID устанавливает ID текущей комнаты клиента
func (c *Client) SetRoomID(roomID uint) {
	c.currentRoomID.Store(uint32(roomID))
}

// GetRoomID возвращает ID текущей комнаты клиента
func (c *Client) GetRoomID() uint {
	return uint(c.currentRoomID.Load())
}

// ClearRoomID сбрасывает ID текущей комнаты (например, при выходе)
func (c *Client) ClearRoomID() {
	c.currentRoomID.Store(0)
}

// Send ставит сообщение в очередь отправки клиенту.
// Возвращает false, если буфер переполнен или канал уже закрыт.
func (c *Client) Send(message []byte) bool {
	if c.sendClosed.Load() {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		log.Printf("[WebSocket] Буфер отправки клиента %s переполнен, сообщение отброшено", c.UserID)
		return false
	}
}

// CloseSend безопасно закрывает канал отправки
func (c *Client) CloseSend() {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
	}
}

// readPump читает сообщения от клиента и передает их обработчику.
// Завершение цикла чтения означает разрыв соединения: клиент
// дерегистрируется из хаба, что снимает и подписку на комнату.
func (c *Client) readPump(messageHandler func(message []byte, client *Client) error) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.lastActivity.Store(time.Now().UnixMilli())
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] Неожиданное закрытие соединения клиента %s: %v", c.UserID, err)
			}
			return
		}

		c.lastActivity.Store(time.Now().UnixMilli())

		if messageHandler != nil {
			if err := messageHandler(message, c); err != nil {
				log.Printf("[WebSocket] Фатальная ошибка обработки сообщения клиента %s: %v", c.UserID, err)
				return
			}
		}
	}
}

// writePump отправляет сообщения из канала send в соединение
// и поддерживает его ping-сообщениями.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// StartPumps запускает циклы чтения и записи клиента
func (c *Client) StartPumps(messageHandler func(message []byte, client *Client) error) {
	go c.writePump()
	go c.readPump(messageHandler)
}
