package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/intelliq-api/internal/service"
	"github.com/yourusername/intelliq-api/internal/service/roommanager"
	"github.com/yourusername/intelliq-api/internal/websocket"
	"github.com/yourusername/intelliq-api/pkg/auth"
)

// WSHandler обрабатывает WebSocket соединения
type WSHandler struct {
	wsHub       *websocket.Hub
	wsManager   *websocket.Manager
	presence    *roommanager.PresenceManager
	coordinator *roommanager.Coordinator
	roomService *service.RoomService
	authService *service.AuthService
	jwtService  *auth.JWTService
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(
	wsHub *websocket.Hub,
	wsManager *websocket.Manager,
	presence *roommanager.PresenceManager,
	coordinator *roommanager.Coordinator,
	roomService *service.RoomService,
	authService *service.AuthService,
	jwtService *auth.JWTService,
) *WSHandler {
	handler := &WSHandler{
		wsHub:       wsHub,
		wsManager:   wsManager,
		presence:    presence,
		coordinator: coordinator,
		roomService: roomService,
		authService: authService,
		jwtService:  jwtService,
	}

	// Обработчики сообщений регистрируются один раз при создании
	handler.registerMessageHandlers()

	// Обрыв соединения равносилен выходу из комнаты
	wsHub.SetDisconnectHandler(func(client *websocket.Client) {
		roomID := client.GetRoomID()
		if roomID == 0 {
			return
		}
		userID, err := parseClientUserID(client)
		if err != nil {
			return
		}
		presence.Leave(context.Background(), roomID, userID)
	})

	return handler
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Пустой Origin - не браузерный клиент (мобильное приложение, curl)
		if origin == "" {
			return true
		}

		// Список разрешенных origin (синхронизирован с CORS в main.go)
		allowedOrigins := []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://localhost:8000",
		}

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("WebSocket: отклонено подключение с origin %s", origin)
		return false
	},
	EnableCompression: true,
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// Аутентификация выполняется по короткоживущему тикету из query-параметра:
// долгоживущий access-токен в URL оставлял бы его в логах прокси.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	ticket := c.Query("ticket")
	if ticket == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication ticket parameter"})
		return
	}

	claims, err := h.jwtService.ParseWSTicket(ticket)
	if err != nil {
		log.Printf("WebSocket: невалидный или просроченный тикет - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired ticket"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket: ошибка апгрейда соединения: %v", err)
		return
	}

	log.Printf("WebSocket: соединение установлено для пользователя %d", claims.UserID)

	client := websocket.NewClient(h.wsHub, conn, fmt.Sprintf("%d", claims.UserID))
	h.wsHub.RegisterClient(client)
	client.StartPumps(h.wsManager.HandleMessage)
}

// registerMessageHandlers регистрирует обработчики клиентских событий
func (h *WSHandler) registerMessageHandlers() {
	h.wsManager.RegisterHandler(websocket.CLIENT_JOIN_ROOM, func(data json.RawMessage, client *websocket.Client) error {
		var joinEvent struct {
			RoomCode string `json:"room_code"`
		}
		if err := json.Unmarshal(data, &joinEvent); err != nil {
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse room:join event")
			return fmt.Errorf("failed to parse room:join event: %w", err)
		}

		userID, err := parseClientUserID(client)
		if err != nil {
			h.wsManager.SendErrorToClient(client, "internal_error", "Invalid user ID format")
			return err
		}

		user, err := h.authService.GetUserByID(context.Background(), userID)
		if err != nil {
			h.wsManager.SendErrorToClient(client, "join_error", "User not found")
			return nil
		}

		room, _, err := h.presence.Join(context.Background(), joinEvent.RoomCode, userID, user.Username)
		if err != nil {
			log.Printf("[WSHandler] Ошибка входа пользователя %d в комнату %s: %v", userID, joinEvent.RoomCode, err)
			h.wsManager.SendErrorToClient(client, "join_error", err.Error())
			return nil
		}

		// Переход между комнатами: присутствие в старой комнате
		// снимается только после успешного входа в новую
		if oldRoomID := client.GetRoomID(); oldRoomID != 0 && oldRoomID != room.ID {
			h.presence.Leave(context.Background(), oldRoomID, userID)
		}

		// Подписка после успешного входа: последовательность важна,
		// чтобы не получать события чужой комнаты при отказе.
		// SubscribeClientToRoom сам отписывает от прежней комнаты
		// и проставляет клиенту новый RoomID.
		h.wsManager.SubscribeClientToRoom(client, room.ID)
		return nil
	})

	h.wsManager.RegisterHandler(websocket.CLIENT_LEAVE_ROOM, func(data json.RawMessage, client *websocket.Client) error {
		roomID := client.GetRoomID()
		if roomID == 0 {
			return nil
		}

		userID, err := parseClientUserID(client)
		if err != nil {
			return err
		}

		h.wsManager.UnsubscribeClientFromRoom(client)
		client.ClearRoomID()
		h.presence.Leave(context.Background(), roomID, userID)
		return nil
	})

	h.wsManager.RegisterHandler(websocket.CLIENT_START_QUIZ, func(data json.RawMessage, client *websocket.Client) error {
		roomID := client.GetRoomID()
		if roomID == 0 {
			h.wsManager.SendErrorToClient(client, "start_error", "Not in a room")
			return nil
		}

		userID, err := parseClientUserID(client)
		if err != nil {
			return err
		}

		if err := h.coordinator.StartQuiz(context.Background(), roomID, userID); err != nil {
			log.Printf("[WSHandler] Ошибка запуска викторины в комнате %d пользователем %d: %v", roomID, userID, err)
			h.wsManager.SendErrorToClient(client, "start_error", err.Error())
		}
		return nil
	})

	h.wsManager.RegisterHandler(websocket.CLIENT_NEXT_QUESTION, func(data json.RawMessage, client *websocket.Client) error {
		roomID := client.GetRoomID()
		if roomID == 0 {
			h.wsManager.SendErrorToClient(client, "advance_error", "Not in a room")
			return nil
		}

		userID, err := parseClientUserID(client)
		if err != nil {
			return err
		}

		if err := h.coordinator.AdvanceQuestion(context.Background(), roomID, userID); err != nil {
			log.Printf("[WSHandler] Ошибка перехода к вопросу в комнате %d пользователем %d: %v", roomID, userID, err)
			h.wsManager.SendErrorToClient(client, "advance_error", err.Error())
		}
		return nil
	})

	h.wsManager.RegisterHandler(websocket.CLIENT_UPDATE_SETTING, func(data json.RawMessage, client *websocket.Client) error {
		var settingEvent struct {
			MaxPlayers   *int    `json:"max_players"`
			NumQuestions *int    `json:"num_questions"`
			TimeLimitSec *int    `json:"time_limit_sec"`
			Topic        *string `json:"topic"`
		}
		if err := json.Unmarshal(data, &settingEvent); err != nil {
			h.wsManager.SendErrorToClient(client, "invalid_format", "Failed to parse room:update_setting event")
			return fmt.Errorf("failed to parse room:update_setting event: %w", err)
		}

		roomID := client.GetRoomID()
		if roomID == 0 {
			h.wsManager.SendErrorToClient(client, "setting_error", "Not in a room")
			return nil
		}

		userID, err := parseClientUserID(client)
		if err != nil {
			return err
		}

		if _, err := h.roomService.UpdateSettings(context.Background(), roomID, userID, service.UpdateSettingsInput{
			MaxPlayers:   settingEvent.MaxPlayers,
			NumQuestions: settingEvent.NumQuestions,
			TimeLimitSec: settingEvent.TimeLimitSec,
			Topic:        settingEvent.Topic,
		}); err != nil {
			log.Printf("[WSHandler] Ошибка изменения настроек комнаты %d пользователем %d: %v", roomID, userID, err)
			h.wsManager.SendErrorToClient(client, "setting_error", err.Error())
		}
		return nil
	})
}

// parseClientUserID извлекает и парсит UserID из клиента
func parseClientUserID(client *websocket.Client) (uint, error) {
	userIDUint64, err := strconv.ParseUint(client.UserID, 10, 32)
	if err != nil {
		log.Printf("[WSHandler] CRITICAL: Ошибка конвертации UserID '%s' в uint: %v", client.UserID, err)
		return 0, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return uint(userIDUint64), nil
}
