package websocket

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Серверные события комнаты
const (
	// ROOM_PRESENCE_SYNC - полный снимок участников комнаты
	ROOM_PRESENCE_SYNC = "room:presence_sync"

	// ROOM_PLAYER_JOINED сообщает о новом участнике
	ROOM_PLAYER_JOINED = "room:player_joined"

	// ROOM_PLAYER_LEFT сообщает о выходе участника
	ROOM_PLAYER_LEFT = "room:player_left"

	// ROOM_QUIZ_STARTED сообщает о старте квиза комнаты
	ROOM_QUIZ_STARTED = "room:quiz_started"

	// ROOM_NEXT_QUESTION сообщает о переходе к следующему вопросу
	ROOM_NEXT_QUESTION = "room:next_question"

	// ROOM_QUIZ_FINISHED сообщает о завершении квиза
	ROOM_QUIZ_FINISHED = "room:quiz_finished"

	// ROOM_SETTINGS_UPDATE сообщает об изменении настроек комнаты
	ROOM_SETTINGS_UPDATE = "room:settings_update"

	// ROOM_CHANGE_MAX_PLAYERS сообщает об изменении лимита игроков
	ROOM_CHANGE_MAX_PLAYERS = "room:change_amount_of_players"

	// SERVER_ERROR - стандартизированное сообщение об ошибке
	SERVER_ERROR = "server:error"
)

// Клиентские события (входящие от игроков)
const (
	// CLIENT_JOIN_ROOM - запрос на вход в комнату по коду
	CLIENT_JOIN_ROOM = "room:join"

	// CLIENT_LEAVE_ROOM - выход из комнаты
	CLIENT_LEAVE_ROOM = "room:leave"

	// CLIENT_START_QUIZ - старт квиза (только лидер)
	CLIENT_START_QUIZ = "room:start_quiz"

	// CLIENT_NEXT_QUESTION - переход к следующему вопросу (только лидер)
	CLIENT_NEXT_QUESTION = "room:next_question"

	// CLIENT_UPDATE_SETTING - изменение настройки комнаты (только лидер)
	CLIENT_UPDATE_SETTING = "room:update_setting"
)
