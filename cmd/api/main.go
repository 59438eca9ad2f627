package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/intelliq-api/internal/config"
	"github.com/yourusername/intelliq-api/internal/handler"
	"github.com/yourusername/intelliq-api/internal/middleware"
	pgRepo "github.com/yourusername/intelliq-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/intelliq-api/internal/repository/redis"
	"github.com/yourusername/intelliq-api/internal/service"
	"github.com/yourusername/intelliq-api/internal/service/roommanager"
	ws "github.com/yourusername/intelliq-api/internal/websocket"
	"github.com/yourusername/intelliq-api/pkg/auth"
	"github.com/yourusername/intelliq-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	roomRepo := pgRepo.NewRoomRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	submissionRepo := pgRepo.NewSubmissionRepo(db)
	userResponseRepo := pgRepo.NewUserResponseRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT сервис
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, cfg.JWT.WSTicketExpirySec)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализация WebSocket Hub
	wsHub := ws.NewHub()

	// Relay для горизонтального масштабирования через Redis pub/sub
	if cfg.WebSocket.Cluster.Enabled {
		log.Println("WebSocket: включен кластерный режим")
		pubSub, err := ws.NewRedisPubSub(redisClient)
		if err != nil {
			log.Printf("Failed to initialize Redis PubSub: %v", err)
			os.Exit(1)
		}
		relay := ws.NewClusterRelay(wsHub, cfg.WebSocket.Cluster, pubSub)
		wsHub.SetClusterRelay(relay)
		if err := relay.Start(); err != nil {
			log.Printf("Failed to start cluster relay: %v", err)
			os.Exit(1)
		}
		defer relay.Stop()
	}

	wsManager := ws.NewManager(wsHub)
	go wsHub.Run()

	// Инициализируем менеджер комнат
	rmConfig := roommanager.DefaultConfig()
	rmDeps := &roommanager.Dependencies{
		RoomRepo:       roomRepo,
		QuizRepo:       quizRepo,
		SubmissionRepo: submissionRepo,
		UserRepo:       userRepo,
		CacheRepo:      cacheRepo,
		Broadcaster:    wsManager,
	}
	presence := roommanager.NewPresenceManager(rmConfig, rmDeps)
	coordinator := roommanager.NewCoordinator(rmConfig, rmDeps, presence)

	// Инициализируем сервисы
	authService := service.NewAuthService(userRepo, jwtService)
	roomService := service.NewRoomService(roomRepo, presence, wsManager, cfg.Room)
	quizService := service.NewQuizService(quizRepo, questionRepo, roomRepo, cfg.Room)
	submissionService := service.NewSubmissionService(db, submissionRepo, userResponseRepo, roomRepo, quizRepo, questionRepo, cacheRepo)
	leaderboardService := service.NewLeaderboardService(submissionRepo, roomRepo, cacheRepo, cfg.Room)

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	roomHandler := handler.NewRoomHandler(roomService, presence, coordinator)
	quizHandler := handler.NewQuizHandler(quizService)
	submissionHandler := handler.NewSubmissionHandler(submissionService, leaderboardService)
	wsHandler := handler.NewWSHandler(wsHub, wsManager, presence, coordinator, roomService, authService, jwtService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		// Production: не доверять прокси-заголовкам
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Register)
			authGroup.POST("/login", rateLimiter.Limit(middleware.StrictAuthRateLimitConfig()), authHandler.Login)

			authedAuth := authGroup.Group("/")
			authedAuth.Use(authMiddleware.RequireAuth())
			{
				authedAuth.POST("/ws-ticket", rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()), authHandler.GetWSTicket)
			}
		}

		// Пользователи
		users := api.Group("/users")
		users.Use(authMiddleware.RequireAuth())
		{
			users.GET("/me", authHandler.GetMe)
			users.PATCH("/me", authHandler.UpdateMe)
			users.GET("/me/responses", submissionHandler.GetMyResponses)
		}

		// Комнаты
		rooms := api.Group("/rooms")
		rooms.Use(authMiddleware.RequireAuth())
		{
			rooms.POST("", roomHandler.CreateRoom)

			// Маршруты по короткому коду комнаты
			rooms.GET("/code/:code", roomHandler.GetRoomByCode)
			rooms.POST("/code/:code/submissions",
				rateLimiter.Limit(middleware.SubmissionRateLimitConfig()),
				submissionHandler.SubmitAnswer)

			// Маршруты по числовому идентификатору комнаты
			roomWithID := rooms.Group("/:roomId")
			roomWithID.Use(middleware.ExtractUintParam("roomId", "roomID"))
			{
				roomWithID.PATCH("/settings", roomHandler.UpdateSettings)
				roomWithID.GET("/state", roomHandler.GetRoomState)
				roomWithID.POST("/quiz", quizHandler.CreateQuiz)
				roomWithID.GET("/quiz", quizHandler.GetQuiz)
				roomWithID.GET("/questions", quizHandler.GetQuestions)
				roomWithID.GET("/submissions/me", submissionHandler.GetMySubmission)
				roomWithID.GET("/leaderboard", submissionHandler.GetLeaderboard)
				roomWithID.GET("/leaderboard/export", submissionHandler.ExportLeaderboard)
			}
		}

		// Одиночный режим
		quizzes := api.Group("/quizzes")
		quizzes.Use(authMiddleware.RequireAuth())
		{
			quizWithID := quizzes.Group("/:quizId")
			quizWithID.Use(middleware.ExtractUintParam("quizId", "quizID"))
			{
				quizWithID.POST("/responses", submissionHandler.SubmitSingleResponse)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	wsHub.Shutdown()

	// Graceful shutdown сервера с таймаутом
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
