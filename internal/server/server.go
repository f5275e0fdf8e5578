package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/presence"
)

// Server Fiber 서버 래퍼
type Server struct {
	app                *fiber.App
	cfg                *config.Config
	hub                *handler.RoomHub
	whiteboardHandler  *handler.WhiteboardHandler
	commentHandler     *handler.CommentHandler
	chatHandler        *handler.ChatHandler
	healthHandler      *handler.HealthHandler
	whiteboardWS       *handler.WhiteboardWSHandler
	jwtManager         *auth.JWTManager
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB, redisClient *cache.RedisClient) *Server {
	app := fiber.New(fiber.Config{
		AppName:       "Whiteboard Sync Service",
		ServerHeader:  "Fiber",
		StrictRouting: false,
		CaseSensitive: true,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		Prefork:       false, // WebSocket과 호환성 문제로 비활성화
	})

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret)
	hub := handler.NewRoomHub()
	tracker := presence.NewTracker()

	return &Server{
		app:               app,
		cfg:               cfg,
		hub:               hub,
		whiteboardHandler: handler.NewWhiteboardHandler(db),
		commentHandler:    handler.NewCommentHandler(db, hub),
		chatHandler:       handler.NewChatHandler(redisClient),
		healthHandler:     handler.NewHealthHandler(db),
		whiteboardWS:      handler.NewWhiteboardWSHandler(db, hub, tracker, redisClient),
		jwtManager:        jwtManager,
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)

	// Whiteboard 라우트 그룹 (인증 필요)
	boards := s.app.Group("/whiteboards", auth.AuthMiddleware(s.jwtManager))
	boards.Get("", s.whiteboardHandler.ListWhiteboards)
	boards.Post("", s.whiteboardHandler.CreateWhiteboard)
	boards.Patch("/:id", s.whiteboardHandler.RenameWhiteboard)
	boards.Delete("/:id", s.whiteboardHandler.DeleteWhiteboard)
	boards.Get("/:id/comments", s.commentHandler.ListComments)
	boards.Post("/:id/comments", s.commentHandler.CreateComment)
	boards.Delete("/:id/comments/:commentId", s.commentHandler.DeleteComment)
	boards.Get("/:id/chat", s.chatHandler.GetChatHistory)

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// 화이트보드 실시간 엔드포인트. 토큰이 없으면 게스트로 접속하고,
	// 토큰이 잘못된 경우에는 연결 자체를 거부한다.
	s.app.Get("/ws/whiteboard", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query("token")
		if token != "" {
			claims, err := s.jwtManager.Validate(token)
			if err != nil {
				return c.SendStatus(fiber.StatusUnauthorized)
			}
			c.Locals("claims", claims)
		}

		return c.Next()
	}, websocket.New(s.whiteboardWS.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Whiteboard sync service starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/whiteboard", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
