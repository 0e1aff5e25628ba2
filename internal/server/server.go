package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coaching-messenger/config"
	"coaching-messenger/internal/handler"
	"coaching-messenger/internal/middleware"
	"coaching-messenger/internal/transport/httpdto"
	"coaching-messenger/internal/websocket"
	"coaching-messenger/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Conversations *handler.ConversationHandler
	Messages      *handler.MessageHandler
	Reactions     *handler.ReactionHandler
	Typing        *handler.TypingHandler
	Stream        *websocket.Handler
}

// Deps are the cross-cutting collaborators the routes need.
type Deps struct {
	Auth    middleware.TokenVerifier
	Limiter middleware.Limiter
	// Health checks run in order; the first failure makes /health unhealthy.
	Health []func(ctx context.Context) error
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(h *Handlers, deps Deps) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		for _, check := range deps.Health {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	// The token rides in the query string, so the stream sits outside the auth group.
	if h.Stream != nil {
		s.engine.GET("/v1/ws", h.Stream.Connect)
	}

	v1 := s.engine.Group("/v1", middleware.AuthMiddleware(deps.Auth))
	messageLimit := middleware.MessageRateLimitMiddleware(deps.Limiter)
	typingLimit := middleware.TypingRateLimitMiddleware(deps.Limiter)
	idempotent := middleware.Idempotent()

	v1.GET("/unread", idempotent, h.Conversations.TotalUnread)

	conversations := v1.Group("/conversations")
	{
		conversations.POST("/direct", idempotent, h.Conversations.CreateDirect)
		conversations.POST("/group", h.Conversations.CreateGroup)
		conversations.GET("", idempotent, h.Conversations.List)
		conversations.GET("/:id", idempotent, h.Conversations.GetByID)
		conversations.PATCH("/:id", h.Conversations.Update)
		conversations.PATCH("/:id/settings", idempotent, h.Conversations.UpdateSettings)
		conversations.POST("/:id/participants", h.Conversations.AddParticipant)
		conversations.POST("/:id/leave", idempotent, h.Conversations.Leave)
		conversations.POST("/:id/read", idempotent, h.Conversations.MarkRead)
		conversations.GET("/:id/unread", idempotent, h.Conversations.Unread)

		conversations.GET("/:id/messages", idempotent, h.Messages.List)
		conversations.GET("/:id/messages/count", idempotent, h.Messages.Count)
		conversations.POST("/:id/messages", messageLimit, h.Messages.Send)

		conversations.POST("/:id/typing", typingLimit, idempotent, h.Typing.Start)
		conversations.DELETE("/:id/typing", idempotent, h.Typing.Stop)
		conversations.GET("/:id/typing", idempotent, h.Typing.List)
	}

	messages := v1.Group("/messages")
	{
		messages.GET("/:id", idempotent, h.Messages.GetByID)
		messages.GET("/:id/attachments", idempotent, h.Messages.Attachments)
		messages.GET("/:id/reactions", idempotent, h.Reactions.List)
		messages.POST("/:id/reactions", h.Reactions.Add)
		messages.DELETE("/:id/reactions", idempotent, h.Reactions.Remove)
	}
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests.
// onShutdown runs after the listener stops accepting and before draining.
func (s *Server) Start(onShutdown func()) error {
	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		if s.logger != nil {
			s.logger.Errorf("Error in starting the server: %s", err)
		}
		return err
	case <-quit:
	}

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down")
	}
	if onShutdown != nil {
		onShutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
