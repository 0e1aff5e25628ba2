package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"coaching-messenger/config"
	"coaching-messenger/internal/handler"
	"coaching-messenger/internal/outbox"
	"coaching-messenger/internal/proxy"
	redisstore "coaching-messenger/internal/redis"
	"coaching-messenger/internal/repository"
	"coaching-messenger/internal/server"
	"coaching-messenger/internal/services"
	"coaching-messenger/internal/storage"
	"coaching-messenger/internal/websocket"
	"coaching-messenger/pkg/database"
	"coaching-messenger/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(log)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := redisstore.Connect(ctx, redisstore.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	objectStore, err := newObjectStore(ctx, cfg)
	if err != nil {
		log.Logger.Fatal("failed to configure object storage", zap.Error(err))
	}

	// Repositories
	tx := repository.NewTransactor(db)
	convRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	userRepo := repository.NewUserRepository(db)
	typingRepo := newTypingRepository(cfg, db, redisClient, log)

	// Services
	profileCache := redisstore.NewCacheStore(redisClient, redisstore.CacheConfig{ProfileTTL: cfg.ProfileCacheTTL})
	directory := services.NewCachedDirectory(userRepo, profileCache, log)
	access := proxy.NewAccessPolicy(directory, userRepo, convRepo, log)
	publisher := redisstore.NewPublisher(redisClient)

	authService := services.NewAuthService(cfg)
	conversationService := services.NewConversationService(tx, convRepo, outboxRepo, access, directory, log)
	readService := services.NewReadService(tx, convRepo, outboxRepo, access)
	typingService := services.NewTypingService(typingRepo, access, directory, publisher, log)
	attachmentService := services.NewAttachmentService(attachmentRepo, messageRepo, access, objectStore, log)
	messageService := services.NewMessageService(services.MessageServiceDeps{
		Tx:          tx,
		Messages:    messageRepo,
		Convs:       convRepo,
		Reactions:   reactionRepo,
		Attachments: attachmentRepo,
		Outbox:      outboxRepo,
		Access:      access,
		Linker:      attachmentService,
		Typing:      typingService,
		Log:         log,
	})
	reactionService := services.NewReactionService(tx, reactionRepo, messageRepo, outboxRepo, access)

	// Background workers
	outboxRunner := outbox.NewRunner(outbox.NewProcessor(outboxRepo, publisher, log,
		cfg.OutboxBatchSize, cfg.OutboxInterval, cfg.OutboxMaxRetries))
	outboxRunner.Start(ctx)
	go services.NewTypingSweeper(typingService, cfg.TypingSweepInterval, log).Run(ctx)

	hub := websocket.NewHub()
	bridge := websocket.NewRedisBridge(redisstore.NewSubscriber(redisClient), hub, log)
	go runBridge(ctx, bridge, log)

	// HTTP
	limiter := redisstore.NewRateLimiter(redisClient, redisstore.RateLimitConfig{
		MessageLimit:  cfg.MessageRateLimit,
		MessageWindow: cfg.MessageRateWindow,
		TypingLimit:   cfg.TypingRateLimit,
		TypingWindow:  cfg.TypingRateWindow,
	})

	srv := server.New(cfg, log)
	srv.SetupRoutes(&server.Handlers{
		Conversations: handler.NewConversationHandler(conversationService, readService),
		Messages:      handler.NewMessageHandler(messageService, attachmentService),
		Reactions:     handler.NewReactionHandler(reactionService),
		Typing:        handler.NewTypingHandler(typingService),
		Stream: websocket.NewHandler(authService, websocket.NewChannelAuthorizer(access), hub,
			cfg.CORSOrigins, log),
	}, server.Deps{
		Auth:    authService,
		Limiter: limiter,
		Health: []func(ctx context.Context) error{
			func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
			profileCache.Ping,
		},
	})

	if err := srv.Start(func() {
		cancel()
		hub.Shutdown()
	}); err != nil {
		log.Logger.Error("server stopped with error", zap.Error(err))
	}
	cancel()

	select {
	case <-outboxRunner.Done():
	case <-time.After(5 * time.Second):
		log.Logger.Warn("outbox runner did not stop in time")
	}
}

func newTypingRepository(cfg *config.Config, db *sql.DB, client *goredis.Client, log *logger.Logger) repository.TypingRepository {
	if cfg.TypingBackend == "redis" {
		log.Infof("typing indicators stored in redis")
		return redisstore.NewTypingStore(client)
	}
	return repository.NewTypingRepository(db)
}

// newObjectStore returns a nil store when no bucket is configured; storage
// keys then cannot be resolved and attachments must carry URLs.
func newObjectStore(ctx context.Context, cfg *config.Config) (services.ObjectStore, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}
	client, err := storage.NewClient(ctx, storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PublicBase: cfg.S3PublicBase,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// runBridge resubscribes after connection failures until ctx ends.
func runBridge(ctx context.Context, bridge *websocket.RedisBridge, log *logger.Logger) {
	backoff := time.Second
	for {
		err := bridge.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Logger.Warn("event bridge disconnected", zap.Error(err), zap.Duration("retry_in", backoff))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
