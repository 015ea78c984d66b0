package bootstrap

import (
	"context"
	"log"

	"github.com/GeorgeShani/Learnyx-sub001/internal/config"
	"github.com/GeorgeShani/Learnyx-sub001/internal/controller"
	"github.com/GeorgeShani/Learnyx-sub001/internal/handler"
	"github.com/GeorgeShani/Learnyx-sub001/internal/pkg/logger"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/memory"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/unitofwork"
	"github.com/GeorgeShani/Learnyx-sub001/internal/service"
	"github.com/GeorgeShani/Learnyx-sub001/internal/websocket"
	"github.com/GeorgeShani/Learnyx-sub001/pkg/llm/factory"

	pkgNats "github.com/GeorgeShani/Learnyx-sub001/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSocket layer
	ChatHandler *handler.ChatHandler
	Gateway     *websocket.Gateway
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Assistant generation provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-memory presence tracking
	presenceRepo := memory.NewPresenceRepository()

	// 4. Infrastructure
	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.MessageSentTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.MessageSentTopic,
		natsPub,
	)

	conversationService := service.NewConversationService(uowFactory)
	chatService := service.NewChatService(
		conversationService,
		llmProvider,
		publisherService,
		presenceRepo,
		sysLogger,
	)

	// 6. WebSocket Gateway
	wsLogger := logger.NewIsolatedLogger(cfg.App.WSLogFilePath)
	gateway := websocket.NewGateway(chatService, presenceRepo, rdb, wsLogger)
	gateway.Run()

	chatHandler := handler.NewChatHandler(gateway, wsLogger)

	return &Container{
		ChatController:  controller.NewChatController(chatService),
		ConsumerService: consumerService,
		ChatHandler:     chatHandler,
		Gateway:         gateway,
	}
}
