package bootstrap

import (
	"context"
	"fmt"
	"log"

	"ai-casebrief-be/internal/config"
	"ai-casebrief-be/internal/controller"
	"ai-casebrief-be/internal/pkg/logger"
	"ai-casebrief-be/internal/pkg/mailer"
	"ai-casebrief-be/internal/pkg/serverutils"
	"ai-casebrief-be/internal/repository/contract"
	"ai-casebrief-be/internal/repository/lock"
	"ai-casebrief-be/internal/repository/memory"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/internal/service"
	"ai-casebrief-be/pkg/brief"
	"ai-casebrief-be/pkg/embedding"
	"ai-casebrief-be/pkg/llm/factory"
	"ai-casebrief-be/pkg/rag/dispatch"
	"ai-casebrief-be/pkg/rag/rerank"
	"ai-casebrief-be/pkg/rag/source"
	"ai-casebrief-be/pkg/rag/tools"

	pktNats "ai-casebrief-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	CaseController      controller.ICaseController
	KnowledgeController controller.IKnowledgeController
	AuthMiddleware      fiber.Handler

	// Background workers, started by main.go
	ConsumerService service.IConsumerService
	InboundService  service.IInboundService

	Logger  logger.ILogger
	closers []func()
}

// NewContainer wires the application. db may be nil when
// cfg.App.StorageDriver is "memory".
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	c := &Container{Logger: sysLogger}

	// 1. Storage
	var (
		uowFactory unitofwork.RepositoryFactory
		flightLock contract.FlightLock
	)
	switch cfg.App.StorageDriver {
	case "memory":
		uowFactory = memory.NewStore()
		flightLock = lock.NewMemoryLock()
		log.Printf("[INFO] Using storage driver: MEMORY (single process only)")
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("postgres storage driver requires a database connection")
		}
		uowFactory = unitofwork.NewRepositoryFactory(db)

		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		flightLock = lock.NewRedisLock(rdb, "casebrief:")
		log.Printf("[INFO] Using storage driver: POSTGRES")
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.App.StorageDriver)
	}

	// 2. Event transport
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Models
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Ai.EmbeddingProvider)
	}

	llmProvider, err := factory.NewLLMProvider(cfg.Ai)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Retrieval
	sources := []*source.Guarded{
		source.NewGuarded(
			source.NewInternalAdapter(embeddingProvider, uowFactory, cfg.Retrieval.SimilarityThreshold),
			source.GuardConfig{Timeout: cfg.Retrieval.InternalTimeout, MaxAttempts: uint(cfg.Retrieval.MaxAttempts)},
			sysLogger,
		),
	}
	if cfg.Retrieval.WebSearchURL != "" {
		sources = append(sources, source.NewGuarded(
			source.NewExternalAdapter(cfg.Retrieval.WebSearchURL, cfg.Retrieval.WebSearchKey, cfg.Retrieval.WebSearchRPS),
			source.GuardConfig{Timeout: cfg.Retrieval.ExternalTimeout, MaxAttempts: uint(cfg.Retrieval.MaxAttempts)},
			sysLogger,
		))
	} else {
		log.Printf("[WARN] WEB_SEARCH_URL not set, retrieval uses the internal knowledge base only")
	}
	reranker := rerank.NewReranker(rerank.FromAppConfig(cfg.Rerank, cfg.Retrieval.PerSourceLimit), sysLogger, sources...)

	// 5. Reasoning
	requiredFields := tools.DefaultRequiredFields()
	dispatcher, err := dispatch.NewDispatcher(
		llmProvider,
		tools.Handlers{
			FieldGaps: tools.NewFieldGapDetector(requiredFields),
			Tags:      tools.NewTagCatalog(uowFactory),
			Retrieve:  reranker,
		},
		dispatch.Config{
			MaxTurns:     cfg.Dispatcher.MaxTurns,
			ModelTimeout: cfg.Dispatcher.ModelTimeout,
			ToolTimeout:  cfg.Dispatcher.ToolTimeout,
		},
		sysLogger,
		auditLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}
	sessionRepo := memory.NewSessionRepository(cfg.Lifecycle.SessionTTL)

	// 6. Briefs
	audiences, err := brief.ParseAudiences(cfg.Brief.Audiences)
	if err != nil {
		return nil, fmt.Errorf("brief audiences: %w", err)
	}
	renderer, err := brief.NewFileRenderer(cfg.Brief.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("init brief renderer: %w", err)
	}
	pipeline := brief.NewPipeline(uowFactory, flightLock, renderer, brief.Config{
		Audiences:      audiences,
		RequiredFields: requiredFields,
		LockTTL:        cfg.Brief.LockTTL,
		WaitTimeout:    cfg.Brief.WaitTimeout,
		RenderTimeout:  cfg.Brief.RenderTimeout,
	}, sysLogger)

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
		)
	}

	// 7. Services
	briefQueue := service.NewPublisherService(cfg.App.BriefTopic, pubSub)
	knowledgeQueue := service.NewPublisherService(cfg.App.KnowledgeTopic, pubSub)
	notifier := service.NewReviewNotifier(eventPublisher)

	caseService := service.NewCaseService(uowFactory, dispatcher, sessionRepo, notifier, eventPublisher, cfg.Lifecycle, sysLogger)
	actionService := service.NewActionService(
		uowFactory,
		service.NewQueuedBriefRequester(briefQueue),
		notifier,
		eventPublisher,
		cfg.Lifecycle,
		sysLogger,
	)
	briefService := service.NewBriefService(uowFactory, pipeline, emailService, eventPublisher, cfg.Brief, sysLogger)
	knowledgeService := service.NewKnowledgeService(uowFactory, knowledgeQueue, embeddingProvider, sysLogger)

	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.App.BriefTopic,
		cfg.App.KnowledgeTopic,
		briefService,
		knowledgeService,
		sysLogger,
	)
	if natsSub != nil {
		c.InboundService = service.NewInboundService(natsSub, caseService, actionService, sysLogger)
	}

	// 8. Controllers
	c.CaseController = controller.NewCaseController(caseService, actionService, briefService)
	c.KnowledgeController = controller.NewKnowledgeController(knowledgeService)
	c.AuthMiddleware = serverutils.NewJwtMiddleware(cfg.App.JWTSecret)

	return c, nil
}

// Close releases transport connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
