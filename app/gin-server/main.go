package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/niagahub/niagabot/config"
	"github.com/niagahub/niagabot/internal/api/handlers"
	"github.com/niagahub/niagabot/internal/api/routes"
	"github.com/niagahub/niagabot/internal/cache"
	"github.com/niagahub/niagabot/internal/logger"
	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/providers/embedding"
	"github.com/niagahub/niagabot/internal/providers/llm"
	"github.com/niagahub/niagabot/internal/providers/stt"
	mongorepo "github.com/niagahub/niagabot/internal/repositories/mongo"
	pgrepo "github.com/niagahub/niagabot/internal/repositories/postgres"
	"github.com/niagahub/niagabot/internal/services"
	"github.com/niagahub/niagabot/internal/storage"
	"github.com/niagahub/niagabot/internal/workers"
)

func main() {
	_ = godotenv.Load()

	lg := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Datastores
	pg, err := config.InitPostgres()
	if err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	lg.Info("PostgreSQL connected")

	if err := pg.AutoMigrate(
		&models.Tenant{},
		&models.Contact{},
		&models.KnowledgeItem{},
		&models.SopState{},
		&models.FollowUp{},
	); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}

	mongoClient, err := config.InitMongo()
	if err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := config.MongoDatabase(mongoClient)
	if err := config.EnsureMongoIndexes(mongoDB); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	lg.Info("MongoDB connected")

	rdb, err := config.InitRedis()
	if err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	lg.Info("Redis connected")
	redisCache := cache.NewRedisCache(rdb)

	// Repositories
	tenantRepo := pgrepo.NewTenantRepo(pg)
	contactRepo := pgrepo.NewContactRepo(pg)
	knowledgeRepo := pgrepo.NewKnowledgeRepo(pg)
	sopStateRepo := pgrepo.NewSopStateRepo(pg)
	followUpRepo := pgrepo.NewFollowUpRepo(pg)
	messageRepo := mongorepo.NewMessageRepo(mongoDB)

	// Providers
	llmProvider, err := llm.NewVertexGemini(ctx,
		os.Getenv("GCP_PROJECT_ID"),
		os.Getenv("GCP_LOCATION"),
		os.Getenv("GEMINI_MODEL"),
	)
	if err != nil {
		log.Fatalf("Vertex AI init error: %v", err)
	}
	defer llmProvider.Close()

	embedder := embedding.NewOpenAIEmbedder(
		os.Getenv("OPENAI_API_KEY"),
		os.Getenv("EMBEDDING_MODEL"),
	)

	var transcriber stt.Provider
	if speech, err := stt.NewGoogleSpeech(ctx); err != nil {
		lg.WithError(err).Warn("Speech-to-Text unavailable; voice notes disabled")
	} else {
		transcriber = speech
		defer speech.Close()
	}

	var uploader storage.Uploader
	var signer storage.Signer
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		gcs, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		uploader = gcs
		signer = gcs
		defer gcs.Close()
	} else {
		lg.Warn("GCS_BUCKET not set; raw source archiving disabled")
	}

	// Services
	onEmbedFailure := services.EmbedFailureFail
	if os.Getenv("EMBED_FAILURE_MODE") == "zero" {
		onEmbedFailure = services.EmbedFailureZero
	}

	machine := services.NewSopStateMachine()
	composer := services.NewPromptComposer()
	segmenter := services.NewResponseSegmenter()

	tenantSvc := services.NewTenantService(tenantRepo, redisCache)
	retrieval := services.NewRetrievalEngine(embedder, knowledgeRepo, onEmbedFailure, lg)
	sopStateSvc := services.NewSopStateService(sopStateRepo, machine)
	contactSvc := services.NewContactService(contactRepo, sopStateRepo, messageRepo, lg)
	orchestrator := services.NewOrchestrator(llmProvider, retrieval, sopStateSvc, machine, composer, segmenter, lg)
	chatSvc := services.NewChatService(tenantSvc, orchestrator, contactSvc, transcriber, lg)
	followUpSvc := services.NewFollowUpService(followUpRepo)
	ingest := services.NewIngestService()

	// Follow-up dispatcher
	worker := &workers.FollowUpWorker{
		Followups:  followUpRepo,
		Locker:     redisCache,
		Dispatcher: &workers.LogDispatcher{Logger: lg},
		Logger:     lg,
	}
	if err := worker.Start(ctx); err != nil {
		log.Fatalf("follow-up worker error: %v", err)
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Tenants:  tenantSvc,
		Logger:   lg,
		Chat:     handlers.NewChatHandler(chatSvc),
		KB:       handlers.NewKBHandler(retrieval, ingest, knowledgeRepo, uploader, signer, lg),
		Sop:      handlers.NewSopHandler(sopStateSvc),
		Tenant:   handlers.NewTenantHandler(tenantSvc),
		Contact:  handlers.NewContactHandler(contactSvc),
		FollowUp: handlers.NewFollowUpHandler(followUpSvc),
		WS:       handlers.NewWSHandler(chatSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
