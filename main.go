package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"limora/config"
	"limora/cron"
	"limora/database"
	providerRepoPkg "limora/database/repository/provider"
	quoteRepoPkg "limora/database/repository/quote"
	requestRepoPkg "limora/database/repository/request"
	workflowRepoPkg "limora/database/repository/workflow"
	"limora/handlers"
	"limora/routes"
	ai "limora/services/intelligence"
	"limora/services/intent"
	"limora/services/matching"
	"limora/services/notification"
	"limora/services/scoring"
	"limora/services/workflow"
	"limora/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()

	// repositories.
	provRepo := providerRepoPkg.NewMongoProviderRepo()
	requestRepo := requestRepoPkg.NewMongoBookingRequestRepo()
	quoteRepo := quoteRepoPkg.NewMongoQuoteRepo()
	runRepo := workflowRepoPkg.NewMongoWorkflowRepo()

	// AI collaborator. The workflow degrades to deterministic fallbacks when
	// no API key is configured.
	var generator ai.ContentGenerator
	if config.AppConfig.GeminiAPIKey != "" {
		client, err := ai.NewGeminiClient(config.AppConfig.GeminiAPIKey)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Gemini client: %v", err)
		}
		generator = client
	} else {
		logger.Sugar().Warn("main: no Gemini API key configured, AI paths disabled")
	}

	// services.
	matchingService := &matching.DefaultMatchingService{
		ProviderRepo: provRepo,
	}
	pushService := &notification.DefaultPushService{
		Providers: provRepo,
	}
	dispatcher := &notification.Dispatcher{
		Matcher:      matchingService,
		Push:         pushService,
		MaxProviders: config.AppConfig.WorkflowMaxProviders,
		Logger:       logger,
	}
	aggregator := &scoring.DefaultAggregator{
		Scorer: &scoring.GeminiScorer{Client: generator, Logger: logger},
		Logger: logger,
	}
	classifier := &intent.GeminiClassifier{Client: generator, Logger: logger}
	analyzer := &ai.GeminiRequestAnalyzer{Client: generator, Logger: logger}

	eventSource := &workflow.RedisEventSource{Client: utils.GetEventBusClient()}
	responseChecker := &workflow.CachedResponseChecker{
		Cache:  utils.GetResponseCacheClient(),
		Quotes: quoteRepo,
	}
	clock := workflow.RealClock{}

	orchestrator := &workflow.Orchestrator{
		Tracker:       &workflow.MongoStepTracker{Repo: runRepo, Clock: clock},
		Requests:      requestRepo,
		Analyzer:      analyzer,
		Providers:     dispatcher,
		Responses:     responseChecker,
		Quotes:        &workflow.RepoQuoteSource{Repo: quoteRepo},
		Aggregator:    aggregator,
		Classifier:    classifier,
		Confirmations: dispatcher,
		Events:        eventSource,
		Clock:         clock,
		Settings: workflow.Settings{
			ResponseTimeout:  time.Duration(config.AppConfig.WorkflowResponseTimeoutMin) * time.Minute,
			CheckInterval:    time.Duration(config.AppConfig.WorkflowCheckIntervalMin) * time.Minute,
			MinResponses:     config.AppConfig.WorkflowMinResponses,
			MinProviders:     config.AppConfig.WorkflowMinProviders,
			MaxProviders:     config.AppConfig.WorkflowMaxProviders,
			SelectionTimeout: time.Duration(config.AppConfig.WorkflowSelectionTimeoutMin) * time.Minute,
		},
		Logger: logger,
	}

	// Background fulfillment worker.
	cron.InitFulfillmentWorker(orchestrator)

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	})
	defer taskClient.Close()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	handlerBundle := &handlers.HandlerBundle{
		Requests:   requestRepo,
		Quotes:     quoteRepo,
		Workflows:  runRepo,
		Events:     eventSource,
		Cache:      utils.GetResponseCacheClient(),
		TaskClient: taskClient,
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
