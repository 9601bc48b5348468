package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dalia-manager/config"
	"dalia-manager/internal/api"
	"dalia-manager/internal/broker"
	"dalia-manager/internal/redisclient"
	"dalia-manager/internal/service"
	"dalia-manager/internal/store"
	"dalia-manager/internal/token"
	"dalia-manager/internal/util"
	"dalia-manager/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting dalia-manager")

	tp, err := util.InitTracer("dalia-manager", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)
	tokens := token.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	documents := service.NewHTTPDocumentGenerator(cfg.Documents.BaseURL, cfg.Documents.Timeout)

	ledger := service.NewInventoryLedger(db, redisClient, eventPublisher)
	suitcaseService := service.NewSuitcaseService(db, ledger, eventPublisher)
	settlementService := service.NewSettlementService(
		db, redisClient, ledger, eventPublisher,
		cfg.Business.DefaultCommissionRate, cfg.Business.SettlementLockTTL)
	suggestionService := service.NewSuggestionService(
		db, redisClient, cfg.Business.SuggestionWindowDays, cfg.Business.SuggestionCacheTTL)
	partnerService := service.NewPartnerService(db)
	authService := service.NewAuthService(db, tokens)

	ctx := context.Background()
	if err := ledger.SyncMirror(ctx); err != nil {
		log.Printf("Failed to sync inventory mirror: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	receiptConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
	receiptWorker := worker.NewReceiptWorker(receiptConsumer, db, documents)
	go func() {
		if err := receiptWorker.Start(workerCtx); err != nil {
			log.Printf("Receipt worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(
		authService, ledger, suitcaseService, settlementService,
		suggestionService, partnerService, documents, api.AuthMiddleware(tokens))
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	receiptWorker.Stop()

	log.Println("Server exited")
}
