package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"sona/internal/database"
	"sona/internal/features"
	"sona/internal/handler"
	"sona/internal/repo"
	"sona/internal/service"
	ext "sona/internal/utils/extractor"
	"sona/pkg/blob"
	rabbit "sona/pkg/rabbit/pkg"
	redis "sona/pkg/redis/pkg"
)

func startHTTP(logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.Connect(ctx, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	var repository *repo.Repository
	if pool != nil {
		defer pool.Close()
		repository = repo.NewPostgres(pool)
	} else {
		repository = repo.NewMemory()
	}

	llm, err := service.NewOpenAIClient(logger)
	if err != nil {
		logger.Fatal("Failed to initialize LLM client", zap.Error(err))
	}
	scraper := service.NewFirecrawlClient(logger)
	storage := blob.New(logger)
	broker := rabbit.New(logger)
	cache := redis.New(logger)

	scrapePool := features.NewScrapeWorkerPool(scraper, logger,
		viper.GetInt("scraper.workers"),
		viper.GetInt("scraper.queue_depth"),
		viper.GetInt("scraper.max_task_wait"))
	scrapePool.Start()
	defer scrapePool.Stop()

	evaluator := features.NewEvaluator(llm, logger)
	followUp := features.NewFollowUpGenerator(llm, evaluator, logger)
	generator := features.NewQuestionGenerator(llm, logger)

	agents := features.NewAgent(repository, cache, logger)
	knowledge := features.NewKnowledge(repository, scraper, scrapePool, storage, logger)
	questions := features.NewQuestion(repository, knowledge, generator, logger)
	sessions := features.NewSession(repository, evaluator, followUp, broker, storage, logger)

	sweeper := features.NewSweeper(repository, sessions, logger)
	sweeper.Start(ctx)

	h := handler.New(agents, questions, knowledge, sessions, logger)
	router := handler.Setup(h, ext.New(), logger)

	port := viper.GetString("server.port")
	if port == "" {
		port = "8080"
	}
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("HTTP server stopped")
}
