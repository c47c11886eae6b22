package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/agdesk/agdesk/internal/ai"
	"github.com/agdesk/agdesk/internal/config"
	"github.com/agdesk/agdesk/internal/embedding"
	"github.com/agdesk/agdesk/internal/filestore"
	"github.com/agdesk/agdesk/internal/handler"
	"github.com/agdesk/agdesk/internal/ingest"
	"github.com/agdesk/agdesk/internal/job"
	"github.com/agdesk/agdesk/internal/middleware"
	"github.com/agdesk/agdesk/internal/quota"
	"github.com/agdesk/agdesk/internal/rag"
	"github.com/agdesk/agdesk/internal/repo"
	"github.com/agdesk/agdesk/internal/schedule"
	"github.com/agdesk/agdesk/internal/service"
	"github.com/agdesk/agdesk/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "agdesk",
		Short: "agdesk backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run agdesk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildQueryEmbedder(cfgs []config.ProviderConfig) (ai.IEmbedder, error) {
	entries := make([]ai.EmbedderEntry, 0, len(cfgs))
	for _, pc := range cfgs {
		provider, err := ai.NewEmbedProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init query embedder %s: %w", pc.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     pc.Provider,
			Embedder: ai.NewEmbedder(provider, pc.Model),
		})
	}
	return ai.NewGroupEmbedder(entries), nil
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_path", cfg.DBPath),
		zap.String("file_store", cfg.FileStore.Type),
	)

	jobRepo := repo.NewIngestJobRepo(db)
	branchRepo := repo.NewBranchRepo(db)
	historyRepo := repo.NewChatHistoryRepo(db)

	store := vectorstore.New(cfg.VectorStore.URL, cfg.VectorStore.Token, &http.Client{Timeout: 30 * time.Second})

	ingestProvider, err := ai.NewEmbedProvider(cfg.AI.IngestEmbedder.Provider, cfg.AI.IngestEmbedder.Data)
	if err != nil {
		return fmt.Errorf("init ingest embedder: %w", err)
	}
	ingestAdapter := embedding.NewAdapter(
		ai.NewEmbedder(ingestProvider, cfg.AI.IngestEmbedder.Model),
		embedding.WithDimension(cfg.VectorStore.Dimension),
	)
	queryEmbedder, err := buildQueryEmbedder(cfg.AI.QueryEmbedders)
	if err != nil {
		return err
	}
	queryAdapter := embedding.NewAdapter(queryEmbedder, embedding.WithDimension(cfg.VectorStore.Dimension))

	completionProvider, err := ai.NewCompletionProvider(cfg.AI.Completion.Provider, cfg.AI.Completion.Data)
	if err != nil {
		return fmt.Errorf("init completion provider: %w", err)
	}
	completer := ai.NewCompleter(completionProvider, cfg.AI.Completion.Model)

	files, err := filestore.New(cfg.FileStore.Type, cfg.FileStore.Data)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	chunkDelay := time.Duration(cfg.Ingest.ChunkDelaySeconds) * time.Second
	pacer := rate.NewLimiter(rate.Every(chunkDelay), 1)
	pipeline := ingest.NewPipeline(ingestAdapter, store, pacer)

	retriever := rag.NewRetriever(queryAdapter, store)
	ledger := quota.NewVectorLedger(store)

	ingestService := service.NewIngestService(jobRepo, files, pipeline)
	chatService := service.NewChatService(ledger, retriever, completer, cfg.Quota.DailyLimit)
	branchService := service.NewBranchService(branchRepo)
	historyService := service.NewChatHistoryService(historyRepo)

	deps := handler.RouterDeps{
		Chat:        handler.NewChatHandler(chatService),
		Documents:   handler.NewDocumentHandler(ingestService, cfg.Ingest.MaxUploadBytes),
		Branches:    handler.NewBranchHandler(branchService),
		ChatHistory: handler.NewChatHistoryHandler(historyService),
		JWTSecret:   []byte(cfg.JWTSecret),
	}

	extraMiddlewares := []gin.HandlerFunc{
		middleware.CORS(cfg.CORSOrigins),
		gzip.Gzip(gzip.DefaultCompression),
	}
	if cfg.RateLimitSeconds > 0 {
		extraMiddlewares = append(extraMiddlewares, middleware.RateLimit(time.Duration(cfg.RateLimitSeconds)*time.Second))
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(extraMiddlewares...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewIngestWorkerJob(ingestService), cfg.Ingest.WorkerSpec); err != nil {
		return fmt.Errorf("schedule ingest worker: %w", err)
	}
	if err := scheduler.AddJob(job.NewIngestCleanupJob(jobRepo, 7*24*time.Hour), cfg.Ingest.CleanupSpec); err != nil {
		return fmt.Errorf("schedule ingest cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
