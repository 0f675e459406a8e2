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

	"github.com/vitaldash/vitaldash/internal/ai"
	"github.com/vitaldash/vitaldash/internal/config"
	"github.com/vitaldash/vitaldash/internal/db"
	"github.com/vitaldash/vitaldash/internal/embedcache"
	"github.com/vitaldash/vitaldash/internal/filestore"
	"github.com/vitaldash/vitaldash/internal/handler"
	"github.com/vitaldash/vitaldash/internal/job"
	"github.com/vitaldash/vitaldash/internal/middleware"
	"github.com/vitaldash/vitaldash/internal/rag"
	"github.com/vitaldash/vitaldash/internal/repo"
	"github.com/vitaldash/vitaldash/internal/schedule"
	"github.com/vitaldash/vitaldash/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "vitaldash",
		Short: "vitaldash backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run vitaldash server",
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

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildGenerator(cfgs []config.AIProviderConfig) (ai.IGenerator, error) {
	var entries []ai.GeneratorEntry
	for _, item := range cfgs {
		provider, err := ai.NewProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init generator provider %s: %w", item.Provider, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      item.Provider + "/" + item.Model,
			Generator: ai.NewGenerator(provider, item.Model),
		})
	}
	return ai.NewGroupGenerator(entries), nil
}

func buildEmbedder(cfgs []config.AIProviderConfig) (ai.IEmbedder, error) {
	var entries []ai.EmbedderEntry
	for _, item := range cfgs {
		provider, err := ai.NewProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init embedder provider %s: %w", item.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     item.Provider + "/" + item.Model,
			Embedder: ai.NewEmbedder(provider, item.Model),
		})
	}
	return ai.NewGroupEmbedder(entries), nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("index_dir", cfg.Index.Dir),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(database)
	profileRepo := repo.NewProfileRepo(database)
	reportRepo := repo.NewReportRepo(database)
	reminderRepo := repo.NewReminderRepo(database)

	generator, err := buildGenerator(cfg.AI.Generators)
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder(cfg.AI.Embedders)
	if err != nil {
		return err
	}
	cacheTTL := time.Duration(cfg.AI.CacheTTLHours) * time.Hour
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.CacheSize, cacheTTL)
	manager := ai.NewManager(generator, embedder, ai.ManagerConfig{
		Timeout:       cfg.AI.TimeoutSeconds,
		MaxInputChars: cfg.AI.MaxInputChars,
	})

	builder := rag.NewDocumentBuilder(profileRepo, reportRepo)
	chunker := rag.NewChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	kb := rag.NewStore(cfg.Index.Dir, builder, chunker, embedder)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	jwtTTL := time.Hour * time.Duration(cfg.JWTTTLHours)
	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), jwtTTL)
	profileService := service.NewProfileService(profileRepo, kb)
	reportService := service.NewReportService(reportRepo, store, manager, kb)
	reminderService := service.NewReminderService(reminderRepo)
	assistantService := service.NewAssistantService(manager, kb, profileRepo,
		cfg.Index.TopK, cfg.AI.CacheSize, cacheTTL)

	deps := handler.RouterDeps{
		JWTSecret: []byte(cfg.JWTSecret),
		Auth:      handler.NewAuthHandler(authService),
		Profile:   handler.NewProfileHandler(profileService),
		Report:    handler.NewReportHandler(reportService),
		Reminder:  handler.NewReminderHandler(reminderService),
		Assistant: handler.NewAssistantHandler(assistantService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.New()
	if err := scheduler.Add(cfg.Schedule.ReminderSpec, job.NewReminderJob(reminderService)); err != nil {
		return fmt.Errorf("schedule reminder job: %w", err)
	}
	scheduler.Start()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	scheduler.Stop()
	return nil
}
