package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/genai"

	"localore/internal/adapter/api"
	"localore/internal/adapter/client"
	"localore/internal/adapter/store"
	"localore/internal/config"
	"localore/internal/domain/entity"
	"localore/internal/domain/repository"
	"localore/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	models, err := config.LoadModels(cfg.ModelsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading models file failed")
	}

	ctx := context.Background()

	// Redis for keyword analytics and admin sessions. The service degrades
	// rather than refusing to start when it is unreachable.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, analytics will degrade")
	}
	stats := store.NewRedisStats(rdb)

	// In-process admission
	limiter := store.NewWindowLimiter(cfg.RateLimit, cfg.RateWindow)
	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	go limiter.Run(limiterCtx, 5*time.Minute)

	// Gemini provider plus everything that needs its client
	var (
		genaiClient *genai.Client
		provider    repository.TextGenerator
		generator   *usecase.Generator
		classifier  repository.GenreClassifier
		embedder    repository.Embedder
	)
	if cfg.GeminiAPIKey != "" {
		genaiClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init genai client")
		}
		provider = client.NewGeminiClientFromClient(genaiClient, usecase.SystemInstruction, logger)
		generator = usecase.NewGenerator(provider, usecase.NewPromptBuilder(cfg.Region), models, logger)
		classifier = client.NewGenreClassifier(genaiClient, models[len(models)-1].Name)
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set, trivia generation is disabled")
	}

	// Qdrant for the semantic cache, only when configured
	var cache repository.TriviaCache
	if cfg.QdrantHost != "" && genaiClient != nil {
		qClient, err := qdrant.NewClient(&qdrant.Config{
			Host: cfg.QdrantHost,
			Port: cfg.QdrantPort,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to qdrant")
		}
		qcache := store.NewQdrantCache(qClient, cfg.QdrantCollection, logger)
		if err := qcache.Init(ctx, client.EmbeddingDimensions); err != nil {
			logger.Fatal().Err(err).Msg("failed to init qdrant collection")
		}
		cache = qcache
		embedder = client.NewEmbedder(genaiClient)
	}

	service := usecase.NewTriviaService(limiter, generator, embedder, cache, stats, classifier, logger)

	// The analytics API exists only with a configured admin password.
	var admin *api.AdminHandler
	if cfg.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal().Err(err).Msg("hashing admin password failed")
		}
		admin = api.NewAdminHandler(hash, store.NewRedisSessions(rdb), stats, logger)
	}

	app := fiber.New(fiber.Config{
		AppName: "Localore API",
	})
	api.SetupRouter(app, api.NewTriviaHandler(service), admin, cfg.Version)

	// Pre-warm the provider path so the first request does not pay the
	// connection cost.
	if provider != nil {
		go func() {
			warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if embedder != nil {
				if _, err := embedder.Embed(warmCtx, "warmup"); err != nil {
					logger.Warn().Err(err).Msg("embedder warm-up failed")
				}
			}

			warm := entity.ModelConfig{Name: models[0].Name, MaxOutputTokens: 8}
			turns := []entity.Turn{{Role: entity.RoleUser, Text: "."}}
			if _, err := provider.Generate(warmCtx, warm, turns); err != nil {
				logger.Warn().Err(err).Msg("provider warm-up failed")
			}

			logger.Info().Msg("pre-warm complete")
		}()
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("version", cfg.Version).Msg("localore api listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
	if err := rdb.Close(); err != nil {
		logger.Error().Err(err).Msg("closing redis failed")
	}
}
