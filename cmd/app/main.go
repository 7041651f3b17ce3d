package main

import (
	"context"
	"embed"
	"os"

	"matchchat/internal/ai"
	"matchchat/internal/application"
	"matchchat/internal/delivery/discord"
	httpapi "matchchat/internal/delivery/http"
	"matchchat/internal/delivery/telegram"
	"matchchat/internal/integration"
	"matchchat/internal/repository"
	"matchchat/pkg/config"
	"matchchat/pkg/logger"
	"matchchat/pkg/metrics"
	service "matchchat/pkg/services"
	"matchchat/pkg/sheets"

	"github.com/joho/godotenv"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := config.Config{}
	if err := config.ReadEnvConfig(&cfg); err != nil {
		panic(err)
	}

	log := logger.NewLogger(&logger.Config{Level: cfg.LogLevel})
	ctx := context.Background()
	m := metrics.New()

	gemini := ai.NewGeminiClient(cfg.GeminiKey, cfg.GeminiModel)
	defer gemini.Close()
	if cfg.GeminiKey == "" {
		log.Warn("GEMINI_KEY is not set, questions will fail until it is configured")
	}

	deps := application.Deps{
		Provider: integration.NewStatsBombClient(cfg.StatsBombBaseURL, cfg.ProviderTimeout),
		LLM:      gemini,
		Tokens:   ai.NewTokenCounter(),
		Metrics:  m,
		Logger:   log.With("application"),
	}
	if cfg.SerperAPIKey != "" {
		deps.Search = integration.NewSerperClient(cfg.SerperAPIKey, cfg.SerperBaseURL, cfg.ProviderTimeout)
	} else {
		log.Info("SERPER_API_KEY is not set, web search is disabled")
	}
	if cfg.WikipediaBaseURL != "off" {
		deps.Encyclopedia = integration.NewWikipediaClient(cfg.WikipediaBaseURL, cfg.ProviderTimeout)
	}

	pingers := map[string]httpapi.Pinger{}

	if cfg.Repo.Enabled() {
		db, err := repository.NewPostgresDB(&cfg.Repo)
		if err != nil {
			log.Error("failed to init db: %s", err.Error())
			return err
		}
		defer db.Close()

		log.Info("Running migrations...")
		if err := repository.RunMigrations(db, migrationFS); err != nil {
			log.Error("failed to run migrations: %s", err.Error())
			return err
		}
		log.Info("Migrations applied successfully")

		repos := repository.NewRepository(db)
		deps.Transcripts = repos
		pingers["postgres"] = repos
	}

	if cfg.RedisAddr != "" {
		rdb, err := repository.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Error("failed to connect to redis: %s", err.Error())
			return err
		}
		defer rdb.Close()
		deps.Cache = repository.NewDatasetRedis(rdb, cfg.App.DatasetTTL)
		pingers["redis"] = redisPinger{rdb}
	}

	if cfg.GoogleCredentialsFile != "" {
		sheetsClient, err := sheets.NewClient(ctx, cfg.GoogleCredentialsFile)
		if err != nil {
			log.Error("failed to init google sheets: %s", err.Error())
			return err
		}
		deps.Sheets = sheetsClient
	}

	services := application.NewService(cfg.App, deps)

	api := httpapi.NewServer(cfg.HTTPAddr, services, m, log.With("http"))
	for name, p := range pingers {
		api.AddHealthCheck(name, p)
	}

	manager := service.NewManager(log)
	manager.AddService(api)

	if cfg.DiscordToken != "" {
		bot, err := discord.NewBot(&cfg, services, log.With("discord"))
		if err != nil {
			log.Error("failed to init discord bot: %s", err.Error())
			return err
		}
		manager.AddService(bot)
	}
	if cfg.TelegramToken != "" {
		manager.AddService(telegram.NewBot(cfg.TelegramToken, cfg.TelegramAdminIDs, services, log.With("telegram")))
	}

	if err := manager.Run(ctx); err != nil {
		log.Error("stopped with error: %s", err.Error())
		return err
	}
	log.Info("Stopped")
	return nil
}
