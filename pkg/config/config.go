package config

import (
	"time"

	"matchchat/internal/application"
	"matchchat/internal/repository"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Repo repository.Config  `envPrefix:"REPO_"`
	App  application.Config

	GeminiKey   string `env:"GEMINI_KEY" envDefault:""`
	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	SerperAPIKey  string `env:"SERPER_API_KEY" envDefault:""`
	SerperBaseURL string `env:"SERPER_BASE_URL" envDefault:"https://google.serper.dev"`

	// WikipediaBaseURL set to "off" disables the encyclopedia source.
	WikipediaBaseURL string `env:"WIKIPEDIA_BASE_URL" envDefault:"https://en.wikipedia.org"`

	StatsBombBaseURL string        `env:"STATSBOMB_BASE_URL" envDefault:"https://raw.githubusercontent.com/statsbomb/open-data/master/data"`
	ProviderTimeout  time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`

	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	DiscordToken  string `env:"DISCORD_TOKEN" envDefault:""`
	TelegramToken string `env:"TELEGRAM_TOKEN" envDefault:""`

	TelegramAdminIDs []int64 `env:"TELEGRAM_ADMIN_IDS" envSeparator:","`

	AllowedChannelID string   `env:"ALLOWED_CHANNEL_ID" envDefault:""`
	DiscordGuildID   string   `env:"DISCORD_GUILD_ID" envDefault:""`
	AdminUserIDs     []string `env:"ADMIN_USER_IDS" envSeparator:","`

	RedisAddr             string `env:"REDIS_ADDR" envDefault:""`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" envDefault:""`

	LogLevel string `env:"LOGGER_LEVEL" envDefault:"info"`
}

// ReadEnvConfig fills cfg from the environment, then layers the ranking
// weights from RANKING_CONFIG and RANKING_* variables on top.
func ReadEnvConfig(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return err
	}
	ranking, err := LoadRanking()
	if err != nil {
		return err
	}
	cfg.App.Ranking = ranking
	return nil
}
