package app

import (
	"errors"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/subosito/gotenv"

	"github.com/dmitrymomot/tela/app/models"
	"github.com/dmitrymomot/tela/pkg/db"
	"github.com/dmitrymomot/tela/pkg/logger"
	"github.com/dmitrymomot/tela/pkg/redis"
	"github.com/dmitrymomot/tela/pkg/storage"
)

// Config is the demo application configuration, read from the environment.
type Config struct {
	AppTitle  string `env:"APP_TITLE" envDefault:"Tela"`
	Address   string `env:"APP_ADDRESS" envDefault:":8080"`
	BaseURL   string `env:"APP_URL"`
	Debug     bool   `env:"APP_DEBUG" envDefault:"false"`
	SuperRole int    `env:"APP_SUPER_ROLE" envDefault:"2"`

	Log     logger.Config
	DB      db.Config
	Redis   redis.Config
	Storage storage.Config
	Session SessionConfig
	Search  SearchConfig
	Errors  ErrorLogConfig

	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// SessionConfig holds the session cookie settings.
type SessionConfig struct {
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"__sid"`
	MaxAge     int    `env:"SESSION_MAX_AGE" envDefault:"86400"`
	Secure     bool   `env:"SESSION_SECURE" envDefault:"false"`
	Domain     string `env:"SESSION_DOMAIN"`
}

// SearchConfig tunes the search page.
type SearchConfig struct {
	MinLength int           `env:"SEARCH_MIN_LENGTH" envDefault:"3"`
	CacheTTL  time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"1m"`
}

// ErrorLogConfig controls the t_log retention purge.
type ErrorLogConfig struct {
	Retention time.Duration `env:"ERROR_LOG_RETENTION" envDefault:"720h"`
	Schedule  string        `env:"ERROR_LOG_PURGE_SCHEDULE" envDefault:"0 3 * * *"`
}

// LoadConfig reads the given .env files, when they exist, then parses the
// environment. Variables already set in the environment win over the files.
func LoadConfig(files ...string) (Config, error) {
	for _, f := range files {
		if err := gotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, errors.Join(ErrInvalidConfig, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if cfg.SuperRole == 0 {
		cfg.SuperRole = models.RoleAdmin
	}
	return cfg, nil
}
