package db

import "time"

// Config holds database connection parameters.
type Config struct {
	// Driver name: pgx, mysql or sqlite.
	Connection string `env:"DB_CONNECTION" envDefault:"pgx"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       int    `env:"DB_PORT"`
	Database   string `env:"DB_DATABASE" envDefault:"tela"`
	Username   string `env:"DB_USERNAME"`
	Password   string `env:"DB_PASSWORD"`

	// DSN overrides the individual fields when set.
	DSN string `env:"DB_DSN"`

	MigrationsTable string `env:"DB_MIGRATIONS_TABLE" envDefault:"schema_migrations"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"10m"`

	// Retry configuration for transient failures during startup.
	RetryAttempts int           `env:"DB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"DB_RETRY_INTERVAL" envDefault:"5s"`
}
