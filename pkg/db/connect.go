package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Open connects to the database described by cfg and wraps it in a DAO.
// Uses linear backoff between attempts to survive slow database startups.
func Open(ctx context.Context, cfg Config, opts ...Option) (*DAO, error) {
	dialect, err := DialectForDriver(cfg.Connection)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	dsn, err := BuildDSN(dialect, cfg)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		conn, err := sql.Open(dialect.DriverName(), dsn)
		if err != nil {
			return nil, errors.Join(ErrFailedToOpenDBConnection, err)
		}
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
		conn.SetConnMaxLifetime(cfg.MaxConnLifetime)
		conn.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			if i == attempts-1 {
				return nil, errors.Join(ErrFailedToOpenDBConnection, err)
			}
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
			case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
			}
			continue
		}

		return New(conn, dialect, opts...), nil
	}

	return nil, ErrFailedToOpenDBConnection
}

// BuildDSN returns the driver-specific data source name for cfg.
func BuildDSN(dialect Dialect, cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	switch dialect {
	case Postgres:
		port := cfg.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
			cfg.Username, cfg.Password, net.JoinHostPort(cfg.Host, strconv.Itoa(port)), cfg.Database), nil
	case MySQL:
		port := cfg.Port
		if port == 0 {
			port = 3306
		}
		mc := mysql.NewConfig()
		mc.User = cfg.Username
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		mc.DBName = cfg.Database
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case SQLite:
		return "file:" + cfg.Database + "?_pragma=foreign_keys(1)", nil
	}
	return "", ErrUnknownDriver
}

// ConnectPool opens a pgx connection pool for components that need native
// postgres access (the job queue). Only valid for the postgres dialect.
func ConnectPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	dialect, err := DialectForDriver(cfg.Connection)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	if dialect != Postgres {
		return nil, ErrUnsupported
	}
	dsn, err := BuildDSN(dialect, cfg)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	poolConfig.MaxConns = int32(max(cfg.MaxOpenConns, 1))
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	attempts := max(cfg.RetryAttempts, 1)
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, ErrFailedToOpenDBConnection
}
