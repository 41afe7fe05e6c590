package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ignatzorin/delivery-backend/internal/config"
)

// Open подключается к хранилищу, выбранному в конфигурации.
func Open(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendSQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	default:
		return NewPostgres(ctx, cfg.DatabaseURL)
	}
}

// NewPostgres создаёт подключение к PostgreSQL с заданным DSN.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return conn, nil
}

// NewSQLite открывает локальный файл SQLite. Путь ":memory:" даёт базу в памяти.
func NewSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := "file::memory:?_foreign_keys=on"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: не удалось создать каталог %s: %w", filepath.Dir(path), err)
		}
		dsn = "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	}

	conn, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: не удалось открыть %s: %w", path, err)
	}

	// SQLite не поддерживает параллельную запись; для :memory: каждое соединение открывает отдельную базу
	conn.SetMaxOpenConns(1)

	return conn, nil
}
