package postgres

import (
	"context"
	"fmt"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store — единственный долгоживущий разделяемый ресурс ядра: пул соединений
// к PostgreSQL. Каждая операция — самостоятельная, независимо коммитящаяся
// единица; транзакций, переживающих точку приостановки, здесь нет.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func New(ctx context.Context, cfg infra.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid connection string: %w", err)
	}
	pcfg.MaxConns = cfg.MaxConns
	pcfg.MinConns = cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	return &Store{pool: pool, logger: logger.Named("store")}, nil
}

// Ping проверяет доступность базы при старте
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// Bootstrap — идемпотентный "create if absent" на старте. Других миграций нет.
func (s *Store) Bootstrap(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			secret TEXT NOT NULL,
			panel_key TEXT NOT NULL,
			discord_id TEXT NOT NULL DEFAULT '',
			nickname TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS servers (
			id BIGSERIAL PRIMARY KEY,
			panel_key TEXT NOT NULL,
			instance_id TEXT NOT NULL,
			name TEXT NOT NULL,
			owner_email TEXT NOT NULL,
			owner_discord TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// instance_id = '' — дефолтный sink на весь scope; это отдельный ключ,
		// не совпадающий ни с одним конкретным идентификатором
		`CREATE TABLE IF NOT EXISTS log_channels (
			id BIGSERIAL PRIMARY KEY,
			panel_key TEXT NOT NULL,
			instance_id TEXT NOT NULL DEFAULT '',
			channel_id TEXT NOT NULL,
			UNIQUE (panel_key, instance_id)
		)`,
		`CREATE TABLE IF NOT EXISTS action_log (
			id UUID PRIMARY KEY,
			trace_id UUID NOT NULL,
			actor_id TEXT NOT NULL,
			action TEXT NOT NULL,
			panel_key TEXT NOT NULL DEFAULT '',
			instance_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: bootstrap failed: %w", err)
		}
	}

	s.logger.Info("schema bootstrap complete")
	return nil
}
