package vault

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/domain"
)

// PostgresVault keeps credentials in a PostgreSQL table.
type PostgresVault struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresVault creates a PostgreSQL-backed vault
func NewPostgresVault(ctx context.Context, cfg *config.PostgresConfig, logger *slog.Logger) (*PostgresVault, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &PostgresVault{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (v *PostgresVault) Close() error {
	v.pool.Close()
	return nil
}

// RunMigrations executes database migrations
func (v *PostgresVault) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS credentials (
			user_id VARCHAR(64) PRIMARY KEY,
			api_key TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_credentials_updated ON credentials(updated_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := v.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	v.logger.Info("database migrations completed")
	return nil
}

// Get retrieves a user's stored credential
func (v *PostgresVault) Get(ctx context.Context, userID string) (*domain.Credential, error) {
	query := `SELECT user_id, api_key, updated_at FROM credentials WHERE user_id = $1`
	var cred domain.Credential
	err := v.pool.QueryRow(ctx, query, userID).Scan(
		&cred.UserID,
		&cred.APIKey,
		&cred.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNoCredential
		}
		return nil, fmt.Errorf("getting credential: %w", err)
	}
	return &cred, nil
}

// Set stores a user's credential, replacing any previous one
func (v *PostgresVault) Set(ctx context.Context, cred domain.Credential) error {
	query := `
		INSERT INTO credentials (user_id, api_key, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET api_key = $2, updated_at = $3
	`
	updatedAt := cred.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := v.pool.Exec(ctx, query, cred.UserID, cred.APIKey, updatedAt)
	if err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// Clear removes a user's credential. Clearing an absent entry is not an
// error.
func (v *PostgresVault) Clear(ctx context.Context, userID string) error {
	query := `DELETE FROM credentials WHERE user_id = $1`
	_, err := v.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}
