package vault

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/domain"
)

// Vault stores each chat user's osu! API key. Implementations return
// domain.ErrNoCredential when no key is stored, overwrite on Set, and
// treat clearing an absent entry as success.
type Vault interface {
	Get(ctx context.Context, userID string) (*domain.Credential, error)
	Set(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context, userID string) error
	Close() error
}

// New builds the vault backend named by the configuration. The postgres
// backend runs its migrations before it is returned.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Vault, error) {
	switch cfg.Vault.Backend {
	case config.VaultBackendRedis:
		return NewRedisVault(&cfg.Redis, logger)
	case config.VaultBackendPostgres:
		v, err := NewPostgresVault(ctx, &cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if err := v.RunMigrations(ctx); err != nil {
			v.Close()
			return nil, err
		}
		return v, nil
	case config.VaultBackendMemory:
		return NewMemoryVault(), nil
	default:
		return nil, fmt.Errorf("unknown vault backend %q", cfg.Vault.Backend)
	}
}
