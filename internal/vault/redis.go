package vault

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/domain"
)

// RedisVault keeps credentials in Redis hashes, one per chat user.
type RedisVault struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisVault creates a Redis-backed vault
func NewRedisVault(cfg *config.RedisConfig, logger *slog.Logger) (*RedisVault, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisVault{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (v *RedisVault) Close() error {
	return v.client.Close()
}

// credentialKey returns the Redis key for a user's credential hash
func (v *RedisVault) credentialKey(userID string) string {
	return fmt.Sprintf("credential:%s", userID)
}

// Get retrieves a user's stored credential
func (v *RedisVault) Get(ctx context.Context, userID string) (*domain.Credential, error) {
	key := v.credentialKey(userID)
	result, err := v.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("getting credential: %w", err)
	}

	if len(result) == 0 {
		return nil, domain.ErrNoCredential
	}

	updatedAt, _ := time.Parse(time.RFC3339, result["updated_at"])

	return &domain.Credential{
		UserID:    userID,
		APIKey:    result["api_key"],
		UpdatedAt: updatedAt,
	}, nil
}

// Set stores a user's credential, replacing any previous one
func (v *RedisVault) Set(ctx context.Context, cred domain.Credential) error {
	key := v.credentialKey(cred.UserID)
	updatedAt := cred.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	err := v.client.HSet(ctx, key,
		"api_key", cred.APIKey,
		"updated_at", updatedAt.UTC().Format(time.RFC3339),
	).Err()
	if err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// Clear removes a user's credential. Clearing an absent entry is not an
// error.
func (v *RedisVault) Clear(ctx context.Context, userID string) error {
	key := v.credentialKey(userID)
	err := v.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}
