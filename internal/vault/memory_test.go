package vault

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/domain"
)

func TestMemoryVaultGetAbsent(t *testing.T) {
	v := NewMemoryVault()

	_, err := v.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, domain.ErrNoCredential)
}

func TestMemoryVaultSetGet(t *testing.T) {
	v := NewMemoryVault()
	ctx := context.Background()

	require.NoError(t, v.Set(ctx, domain.Credential{UserID: "user-1", APIKey: "key-a"}))

	cred, err := v.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", cred.UserID)
	assert.Equal(t, "key-a", cred.APIKey)
	assert.False(t, cred.UpdatedAt.IsZero())
}

func TestMemoryVaultSetOverwrites(t *testing.T) {
	v := NewMemoryVault()
	ctx := context.Background()

	require.NoError(t, v.Set(ctx, domain.Credential{UserID: "user-1", APIKey: "key-a"}))
	require.NoError(t, v.Set(ctx, domain.Credential{UserID: "user-1", APIKey: "key-b"}))

	cred, err := v.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "key-b", cred.APIKey)
}

func TestMemoryVaultKeysAreIsolatedPerUser(t *testing.T) {
	v := NewMemoryVault()
	ctx := context.Background()

	require.NoError(t, v.Set(ctx, domain.Credential{UserID: "user-1", APIKey: "key-a"}))
	require.NoError(t, v.Set(ctx, domain.Credential{UserID: "user-2", APIKey: "key-b"}))

	cred1, err := v.Get(ctx, "user-1")
	require.NoError(t, err)
	cred2, err := v.Get(ctx, "user-2")
	require.NoError(t, err)

	assert.Equal(t, "key-a", cred1.APIKey)
	assert.Equal(t, "key-b", cred2.APIKey)
}

func TestMemoryVaultClear(t *testing.T) {
	v := NewMemoryVault()
	ctx := context.Background()

	require.NoError(t, v.Set(ctx, domain.Credential{UserID: "user-1", APIKey: "key-a"}))
	require.NoError(t, v.Clear(ctx, "user-1"))

	_, err := v.Get(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrNoCredential)

	// Clearing again is still fine
	assert.NoError(t, v.Clear(ctx, "user-1"))
}

func TestMemoryVaultPreservesExplicitTimestamp(t *testing.T) {
	v := NewMemoryVault()
	ctx := context.Background()

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, v.Set(ctx, domain.Credential{UserID: "user-1", APIKey: "key-a", UpdatedAt: at}))

	cred, err := v.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, at, cred.UpdatedAt)
}

func TestMemoryVaultConcurrentAccess(t *testing.T) {
	v := NewMemoryVault()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = v.Set(ctx, domain.Credential{UserID: "user-1", APIKey: "key"})
			_, _ = v.Get(ctx, "user-1")
			_ = v.Clear(ctx, "user-1")
		}()
	}
	wg.Wait()
}

func TestNewSelectsMemoryBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Vault.Backend = config.VaultBackendMemory

	v, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer v.Close()

	_, ok := v.(*MemoryVault)
	assert.True(t, ok)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Vault.Backend = "etcd"

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
