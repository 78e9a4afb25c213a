package vault

import (
	"context"
	"sync"
	"time"

	"github.com/osutrack-bridge/internal/domain"
)

// MemoryVault keeps credentials in process memory. Links are lost on
// restart, so it suits tests and throwaway deployments only.
type MemoryVault struct {
	mu    sync.RWMutex
	creds map[string]domain.Credential
}

// NewMemoryVault creates an in-memory vault
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		creds: make(map[string]domain.Credential),
	}
}

// Get retrieves a user's stored credential
func (v *MemoryVault) Get(ctx context.Context, userID string) (*domain.Credential, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	cred, ok := v.creds[userID]
	if !ok {
		return nil, domain.ErrNoCredential
	}
	return &cred, nil
}

// Set stores a user's credential, replacing any previous one
func (v *MemoryVault) Set(ctx context.Context, cred domain.Credential) error {
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = time.Now()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.creds[cred.UserID] = cred
	return nil
}

// Clear removes a user's credential. Clearing an absent entry is not an
// error.
func (v *MemoryVault) Clear(ctx context.Context, userID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.creds, userID)
	return nil
}

// Close is a no-op for the in-memory backend
func (v *MemoryVault) Close() error {
	return nil
}
