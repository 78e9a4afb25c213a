package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(ErrTransient))
	assert.True(t, IsRetryable(fmt.Errorf("get_user: %w", ErrTransient)))

	assert.False(t, IsRetryable(ErrNoCredential))
	assert.False(t, IsRetryable(ErrAuthentication))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(ErrUpstream))
	assert.False(t, IsRetryable(nil))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("fetching profile: %w", ErrNotFound)))
	assert.False(t, IsNotFoundError(ErrUpstream))
}

func TestUploadRequestValidate(t *testing.T) {
	valid := UploadRequest{UserID: "u1", Player: "peppy", Mode: ModeOsu}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		req  UploadRequest
	}{
		{name: "missing user", req: UploadRequest{Player: "peppy"}},
		{name: "missing player", req: UploadRequest{UserID: "u1"}},
		{name: "bad mode", req: UploadRequest{UserID: "u1", Player: "peppy", Mode: Mode(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.req.Validate(), ErrInvalidRequest)
		})
	}
}
