package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/domain"
	"github.com/osutrack-bridge/internal/retry"
	"github.com/osutrack-bridge/internal/vault"
)

// OsuClient is the slice of the osu! API the service depends on.
type OsuClient interface {
	FetchProfile(ctx context.Context, key, player string, mode domain.Mode) (*domain.PlayerProfile, error)
	FetchBestScores(ctx context.Context, key, playerID string, mode domain.Mode, limit int) ([]domain.ScoreRecord, error)
	SearchBeatmaps(ctx context.Context, key string, filter domain.BeatmapFilter) ([]domain.BeatmapSummary, error)
}

// TrackClient is the slice of the osu!track API the service depends on.
type TrackClient interface {
	SubmitScores(ctx context.Context, playerID string, mode domain.Mode, batch domain.UploadBatch) (*domain.UploadResult, error)
	Peak(ctx context.Context, playerID string, mode domain.Mode) (*domain.PeakStats, error)
}

// Broadcaster pushes upload completions to websocket subscribers.
type Broadcaster interface {
	BroadcastUploadCompleted(req domain.UploadRequest, result domain.UploadResult)
}

// BridgeService provides business logic for credential management and the
// fetch-and-upload workflow between the osu! API and osu!track.
type BridgeService struct {
	vault     vault.Vault
	osu       OsuClient
	track     TrackClient
	hub       Broadcaster
	retry     retry.Policy
	bestLimit int
	locks     *keyedLock
	logger    *slog.Logger
}

// NewBridgeService creates a new bridge service
func NewBridgeService(
	v vault.Vault,
	osu OsuClient,
	track TrackClient,
	cfg *config.UploadConfig,
	logger *slog.Logger,
) *BridgeService {
	return &BridgeService{
		vault: v,
		osu:   osu,
		track: track,
		retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		bestLimit: cfg.BestLimit,
		locks:     newKeyedLock(),
		logger:    logger,
	}
}

// SetHub attaches the websocket hub that receives upload completions. The
// service works without one.
func (s *BridgeService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// LinkKey stores a user's osu! API key, replacing any previous one.
func (s *BridgeService) LinkKey(ctx context.Context, userID, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if userID == "" || apiKey == "" {
		return fmt.Errorf("%w: user id and api key are required", domain.ErrInvalidRequest)
	}

	cred := domain.Credential{
		UserID:    userID,
		APIKey:    apiKey,
		UpdatedAt: time.Now(),
	}
	if err := s.vault.Set(ctx, cred); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	s.logger.Info("credential linked", "credential", cred)
	return nil
}

// UnlinkKey removes a user's stored key. Unlinking when nothing is stored
// succeeds.
func (s *BridgeService) UnlinkKey(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidRequest)
	}

	if err := s.vault.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}

	s.logger.Info("credential unlinked", "user_id", userID)
	return nil
}

// QueryPlayer fetches a player's profile using the requesting user's key.
func (s *BridgeService) QueryPlayer(ctx context.Context, userID, player string, mode domain.Mode) (*domain.PlayerProfile, error) {
	cred, err := s.vault.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var profile *domain.PlayerProfile
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		profile, err = s.osu.FetchProfile(ctx, cred.APIKey, player, mode)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return profile, nil
}

// SearchBeatmaps queries beatmaps using the requesting user's key.
func (s *BridgeService) SearchBeatmaps(ctx context.Context, userID string, filter domain.BeatmapFilter) ([]domain.BeatmapSummary, error) {
	cred, err := s.vault.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var maps []domain.BeatmapSummary
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		maps, err = s.osu.SearchBeatmaps(ctx, cred.APIKey, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("searching beatmaps: %w", err)
	}
	return maps, nil
}

// PeakStats fetches the all-time best rank and accuracy osu!track has
// recorded for a player. The profile lookup resolves the player name to the
// numeric ID the tracker requires.
func (s *BridgeService) PeakStats(ctx context.Context, userID, player string, mode domain.Mode) (*domain.PlayerProfile, *domain.PeakStats, error) {
	cred, err := s.vault.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	var profile *domain.PlayerProfile
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		profile, err = s.osu.FetchProfile(ctx, cred.APIKey, player, mode)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetching profile: %w", err)
	}

	var peak *domain.PeakStats
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		peak, err = s.track.Peak(ctx, profile.ID, mode)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetching peak stats: %w", err)
	}
	return profile, peak, nil
}
