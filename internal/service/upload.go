package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/osutrack-bridge/internal/domain"
)

// UploadState tracks where an upload run is in its lifecycle.
type UploadState int

const (
	StateIdle UploadState = iota
	StateResolvingCredential
	StateFetchingProfile
	StateFetchingScores
	StateSubmitting
	StateDone
	StateFailed
)

// String returns the state name used in logs.
func (s UploadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingCredential:
		return "resolving_credential"
	case StateFetchingProfile:
		return "fetching_profile"
	case StateFetchingScores:
		return "fetching_scores"
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// uploadRun carries one upload through its states. States only move
// forward; a failure in any state ends the run in StateFailed.
type uploadRun struct {
	state  UploadState
	logger *slog.Logger
}

func (r *uploadRun) advance(next UploadState) {
	r.logger.Debug("upload state", "from", r.state.String(), "to", next.String())
	r.state = next
}

func (r *uploadRun) fail(err error) {
	r.logger.Error("upload failed", "state", r.state.String(), "error", err)
	r.state = StateFailed
}

// UploadScores runs the full fetch-and-upload workflow for one request:
// resolve the user's key, fetch the player's profile and best scores from
// the osu! API, and submit the batch to osu!track. Runs for the same chat
// user are serialized. Rerunning a request is safe; the tracker dedupes
// scores it has already seen, so the counts come back the same.
func (s *BridgeService) UploadScores(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	logger := s.logger.With(
		"request_id", req.RequestID,
		"user_id", req.UserID,
		"player", req.Player,
		"mode", req.Mode.String(),
	)

	// One upload per user at a time
	if err := s.locks.Acquire(ctx, req.UserID); err != nil {
		return nil, err
	}
	defer s.locks.Release(req.UserID)

	run := &uploadRun{state: StateIdle, logger: logger}
	result, err := s.runUpload(ctx, run, req)
	if err != nil {
		run.fail(err)
		return nil, err
	}

	run.advance(StateDone)
	logger.Info("upload completed",
		"username", result.Username,
		"accepted", result.Accepted,
		"rejected", result.Rejected,
		"new_bests", result.NewBests,
		"first_update", result.FirstUpdate,
	)

	if s.hub != nil {
		s.hub.BroadcastUploadCompleted(req, *result)
	}
	return result, nil
}

func (s *BridgeService) runUpload(ctx context.Context, run *uploadRun, req domain.UploadRequest) (*domain.UploadResult, error) {
	// No stored key means no upstream traffic at all.
	run.advance(StateResolvingCredential)
	cred, err := s.vault.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	run.advance(StateFetchingProfile)
	var profile *domain.PlayerProfile
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		profile, err = s.osu.FetchProfile(ctx, cred.APIKey, req.Player, req.Mode)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	run.advance(StateFetchingScores)
	var scores []domain.ScoreRecord
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		scores, err = s.osu.FetchBestScores(ctx, cred.APIKey, profile.ID, req.Mode, s.bestLimit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching best scores: %w", err)
	}

	// Nothing to submit is still a completed run.
	if len(scores) == 0 {
		run.logger.Info("player has no best scores, skipping submission")
		return &domain.UploadResult{Username: profile.Username}, nil
	}

	batch := domain.UploadBatch{
		PlayerID: profile.ID,
		Mode:     req.Mode,
		Scores:   scores,
	}

	run.advance(StateSubmitting)
	var result *domain.UploadResult
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.track.SubmitScores(ctx, profile.ID, req.Mode, batch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("submitting scores: %w", err)
	}

	return result, nil
}
