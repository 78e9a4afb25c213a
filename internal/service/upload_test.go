package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/domain"
	"github.com/osutrack-bridge/internal/vault"
)

type fakeOsu struct {
	mu              sync.Mutex
	profile         domain.PlayerProfile
	scores          []domain.ScoreRecord
	maps            []domain.BeatmapSummary
	profileErr      error
	profileFailures int
	scoresErr       error
	profileCalls    int
	scoresCalls     int
	searchCalls     int
	lastKey         string
	lastLimit       int
	lastFilter      domain.BeatmapFilter
}

func (f *fakeOsu) FetchProfile(ctx context.Context, key, player string, mode domain.Mode) (*domain.PlayerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	f.lastKey = key
	if f.profileErr != nil && (f.profileFailures == 0 || f.profileCalls <= f.profileFailures) {
		return nil, f.profileErr
	}
	profile := f.profile
	if profile.ID == "" {
		profile = domain.PlayerProfile{ID: "124493", Username: "Cookiezi", Mode: mode}
	}
	return &profile, nil
}

func (f *fakeOsu) FetchBestScores(ctx context.Context, key, playerID string, mode domain.Mode, limit int) ([]domain.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scoresCalls++
	f.lastKey = key
	f.lastLimit = limit
	if f.scoresErr != nil {
		return nil, f.scoresErr
	}
	return f.scores, nil
}

func (f *fakeOsu) SearchBeatmaps(ctx context.Context, key string, filter domain.BeatmapFilter) ([]domain.BeatmapSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.lastKey = key
	f.lastFilter = filter
	return f.maps, nil
}

type fakeTrack struct {
	mu          sync.Mutex
	result      domain.UploadResult
	peak        domain.PeakStats
	failures    int
	failWith    error
	delay       time.Duration
	submitCalls int
	peakCalls   int
	inFlight    int
	maxInFlight int
	lastBatch   domain.UploadBatch
	lastPeakID  string
}

func (f *fakeTrack) SubmitScores(ctx context.Context, playerID string, mode domain.Mode, batch domain.UploadBatch) (*domain.UploadResult, error) {
	f.mu.Lock()
	f.submitCalls++
	call := f.submitCalls
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	f.lastBatch = batch
	if f.failWith != nil && (f.failures == 0 || call <= f.failures) {
		return nil, f.failWith
	}
	result := f.result
	if result.Username == "" {
		result = domain.UploadResult{Username: "Cookiezi", Accepted: len(batch.Scores)}
	}
	return &result, nil
}

func (f *fakeTrack) Peak(ctx context.Context, playerID string, mode domain.Mode) (*domain.PeakStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.peakCalls++
	f.lastPeakID = playerID
	peak := f.peak
	return &peak, nil
}

type fakeHub struct {
	mu      sync.Mutex
	reqs    []domain.UploadRequest
	results []domain.UploadResult
}

func (f *fakeHub) BroadcastUploadCompleted(req domain.UploadRequest, result domain.UploadResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	f.results = append(f.results, result)
}

func newTestService(t *testing.T, v vault.Vault, osu *fakeOsu, track *fakeTrack) *BridgeService {
	t.Helper()
	cfg := &config.UploadConfig{
		BestLimit: 100,
		Retry: config.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBridgeService(v, osu, track, cfg, logger)
}

func linkedVault(t *testing.T, userID, key string) vault.Vault {
	t.Helper()
	v := vault.NewMemoryVault()
	require.NoError(t, v.Set(context.Background(), domain.Credential{UserID: userID, APIKey: key}))
	return v
}

func sampleScores(n int) []domain.ScoreRecord {
	scores := make([]domain.ScoreRecord, n)
	for i := range scores {
		scores[i] = domain.ScoreRecord{
			BeatmapID: int64(100 + i),
			Mode:      domain.ModeOsu,
			Score:     int64(1000000 - i*1000),
			PP:        float64(800 - i*10),
			Grade:     domain.GradeS,
		}
	}
	return scores
}

func uploadRequest() domain.UploadRequest {
	return domain.UploadRequest{
		RequestID: "req-1",
		UserID:    "user-1",
		Player:    "Cookiezi",
		Mode:      domain.ModeOsu,
	}
}

func TestUploadScoresHappyPath(t *testing.T) {
	osu := &fakeOsu{scores: sampleScores(3)}
	track := &fakeTrack{result: domain.UploadResult{Username: "Cookiezi", Accepted: 2, Rejected: 1, NewBests: 2}}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)

	result, err := svc.UploadScores(context.Background(), uploadRequest())
	require.NoError(t, err)

	// Counts come straight from the tracker response
	assert.Equal(t, "Cookiezi", result.Username)
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 2, result.NewBests)

	assert.Equal(t, "secret", osu.lastKey)
	assert.Equal(t, 100, osu.lastLimit)
	assert.Equal(t, 1, osu.profileCalls)
	assert.Equal(t, 1, osu.scoresCalls)
	assert.Equal(t, 1, track.submitCalls)
	assert.Equal(t, "124493", track.lastBatch.PlayerID)
}

func TestUploadScoresNoCredentialMakesNoCalls(t *testing.T) {
	osu := &fakeOsu{scores: sampleScores(3)}
	track := &fakeTrack{}
	svc := newTestService(t, vault.NewMemoryVault(), osu, track)

	_, err := svc.UploadScores(context.Background(), uploadRequest())
	assert.ErrorIs(t, err, domain.ErrNoCredential)
	assert.Zero(t, osu.profileCalls)
	assert.Zero(t, osu.scoresCalls)
	assert.Zero(t, track.submitCalls)
}

func TestUploadScoresEmptyFetchSkipsSubmission(t *testing.T) {
	osu := &fakeOsu{scores: nil}
	track := &fakeTrack{}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)

	result, err := svc.UploadScores(context.Background(), uploadRequest())
	require.NoError(t, err)

	assert.Equal(t, "Cookiezi", result.Username)
	assert.Zero(t, result.Accepted)
	assert.Zero(t, result.Rejected)
	assert.Zero(t, result.NewBests)
	assert.Zero(t, track.submitCalls)
}

func TestUploadScoresPreservesScoreOrder(t *testing.T) {
	scores := sampleScores(5)
	osu := &fakeOsu{scores: scores}
	track := &fakeTrack{}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)

	result, err := svc.UploadScores(context.Background(), uploadRequest())
	require.NoError(t, err)
	assert.Equal(t, 5, result.Accepted)

	require.Len(t, track.lastBatch.Scores, 5)
	for i, score := range track.lastBatch.Scores {
		assert.Equal(t, scores[i].BeatmapID, score.BeatmapID)
	}
}

func TestUploadScoresRerunYieldsSameResult(t *testing.T) {
	osu := &fakeOsu{scores: sampleScores(4)}
	track := &fakeTrack{result: domain.UploadResult{Username: "Cookiezi", Accepted: 4, NewBests: 1}}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)

	first, err := svc.UploadScores(context.Background(), uploadRequest())
	require.NoError(t, err)
	second, err := svc.UploadScores(context.Background(), uploadRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, track.submitCalls)
}

func TestUploadScoresRetriesRateLimitedSubmission(t *testing.T) {
	osu := &fakeOsu{scores: sampleScores(2)}
	track := &fakeTrack{
		failures: 2,
		failWith: fmt.Errorf("update: %w", domain.ErrRateLimited),
	}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)

	result, err := svc.UploadScores(context.Background(), uploadRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, track.submitCalls)
	assert.Equal(t, 2, result.Accepted)
}

func TestUploadScoresStopsAfterRetryBudget(t *testing.T) {
	osu := &fakeOsu{scores: sampleScores(2)}
	track := &fakeTrack{failWith: fmt.Errorf("update: %w", domain.ErrRateLimited)}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)

	_, err := svc.UploadScores(context.Background(), uploadRequest())
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 3, track.submitCalls)
}

func TestUploadScoresUpstreamErrorNotRetried(t *testing.T) {
	osu := &fakeOsu{profileErr: fmt.Errorf("get_user: %w", domain.ErrUpstream)}
	track := &fakeTrack{}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)

	_, err := svc.UploadScores(context.Background(), uploadRequest())
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, 1, osu.profileCalls)
	assert.Zero(t, osu.scoresCalls)
	assert.Zero(t, track.submitCalls)
}

func TestUploadScoresAuthFailureKeepsCredential(t *testing.T) {
	osu := &fakeOsu{profileErr: fmt.Errorf("get_user: %w", domain.ErrAuthentication)}
	track := &fakeTrack{}
	v := linkedVault(t, "user-1", "secret")
	svc := newTestService(t, v, osu, track)

	_, err := svc.UploadScores(context.Background(), uploadRequest())
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, 1, osu.profileCalls)

	// The rejected key stays stored; only an explicit unlink removes it
	cred, err := v.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "secret", cred.APIKey)
}

func TestUploadScoresSerializesPerUser(t *testing.T) {
	osu := &fakeOsu{scores: sampleScores(2)}
	track := &fakeTrack{delay: 5 * time.Millisecond}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UploadScores(context.Background(), uploadRequest())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, track.submitCalls)
	assert.Equal(t, 1, track.maxInFlight)
}

func TestUploadScoresValidatesRequest(t *testing.T) {
	osu := &fakeOsu{}
	track := &fakeTrack{}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)

	req := uploadRequest()
	req.Player = ""
	_, err := svc.UploadScores(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Zero(t, osu.profileCalls)
}

func TestUploadScoresBroadcastsCompletion(t *testing.T) {
	osu := &fakeOsu{scores: sampleScores(2)}
	track := &fakeTrack{result: domain.UploadResult{Username: "Cookiezi", Accepted: 2}}
	hub := &fakeHub{}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)
	svc.SetHub(hub)

	_, err := svc.UploadScores(context.Background(), uploadRequest())
	require.NoError(t, err)

	require.Len(t, hub.reqs, 1)
	assert.Equal(t, "user-1", hub.reqs[0].UserID)
	assert.Equal(t, "req-1", hub.reqs[0].RequestID)
	assert.Equal(t, 2, hub.results[0].Accepted)
}

func TestUploadScoresNoBroadcastOnFailure(t *testing.T) {
	osu := &fakeOsu{profileErr: fmt.Errorf("get_user: %w", domain.ErrNotFound)}
	track := &fakeTrack{}
	hub := &fakeHub{}
	svc := newTestService(t, linkedVault(t, "user-1", "secret"), osu, track)
	svc.SetHub(hub)

	_, err := svc.UploadScores(context.Background(), uploadRequest())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, hub.reqs)
}

func TestUploadStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "resolving_credential", StateResolvingCredential.String())
	assert.Equal(t, "fetching_profile", StateFetchingProfile.String())
	assert.Equal(t, "fetching_scores", StateFetchingScores.String())
	assert.Equal(t, "submitting", StateSubmitting.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())
}
