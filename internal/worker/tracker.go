package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/domain"
)

// Uploader runs one upload through the orchestrator
type Uploader interface {
	UploadScores(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error)
}

// TrackerWorker periodically re-runs the upload workflow for an
// operator-configured list of players, so their osu!track history keeps
// moving even when nobody types update.
type TrackerWorker struct {
	uploader Uploader
	config   *config.TrackerConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewTrackerWorker creates a new tracker worker
func NewTrackerWorker(uploader Uploader, cfg *config.TrackerConfig, logger *slog.Logger) *TrackerWorker {
	return &TrackerWorker{
		uploader: uploader,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background re-track process
func (w *TrackerWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("tracker worker started",
		"interval", w.config.Interval,
		"entries", len(w.config.Entries),
	)

	go w.run(ctx)
	return nil
}

// Stop stops the background re-track process
func (w *TrackerWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("tracker worker stopped")
	return nil
}

// run is the main worker loop
func (w *TrackerWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.trackAll(ctx)
		}
	}
}

// trackAll runs the upload workflow once for every configured entry
func (w *TrackerWorker) trackAll(ctx context.Context) {
	w.logger.Info("starting re-track cycle", "entries", len(w.config.Entries))
	startTime := time.Now()

	trackedCount := 0
	errorCount := 0

	for _, entry := range w.config.Entries {
		if err := w.trackEntry(ctx, entry); err != nil {
			w.logger.Error("failed to re-track player",
				"user_id", entry.UserID,
				"player", entry.Player,
				"error", err,
			)
			errorCount++
		} else {
			trackedCount++
		}

		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}
	}

	duration := time.Since(startTime)
	w.logger.Info("re-track cycle completed",
		"duration", duration,
		"tracked", trackedCount,
		"errors", errorCount,
	)
}

// trackEntry runs one configured player through the upload workflow
func (w *TrackerWorker) trackEntry(ctx context.Context, entry config.TrackerEntry) error {
	mode, err := domain.ParseMode(entry.Mode)
	if err != nil {
		return err
	}

	result, err := w.uploader.UploadScores(ctx, domain.UploadRequest{
		UserID: entry.UserID,
		Player: entry.Player,
		Mode:   mode,
	})
	if err != nil {
		return err
	}

	w.logger.Debug("re-tracked player",
		"player", entry.Player,
		"accepted", result.Accepted,
		"new_bests", result.NewBests,
	)
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *TrackerWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single re-track cycle (useful for manual triggers)
func (w *TrackerWorker) RunOnce(ctx context.Context) {
	w.trackAll(ctx)
}
