package osutrack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/osutrack-bridge/internal/config"
	"github.com/osutrack-bridge/internal/domain"
)

// Client talks to the osu!track statistics tracker. osu!track identifies
// players by osu! user ID and needs no API key, so requests carry no
// secrets. Every method is a single attempt; retry policy belongs to the
// caller.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates an osu!track client
func New(cfg *config.OsuTrackConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// SubmitScores posts a batch of best plays for one player+mode pair and
// returns the tracker's acceptance counts. A player the tracker has never
// seen is reported as not found.
func (c *Client) SubmitScores(ctx context.Context, playerID string, mode domain.Mode, batch domain.UploadBatch) (*domain.UploadResult, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("update: encoding batch: %w", err)
	}

	params := url.Values{}
	params.Set("user", playerID)
	params.Set("mode", strconv.Itoa(int(mode)))

	var payload updatePayload
	if err := c.call(ctx, http.MethodPost, "update", params, body, &payload); err != nil {
		return nil, err
	}
	if !payload.Exists {
		return nil, fmt.Errorf("update: %w", domain.ErrNotFound)
	}

	return &domain.UploadResult{
		Username:    payload.Username,
		Accepted:    payload.Accepted,
		Rejected:    payload.Rejected,
		NewBests:    len(payload.Newhs),
		FirstUpdate: payload.First,
	}, nil
}

// Peak retrieves the best rank and best accuracy the tracker has ever
// recorded for a player.
func (c *Client) Peak(ctx context.Context, playerID string, mode domain.Mode) (*domain.PeakStats, error) {
	params := url.Values{}
	params.Set("user", playerID)
	params.Set("mode", strconv.Itoa(int(mode)))

	var payload []peakPayload
	if err := c.call(ctx, http.MethodGet, "peak", params, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("peak: %w", domain.ErrNotFound)
	}

	p := payload[0]
	peak := &domain.PeakStats{
		BestGlobalRank: p.BestGlobalRank,
		BestAccuracy:   p.BestAccuracy,
	}
	if p.BestRankAt != nil {
		if ts, err := time.Parse(time.RFC3339, *p.BestRankAt); err == nil {
			peak.BestRankAt = &ts
		}
	}
	if p.BestAccAt != nil {
		if ts, err := time.Parse(time.RFC3339, *p.BestAccAt); err == nil {
			peak.BestAccuracyAt = &ts
		}
	}
	return peak, nil
}

func (c *Client) call(ctx context.Context, method, endpoint string, params url.Values, body []byte, out interface{}) error {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %s", endpoint, domain.ErrTransient, transportReason(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", endpoint, statusError(resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", endpoint, domain.ErrTransient)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", endpoint, domain.ErrUpstream)
	}
	return nil
}

// statusError maps a non-2xx status onto the domain error taxonomy. The
// tracker has no authenticated endpoints, so there is no credential case.
func statusError(code int) error {
	switch code {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return fmt.Errorf("%w: status %d", domain.ErrUpstream, code)
	}
}

func transportReason(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err.Error()
	}
	return "request failed"
}

type updatePayload struct {
	Username string           `json:"username"`
	Mode     int              `json:"mode"`
	Exists   bool             `json:"exists"`
	First    bool             `json:"first"`
	Levelup  bool             `json:"levelup"`
	Accepted int              `json:"accepted"`
	Rejected int              `json:"rejected"`
	Newhs    []hiscorePayload `json:"newhs"`
}

type hiscorePayload struct {
	BeatmapID int64   `json:"beatmap_id"`
	PP        float64 `json:"pp"`
	Rank      string  `json:"rank"`
	Ranking   int     `json:"ranking"`
}

type peakPayload struct {
	BestGlobalRank *int64   `json:"best_global_rank"`
	BestRankAt     *string  `json:"best_rank_timestamp"`
	BestAccuracy   *float64 `json:"best_accuracy"`
	BestAccAt      *string  `json:"best_acc_timestamp"`
}
