package osuapi

import (
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

// Upstream page caps
const (
	maxBestScores = 100
	maxBeatmaps   = 500
)

// dateLayout is the osu! API timestamp format (UTC).
const dateLayout = "2006-01-02 15:04:05"

// Client is a typed wrapper around the osu! API v1. Every method performs a
// single attempt and maps failures onto the domain error taxonomy; retry
// policy belongs to the caller.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates an osu! API client
func New(cfg *config.OsuAPIConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// FetchProfile retrieves a player's statistics for one game mode. The
// player may be a user ID or a username.
func (c *Client) FetchProfile(ctx context.Context, key, player string, mode domain.Mode) (*domain.PlayerProfile, error) {
	params := url.Values{}
	params.Set("k", key)
	params.Set("u", player)
	params.Set("m", strconv.Itoa(int(mode)))

	var payload []userPayload
	if err := c.get(ctx, "get_user", params, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("get_user: %w", domain.ErrNotFound)
	}

	u := payload[0]
	return &domain.PlayerProfile{
		ID:          u.UserID,
		Username:    u.Username,
		Country:     u.Country,
		Level:       parseFloat(u.Level),
		PP:          parseFloat(u.PPRaw),
		Accuracy:    parseFloat(u.Accuracy),
		PlayCount:   parseInt(u.PlayCount),
		GlobalRank:  parseInt(u.PPRank),
		CountryRank: parseInt(u.PPCountryRank),
		Mode:        mode,
	}, nil
}

// FetchBestScores retrieves a player's top plays ordered as upstream
// returns them (score descending). The limit is clamped to the upstream
// page cap of 100.
func (c *Client) FetchBestScores(ctx context.Context, key, playerID string, mode domain.Mode, limit int) ([]domain.ScoreRecord, error) {
	if limit <= 0 || limit > maxBestScores {
		limit = maxBestScores
	}

	params := url.Values{}
	params.Set("k", key)
	params.Set("u", playerID)
	params.Set("m", strconv.Itoa(int(mode)))
	params.Set("limit", strconv.Itoa(limit))

	var payload []scorePayload
	if err := c.get(ctx, "get_user_best", params, &payload); err != nil {
		return nil, err
	}

	records := make([]domain.ScoreRecord, len(payload))
	for i, s := range payload {
		records[i] = s.toRecord(mode)
	}
	return records, nil
}

// SearchBeatmaps queries beatmaps by the v1 filter surface. Zero-value
// filter fields are left out of the request; the limit is clamped to the
// upstream cap of 500.
func (c *Client) SearchBeatmaps(ctx context.Context, key string, filter domain.BeatmapFilter) ([]domain.BeatmapSummary, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxBeatmaps {
		limit = maxBeatmaps
	}

	params := url.Values{}
	params.Set("k", key)
	params.Set("limit", strconv.Itoa(limit))
	if !filter.Since.IsZero() {
		params.Set("since", filter.Since.UTC().Format(dateLayout))
	}
	if filter.BeatmapsetID != "" {
		params.Set("s", filter.BeatmapsetID)
	}
	if filter.BeatmapID != "" {
		params.Set("b", filter.BeatmapID)
	}
	if filter.Player != "" {
		params.Set("u", filter.Player)
	}
	if filter.Mode != nil {
		params.Set("m", strconv.Itoa(int(*filter.Mode)))
		if filter.IncludeConverted {
			params.Set("a", "1")
		}
	}

	var payload []beatmapPayload
	if err := c.get(ctx, "get_beatmaps", params, &payload); err != nil {
		return nil, err
	}

	maps := make([]domain.BeatmapSummary, len(payload))
	for i, b := range payload {
		maps[i] = domain.BeatmapSummary{
			BeatmapID:    b.BeatmapID,
			BeatmapsetID: b.BeatmapsetID,
			Title:        b.Title,
			Artist:       b.Artist,
			Creator:      b.Creator,
			Version:      b.Version,
			BPM:          parseFloat(b.BPM),
			Stars:        parseFloat(b.DifficultyRating),
			Mode:         domain.Mode(parseInt(b.Mode)),
			Status:       domain.RankedStatus(parseInt(b.Approved)),
			MaxCombo:     int(parseInt(b.MaxCombo)),
			TotalLength:  int(parseInt(b.TotalLength)),
		}
	}
	return maps, nil
}

// get performs one API call and decodes the JSON response into out. The API
// key travels in the query string, so error text is built from the endpoint
// name alone, never the full URL.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", endpoint, err)
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

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", endpoint, domain.ErrTransient)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", endpoint, domain.ErrUpstream)
	}
	return nil
}

// statusError maps a non-2xx status onto the domain error taxonomy.
func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrAuthentication
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return fmt.Errorf("%w: status %d", domain.ErrUpstream, code)
	}
}

// transportReason strips the request URL (it carries the API key) from a
// transport error before the message reaches logs or chat.
func transportReason(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err.Error()
	}
	return "request failed"
}

// The v1 API serializes every numeric field as a JSON string.
type userPayload struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Country       string `json:"country"`
	Level         string `json:"level"`
	PPRaw         string `json:"pp_raw"`
	Accuracy      string `json:"accuracy"`
	PlayCount     string `json:"playcount"`
	PPRank        string `json:"pp_rank"`
	PPCountryRank string `json:"pp_country_rank"`
}

type scorePayload struct {
	BeatmapID   string `json:"beatmap_id"`
	ScoreID     string `json:"score_id"`
	Score       string `json:"score"`
	MaxCombo    string `json:"maxcombo"`
	Count50     string `json:"count50"`
	Count100    string `json:"count100"`
	Count300    string `json:"count300"`
	CountMiss   string `json:"countmiss"`
	CountKatu   string `json:"countkatu"`
	CountGeki   string `json:"countgeki"`
	Perfect     string `json:"perfect"`
	EnabledMods string `json:"enabled_mods"`
	Date        string `json:"date"`
	Rank        string `json:"rank"`
	PP          string `json:"pp"`
}

func (s scorePayload) toRecord(mode domain.Mode) domain.ScoreRecord {
	counts := domain.HitCounts{
		Count300:  int(parseInt(s.Count300)),
		Count100:  int(parseInt(s.Count100)),
		Count50:   int(parseInt(s.Count50)),
		CountMiss: int(parseInt(s.CountMiss)),
		CountKatu: int(parseInt(s.CountKatu)),
		CountGeki: int(parseInt(s.CountGeki)),
	}
	achievedAt, _ := time.ParseInLocation(dateLayout, s.Date, time.UTC)
	return domain.ScoreRecord{
		BeatmapID:  parseInt(s.BeatmapID),
		ScoreID:    parseInt(s.ScoreID),
		Mode:       mode,
		Score:      parseInt(s.Score),
		MaxCombo:   int(parseInt(s.MaxCombo)),
		Counts:     counts,
		Perfect:    s.Perfect == "1",
		Accuracy:   counts.Accuracy(mode),
		Mods:       domain.Mods(parseInt(s.EnabledMods)),
		PP:         parseFloat(s.PP),
		Grade:      domain.ParseGrade(s.Rank),
		AchievedAt: achievedAt,
	}
}

type beatmapPayload struct {
	BeatmapsetID     string `json:"beatmapset_id"`
	BeatmapID        string `json:"beatmap_id"`
	Approved         string `json:"approved"`
	TotalLength      string `json:"total_length"`
	Version          string `json:"version"`
	Artist           string `json:"artist"`
	Title            string `json:"title"`
	Creator          string `json:"creator"`
	BPM              string `json:"bpm"`
	Mode             string `json:"mode"`
	MaxCombo         string `json:"max_combo"`
	DifficultyRating string `json:"difficultyrating"`
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
