package domain

import (
	"log/slog"
	"time"
)

// PlayerProfile holds the statistics of one player in one game mode.
// Profiles are fetched fresh per request and never cached.
type PlayerProfile struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Country     string  `json:"country,omitempty"`
	Level       float64 `json:"level"`
	PP          float64 `json:"pp"`
	Accuracy    float64 `json:"accuracy"`
	PlayCount   int64   `json:"play_count"`
	GlobalRank  int64   `json:"global_rank"`
	CountryRank int64   `json:"country_rank"`
	Mode        Mode    `json:"mode"`
}

// Credential is the stored osu! API key of one chat user. At most one key
// is active per user; setting a new one overwrites the old.
type Credential struct {
	UserID    string    `json:"user_id"`
	APIKey    string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LogValue keeps the key out of log output.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user_id", c.UserID),
		slog.String("api_key", "[redacted]"),
	)
}

// PeakStats is a player's all-time best rank and accuracy as recorded by
// osu!track. Fields are nil when the player has no recorded history.
type PeakStats struct {
	BestGlobalRank *int64     `json:"best_global_rank"`
	BestRankAt     *time.Time `json:"best_rank_at,omitempty"`
	BestAccuracy   *float64   `json:"best_accuracy"`
	BestAccuracyAt *time.Time `json:"best_accuracy_at,omitempty"`
}
