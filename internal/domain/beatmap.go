package domain

import (
	"fmt"
	"time"
)

// RankedStatus is the approval state of a beatmap.
type RankedStatus int

const (
	StatusGraveyard RankedStatus = -2
	StatusWIP       RankedStatus = -1
	StatusPending   RankedStatus = 0
	StatusRanked    RankedStatus = 1
	StatusApproved  RankedStatus = 2
	StatusQualified RankedStatus = 3
	StatusLoved     RankedStatus = 4
)

// String returns the display name of the status.
func (s RankedStatus) String() string {
	switch s {
	case StatusGraveyard:
		return "graveyard"
	case StatusWIP:
		return "wip"
	case StatusPending:
		return "pending"
	case StatusRanked:
		return "ranked"
	case StatusApproved:
		return "approved"
	case StatusQualified:
		return "qualified"
	case StatusLoved:
		return "loved"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// BeatmapFilter is the query surface of beatmap search. All fields are
// optional; zero values are left out of the upstream request.
type BeatmapFilter struct {
	Since            time.Time
	BeatmapsetID     string
	BeatmapID        string
	Player           string
	Mode             *Mode
	IncludeConverted bool
	Limit            int
}

// BeatmapSummary is the subset of beatmap metadata shown in chat.
type BeatmapSummary struct {
	BeatmapID    string       `json:"beatmap_id"`
	BeatmapsetID string       `json:"beatmapset_id"`
	Title        string       `json:"title"`
	Artist       string       `json:"artist"`
	Creator      string       `json:"creator"`
	Version      string       `json:"version"`
	BPM          float64      `json:"bpm"`
	Stars        float64      `json:"stars"`
	Mode         Mode         `json:"mode"`
	Status       RankedStatus `json:"status"`
	MaxCombo     int          `json:"max_combo,omitempty"`
	TotalLength  int          `json:"total_length"`
}
