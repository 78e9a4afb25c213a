package domain

import (
	"strings"
	"time"
)

// Mods is the enabled_mods bitmask reported by the osu! API.
type Mods int64

const (
	ModNoFail Mods = 1 << iota
	ModEasy
	ModTouchDevice
	ModHidden
	ModHardRock
	ModSuddenDeath
	ModDoubleTime
	ModRelax
	ModHalfTime
	ModNightcore
	ModFlashlight
	ModAutoplay
	ModSpunOut
	ModAutopilot
	ModPerfect
)

// NoMod is the empty mod set.
const NoMod Mods = 0

var modTags = []struct {
	mod Mods
	tag string
}{
	{ModNoFail, "NF"},
	{ModEasy, "EZ"},
	{ModTouchDevice, "TD"},
	{ModHidden, "HD"},
	{ModHardRock, "HR"},
	{ModSuddenDeath, "SD"},
	{ModDoubleTime, "DT"},
	{ModRelax, "RX"},
	{ModHalfTime, "HT"},
	{ModNightcore, "NC"},
	{ModFlashlight, "FL"},
	{ModAutoplay, "AT"},
	{ModSpunOut, "SO"},
	{ModAutopilot, "AP"},
	{ModPerfect, "PF"},
}

// Has reports whether all bits in flag are set.
func (m Mods) Has(flag Mods) bool {
	return m&flag == flag
}

// Tags renders the bitmask as conventional two-letter mod tags. Nightcore
// subsumes DoubleTime and Perfect subsumes SuddenDeath, so the implied bit
// is not rendered twice.
func (m Mods) Tags() []string {
	if m == NoMod {
		return nil
	}
	if m.Has(ModNightcore) {
		m &^= ModDoubleTime
	}
	if m.Has(ModPerfect) {
		m &^= ModSuddenDeath
	}
	var tags []string
	for _, e := range modTags {
		if m&e.mod != 0 {
			tags = append(tags, e.tag)
		}
	}
	return tags
}

// String renders the mod set in +HDDT display form, or "None" when empty.
func (m Mods) String() string {
	tags := m.Tags()
	if len(tags) == 0 {
		return "None"
	}
	return "+" + strings.Join(tags, "")
}

// Grade is a score rank grade. SSH/SH are the hidden-flashlight variants of
// SS/S.
type Grade string

const (
	GradeSSH Grade = "SSH"
	GradeSS  Grade = "SS"
	GradeSH  Grade = "SH"
	GradeS   Grade = "S"
	GradeA   Grade = "A"
	GradeB   Grade = "B"
	GradeC   Grade = "C"
	GradeD   Grade = "D"
	GradeF   Grade = "F"
)

// ParseGrade normalizes the rank string reported by the osu! API, which
// spells the SS grades X and XH.
func ParseGrade(s string) Grade {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "XH":
		return GradeSSH
	case "X":
		return GradeSS
	default:
		return Grade(strings.ToUpper(strings.TrimSpace(s)))
	}
}

// HitCounts holds the per-judgement hit counters of one play.
type HitCounts struct {
	Count300  int `json:"count300"`
	Count100  int `json:"count100"`
	Count50   int `json:"count50"`
	CountMiss int `json:"countmiss"`
	CountKatu int `json:"countkatu"`
	CountGeki int `json:"countgeki"`
}

// Accuracy computes hit accuracy as a percentage for the given mode. The
// osu! API v1 does not return accuracy, so it is derived from the counters.
func (h HitCounts) Accuracy(mode Mode) float64 {
	switch mode {
	case ModeTaiko:
		total := h.Count300 + h.Count100 + h.CountMiss
		if total == 0 {
			return 0
		}
		return 100 * (float64(h.Count300) + 0.5*float64(h.Count100)) / float64(total)
	case ModeFruits:
		// katu counts missed droplets
		caught := h.Count300 + h.Count100 + h.Count50
		total := caught + h.CountMiss + h.CountKatu
		if total == 0 {
			return 0
		}
		return 100 * float64(caught) / float64(total)
	case ModeMania:
		points := 300*(h.CountGeki+h.Count300) + 200*h.CountKatu + 100*h.Count100 + 50*h.Count50
		total := h.CountGeki + h.Count300 + h.CountKatu + h.Count100 + h.Count50 + h.CountMiss
		if total == 0 {
			return 0
		}
		return 100 * float64(points) / float64(300*total)
	default:
		points := 300*h.Count300 + 100*h.Count100 + 50*h.Count50
		total := h.Count300 + h.Count100 + h.Count50 + h.CountMiss
		if total == 0 {
			return 0
		}
		return 100 * float64(points) / float64(300*total)
	}
}

// ScoreRecord is one best play as returned by the osu! API. Immutable once
// decoded; used only as input to the upload step.
type ScoreRecord struct {
	BeatmapID  int64     `json:"beatmap_id"`
	ScoreID    int64     `json:"score_id,omitempty"`
	Mode       Mode      `json:"mode"`
	Score      int64     `json:"score"`
	MaxCombo   int       `json:"maxcombo"`
	Counts     HitCounts `json:"counts"`
	Perfect    bool      `json:"perfect"`
	Accuracy   float64   `json:"accuracy"`
	Mods       Mods      `json:"enabled_mods"`
	PP         float64   `json:"pp"`
	Grade      Grade     `json:"rank"`
	AchievedAt time.Time `json:"date"`
}

// UploadBatch is the ordered set of scores submitted for one player+mode
// pair. Built immediately before submission, discarded after.
type UploadBatch struct {
	PlayerID string        `json:"player_id"`
	Mode     Mode          `json:"mode"`
	Scores   []ScoreRecord `json:"scores"`
}

// Empty reports whether the batch carries no scores.
func (b UploadBatch) Empty() bool {
	return len(b.Scores) == 0
}
