package domain

import (
	"fmt"
	"strings"
)

// Mode represents an osu! game mode. The numeric value is the wire value
// shared by the osu! API and osu!track.
type Mode int

const (
	ModeOsu    Mode = 0
	ModeTaiko  Mode = 1
	ModeFruits Mode = 2
	ModeMania  Mode = 3
)

// String returns the canonical osu! API name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeOsu:
		return "osu"
	case ModeTaiko:
		return "taiko"
	case ModeFruits:
		return "fruits"
	case ModeMania:
		return "mania"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether the mode is one of the four osu! game modes.
func (m Mode) Valid() bool {
	return m >= ModeOsu && m <= ModeMania
}

// ParseMode converts a user-supplied mode name to a Mode. The empty string
// defaults to osu!standard; common aliases (std, catch, ctb) are accepted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "osu", "std", "standard", "0":
		return ModeOsu, nil
	case "taiko", "1":
		return ModeTaiko, nil
	case "fruits", "catch", "ctb", "2":
		return ModeFruits, nil
	case "mania", "3":
		return ModeMania, nil
	default:
		return ModeOsu, fmt.Errorf("%w: unknown game mode %q", ErrInvalidRequest, s)
	}
}
