package osuapi

import "fmt"

// Asset URLs live on separate ppy.sh hosts and need no API key.

// CoverURL returns the full-size cover image for a beatmap set.
func CoverURL(beatmapsetID string) string {
	return fmt.Sprintf("https://assets.ppy.sh/beatmaps/%s/covers/cover.jpg", beatmapsetID)
}

// CoverThumbURL returns the cover thumbnail for a beatmap set.
func CoverThumbURL(beatmapsetID string) string {
	return fmt.Sprintf("https://b.ppy.sh/thumb/%sl.jpg", beatmapsetID)
}

// AvatarURL returns a player's profile image.
func AvatarURL(playerID string) string {
	return fmt.Sprintf("https://a.ppy.sh/%s", playerID)
}
