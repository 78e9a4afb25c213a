package command

import (
	"fmt"
	"strings"

	"github.com/osutrack-bridge/internal/domain"
	"github.com/osutrack-bridge/internal/osuapi"
)

// Replies are plain chat text: one emoji-led fact per line, joined with
// newlines, the way the bot has always presented them.

func renderUploadResult(mode domain.Mode, result *domain.UploadResult) string {
	modeName := strings.ToUpper(mode.String())

	if result.Accepted == 0 && result.Rejected == 0 && result.NewBests == 0 {
		return fmt.Sprintf("✅ %s has no best scores in %s mode, nothing to upload.", result.Username, modeName)
	}

	lines := []string{
		"✅ Scores uploaded to osu!track!",
		fmt.Sprintf("🎮 Player: %s", result.Username),
		fmt.Sprintf("🎯 Mode: %s", modeName),
		fmt.Sprintf("📊 Accepted: %d, rejected: %d", result.Accepted, result.Rejected),
	}
	if result.NewBests > 0 {
		lines = append(lines, fmt.Sprintf("🆕 %d new best plays recorded", result.NewBests))
	}
	if result.FirstUpdate {
		lines = append(lines, "📌 First update for this player, stats recorded as baseline")
	}
	return strings.Join(lines, "\n")
}

func renderProfile(p *domain.PlayerProfile) string {
	lines := []string{
		"📋 Player info:",
		fmt.Sprintf("🎮 Username: %s", p.Username),
		fmt.Sprintf("🆔 User ID: %s", p.ID),
	}
	if p.Country != "" {
		lines = append(lines, fmt.Sprintf("🌍 Country: %s", p.Country))
	}
	lines = append(lines,
		fmt.Sprintf("⭐ Level: %.1f", p.Level),
		fmt.Sprintf("🏆 PP: %.0f", p.PP),
		fmt.Sprintf("🎯 Accuracy: %.2f%%", p.Accuracy),
		fmt.Sprintf("🎲 Play count: %d", p.PlayCount),
	)
	if p.GlobalRank > 0 {
		lines = append(lines, fmt.Sprintf("🌍 Global rank: #%d", p.GlobalRank))
	}
	if p.CountryRank > 0 {
		lines = append(lines, fmt.Sprintf("🏳️ Country rank: #%d", p.CountryRank))
	}
	lines = append(lines, fmt.Sprintf("🖼 %s", osuapi.AvatarURL(p.ID)))
	return strings.Join(lines, "\n")
}

func renderBeatmaps(maps []domain.BeatmapSummary) string {
	if len(maps) == 0 {
		return "🔍 No beatmaps found for that set."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎵 Found %d beatmap(s):\n", len(maps))
	for _, m := range maps {
		fmt.Fprintf(&b, "  %s - %s [%s] by %s\n", m.Artist, m.Title, m.Version, m.Creator)
		fmt.Fprintf(&b, "    ⭐ %.2f stars | %s | %s | %d BPM\n", m.Stars, m.Mode.String(), m.Status.String(), int(m.BPM))
	}
	fmt.Fprintf(&b, "🖼 %s", osuapi.CoverThumbURL(maps[0].BeatmapsetID))
	return b.String()
}

func renderPeak(profile *domain.PlayerProfile, peak *domain.PeakStats, mode domain.Mode) string {
	lines := []string{
		fmt.Sprintf("📈 All-time peak for %s (%s):", profile.Username, strings.ToUpper(mode.String())),
	}
	if peak.BestGlobalRank != nil {
		line := fmt.Sprintf("🏆 Best global rank: #%d", *peak.BestGlobalRank)
		if peak.BestRankAt != nil {
			line += fmt.Sprintf(" on %s", peak.BestRankAt.Format("2006-01-02"))
		}
		lines = append(lines, line)
	}
	if peak.BestAccuracy != nil {
		line := fmt.Sprintf("🎯 Best accuracy: %.2f%%", *peak.BestAccuracy)
		if peak.BestAccuracyAt != nil {
			line += fmt.Sprintf(" on %s", peak.BestAccuracyAt.Format("2006-01-02"))
		}
		lines = append(lines, line)
	}
	if len(lines) == 1 {
		lines = append(lines, "No peak data recorded yet. Run update first.")
	}
	return strings.Join(lines, "\n")
}
