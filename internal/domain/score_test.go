package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModsTags(t *testing.T) {
	tests := []struct {
		name string
		mods Mods
		want []string
	}{
		{name: "no mods", mods: NoMod, want: nil},
		{name: "single", mods: ModHidden, want: []string{"HD"}},
		{name: "hidden doubletime", mods: ModHidden | ModDoubleTime, want: []string{"HD", "DT"}},
		{name: "nightcore subsumes doubletime", mods: ModNightcore | ModDoubleTime, want: []string{"NC"}},
		{name: "perfect subsumes suddendeath", mods: ModPerfect | ModSuddenDeath | ModHidden, want: []string{"HD", "PF"}},
		{name: "classic hdhrfl", mods: ModHidden | ModHardRock | ModFlashlight, want: []string{"HD", "HR", "FL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mods.Tags())
		})
	}
}

func TestModsString(t *testing.T) {
	assert.Equal(t, "None", NoMod.String())
	assert.Equal(t, "+HDDT", (ModHidden | ModDoubleTime).String())
	assert.Equal(t, "+HDNC", (ModHidden | ModNightcore | ModDoubleTime).String())
}

func TestParseGrade(t *testing.T) {
	assert.Equal(t, GradeSSH, ParseGrade("XH"))
	assert.Equal(t, GradeSS, ParseGrade("X"))
	assert.Equal(t, GradeSH, ParseGrade("SH"))
	assert.Equal(t, GradeS, ParseGrade("s"))
	assert.Equal(t, GradeA, ParseGrade(" A "))
	assert.Equal(t, GradeF, ParseGrade("F"))
}

func TestHitCountsAccuracy(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		counts HitCounts
		want   float64
	}{
		{
			name:   "osu perfect",
			mode:   ModeOsu,
			counts: HitCounts{Count300: 100},
			want:   100,
		},
		{
			name:   "osu mixed",
			mode:   ModeOsu,
			counts: HitCounts{Count300: 9, Count100: 1},
			want:   93.33333333333333,
		},
		{
			name:   "taiko goods count half",
			mode:   ModeTaiko,
			counts: HitCounts{Count300: 9, Count100: 2, CountMiss: 1},
			want:   83.33333333333334,
		},
		{
			name:   "fruits droplets",
			mode:   ModeFruits,
			counts: HitCounts{Count300: 95, Count100: 2, Count50: 1, CountMiss: 1, CountKatu: 1},
			want:   98,
		},
		{
			name:   "mania weighted",
			mode:   ModeMania,
			counts: HitCounts{CountGeki: 10, Count300: 80, CountKatu: 5, Count100: 3, Count50: 1, CountMiss: 1},
			want:   94.5,
		},
		{
			name:   "no hits",
			mode:   ModeOsu,
			counts: HitCounts{},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.counts.Accuracy(tt.mode), 1e-9)
		})
	}
}

func TestUploadBatchEmpty(t *testing.T) {
	assert.True(t, UploadBatch{}.Empty())
	assert.False(t, UploadBatch{Scores: []ScoreRecord{{BeatmapID: 1}}}.Empty())
}
