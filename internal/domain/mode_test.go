package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Mode
		wantErr bool
	}{
		{name: "empty defaults to osu", input: "", want: ModeOsu},
		{name: "osu", input: "osu", want: ModeOsu},
		{name: "std alias", input: "std", want: ModeOsu},
		{name: "standard alias", input: "standard", want: ModeOsu},
		{name: "taiko", input: "taiko", want: ModeTaiko},
		{name: "fruits", input: "fruits", want: ModeFruits},
		{name: "catch alias", input: "catch", want: ModeFruits},
		{name: "ctb alias", input: "ctb", want: ModeFruits},
		{name: "mania", input: "mania", want: ModeMania},
		{name: "numeric", input: "3", want: ModeMania},
		{name: "mixed case with spaces", input: "  Taiko ", want: ModeTaiko},
		{name: "unknown", input: "bongo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "osu", ModeOsu.String())
	assert.Equal(t, "taiko", ModeTaiko.String())
	assert.Equal(t, "fruits", ModeFruits.String())
	assert.Equal(t, "mania", ModeMania.String())
	assert.Equal(t, "mode(7)", Mode(7).String())
}

func TestModeValid(t *testing.T) {
	assert.True(t, ModeOsu.Valid())
	assert.True(t, ModeMania.Valid())
	assert.False(t, Mode(-1).Valid())
	assert.False(t, Mode(4).Valid())
}
