package model

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    OptionValue
		wantErr bool
	}{
		{
			name: "Long hex color",
			raw:  "#ff0000",
			want: OptionValue{Kind: OptionValueColor, Color: color.NRGBA{R: 255, A: 255}},
		},
		{
			name: "Short hex color",
			raw:  "#0af",
			want: OptionValue{Kind: OptionValueColor, Color: color.NRGBA{G: 0xaa, B: 0xff, A: 255}},
		},
		{
			name: "Pattern URL",
			raw:  "https://cdn.example.com/stripes.png",
			want: OptionValue{Kind: OptionValuePattern, PatternRef: "https://cdn.example.com/stripes.png"},
		},
		{
			name: "Pattern storage key",
			raw:  "patterns/camo.png",
			want: OptionValue{Kind: OptionValuePattern, PatternRef: "patterns/camo.png"},
		},
		{name: "Empty", raw: "", wantErr: true},
		{name: "Bad length", raw: "#ff00", wantErr: true},
		{name: "Not hex", raw: "#gggggg", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptionValue(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOptionValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLayerTypeAccepts(t *testing.T) {
	assert.True(t, LayerTypeColor.Accepts(OptionValueColor))
	assert.False(t, LayerTypeColor.Accepts(OptionValuePattern))
	assert.True(t, LayerTypePattern.Accepts(OptionValuePattern))
	assert.False(t, LayerTypePattern.Accepts(OptionValueColor))
	assert.True(t, LayerTypeOptional.Accepts(OptionValueColor))
	assert.True(t, LayerTypeOptional.Accepts(OptionValuePattern))
	assert.False(t, LayerTypeBase.Accepts(OptionValueColor))

	assert.True(t, LayerTypeColor.RequiresSelection())
	assert.True(t, LayerTypePattern.RequiresSelection())
	assert.False(t, LayerTypeOptional.RequiresSelection())
	assert.False(t, LayerTypeBase.RequiresSelection())
	assert.False(t, LayerType("gradient").Valid())
}
