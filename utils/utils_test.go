package utils

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMath_MinMaxClamp(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(2, Min(2, 5))
	assert.Equal(2, Min(5, 2))
	assert.Equal(5, Max(2, 5))
	assert.Equal(3.5, Abs(-3.5))
	assert.Equal(10, Clamp(42, 0, 10))
	assert.Equal(0, Clamp(-1, 0, 10))
	assert.Equal(7, Clamp(7, 0, 10))
	assert.True(Contains([]string{"multiply", "overlay"}, "overlay"))
	assert.False(Contains([]string{"multiply", "overlay"}, "hue"))
}

func TestColor_ParseHexColor(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		in   string
		want color.NRGBA
		err  bool
	}{
		{in: "#E8A89A", want: color.NRGBA{R: 0xe8, G: 0xa8, B: 0x9a, A: 0xff}},
		{in: "e8a89a", want: color.NRGBA{R: 0xe8, G: 0xa8, B: 0x9a, A: 0xff}},
		{in: "#f00", want: color.NRGBA{R: 0xff, A: 0xff}},
		{in: "#00ff0080", want: color.NRGBA{G: 0xff, A: 0x80}},
		{in: "#12345", err: true},
		{in: "#zzzzzz", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.err {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tt.want, got)
		})
	}

	assert.Equal(color.NRGBA{A: 0xff}, HexToRGBA("bogus"))
	assert.Equal(color.NRGBA{R: 255, G: 255, B: 255, A: 255}, Tint(color.NRGBA{A: 255}, 1))
}

func TestFormat_FormatTime(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal("2m 5.00s", FormatTime(2*time.Minute+5*time.Second))
	assert.Equal("1h 1m 1.00s", FormatTime(time.Hour+time.Minute+time.Second))
	assert.Equal("30.0 fps", FormatRate(60, 2*time.Second))
	assert.Equal(SuccessColor+"ok"+DefaultColor, DecorateText("ok", SuccessMessage))
}
