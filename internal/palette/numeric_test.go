package palette

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name        string
		v, min, max int
		want        int
	}{
		{"inside", 42, 0, 255, 42},
		{"below", -5, 0, 255, 0},
		{"above", 300, 0, 255, 255},
		{"degenerate", 5, 10, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Clamp(tt.v, tt.min, tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Clamp(1, 5, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestClampChannel(t *testing.T) {
	assert.Equal(t, 0, ClampChannel(-1))
	assert.Equal(t, 97, ClampChannel(97))
	assert.Equal(t, 255, ClampChannel(1000))
}

func TestWrapToRange(t *testing.T) {
	got, err := WrapToRange(-3, 256)
	require.NoError(t, err)
	assert.Equal(t, 253, got)

	got, err = WrapToRange(512, 256)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	got, err = WrapToRange(679, 256)
	require.NoError(t, err)
	assert.Equal(t, 167, got)

	_, err = WrapToRange(10, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = WrapToRange(10, -4)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestScaleValueEndpoints(t *testing.T) {
	lo, err := ScaleValue(97, LowercaseInterval, ChannelInterval)
	require.NoError(t, err)
	assert.Equal(t, 0, lo)

	hi, err := ScaleValue(122, LowercaseInterval, ChannelInterval)
	require.NoError(t, err)
	assert.Equal(t, 255, hi)
}

func TestScaleValueClampsAndFloors(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{'A', 0},
		{'.', 0},
		{'~', 255},
		{110, 132},
		{105, 81},
		{113, 163},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScaleDefault(tt.code), "code %d", tt.code)
	}

	hue, err := ScaleValue('b', LowercaseInterval, HueInterval)
	require.NoError(t, err)
	assert.Equal(t, 14, hue)
}

func TestScaleValueInvalidIntervals(t *testing.T) {
	_, err := ScaleValue(100, Interval{Min: 122, Max: 97}, ChannelInterval)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = ScaleValue(100, LowercaseInterval, Interval{Min: 5, Max: 5})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestScaleValueWideIntervals(t *testing.T) {
	full := Interval{Min: math.MinInt, Max: math.MaxInt}

	got, err := ScaleValue('a', full, ChannelInterval)
	require.NoError(t, err)
	assert.Equal(t, 127, got)

	for _, v := range []int{math.MinInt, -1, 0, 'z', math.MaxInt} {
		got, err := ScaleValue(v, full, ChannelInterval)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 0, "v=%d", v)
		assert.LessOrEqual(t, got, 255, "v=%d", v)
	}

	got, err = ScaleValue(10, Interval{Min: 0, Max: 10}, full)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, got)
	got, err = ScaleValue(5, Interval{Min: 0, Max: 10}, full)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	// bounds that round to the same float64
	got, err = ScaleValue(1<<62+1, Interval{Min: 1 << 62, Max: 1<<62 + 1}, ChannelInterval)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}
