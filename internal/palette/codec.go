package palette

import (
	"fmt"
	"math"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"

	"text-palette/internal/model"
)

// ToHexByte encodes one channel as two lowercase hex digits.
func ToHexByte(value int) (string, error) {
	if value < ChannelInterval.Min || value > ChannelInterval.Max {
		return "", fmt.Errorf("%w: %d", ErrInvalidChannelValue, value)
	}
	return hexByte(value), nil
}

func hexByte(v int) string {
	s := strconv.FormatInt(int64(v), 16)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// RGBToHex returns "#rrggbb". Channels are not clamped here.
func RGBToHex(r, g, b int) (string, error) {
	for _, ch := range []struct {
		name string
		v    int
	}{{"r", r}, {"g", g}, {"b", b}} {
		if ch.v < ChannelInterval.Min || ch.v > ChannelInterval.Max {
			return "", fmt.Errorf("%s: %w: %d", ch.name, ErrInvalidChannelValue, ch.v)
		}
	}
	return rgbToHex(r, g, b), nil
}

func rgbToHex(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

// HSLToHex converts hue in degrees [0,360] and saturation/lightness in
// percent [0,100] to "#rrggbb".
func HSLToHex(h, s, l float64) (string, error) {
	if h < 0 || h > 360 || math.IsNaN(h) {
		return "", fmt.Errorf("%w: hue %v outside [0,360]", ErrInvalidRange, h)
	}
	if s < 0 || s > 100 || math.IsNaN(s) {
		return "", fmt.Errorf("%w: saturation %v outside [0,100]", ErrInvalidRange, s)
	}
	if l < 0 || l > 100 || math.IsNaN(l) {
		return "", fmt.Errorf("%w: lightness %v outside [0,100]", ErrInvalidRange, l)
	}
	r, g, b := hslToRGB(h, s, l)
	return RGBToHex(r, g, b)
}

func hslToRGB(h, s, l float64) (int, int, int) {
	s /= 100
	l /= 100
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return channel(r + m), channel(g + m), channel(b + m)
}

func channel(v float64) int {
	return ClampChannel(int(math.Round(v * 255)))
}

// ParseHex decodes "#rrggbb" back into its channels.
func ParseHex(color string) (model.RGB, error) {
	if len(color) != 7 || color[0] != '#' {
		return model.RGB{}, fmt.Errorf("parse color %q: want #rrggbb", color)
	}
	c, err := colorful.Hex(color)
	if err != nil {
		return model.RGB{}, fmt.Errorf("parse color %q: %w", color, err)
	}
	r, g, b := c.RGB255()
	return model.RGB{R: r, G: g, B: b}, nil
}
