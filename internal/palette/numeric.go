package palette

import (
	"fmt"
	"math"
)

// Interval is a closed integer range [Min, Max].
type Interval struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

var (
	// LowercaseInterval spans 'a'..'z'. Codes outside it clamp to the extremes
	// when scaled, so uppercase letters and punctuation land on the low end.
	LowercaseInterval = Interval{Min: 'a', Max: 'z'}
	UppercaseInterval = Interval{Min: 'A', Max: 'Z'}
	ChannelInterval   = Interval{Min: 0, Max: 255}
	HueInterval       = Interval{Min: 0, Max: 360}
)

func (iv Interval) Validate() error {
	if iv.Max <= iv.Min {
		return fmt.Errorf("%w: max %d must be greater than min %d", ErrInvalidRange, iv.Max, iv.Min)
	}
	return nil
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Min, iv.Max)
}

func Clamp(value, min, max int) (int, error) {
	if min > max {
		return 0, fmt.Errorf("%w: clamp min %d > max %d", ErrInvalidRange, min, max)
	}
	return clamp(value, min, max), nil
}

// ClampChannel clamps into [0,255].
func ClampChannel(value int) int {
	return clamp(value, ChannelInterval.Min, ChannelInterval.Max)
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// WrapToRange returns value mod max in [0,max).
func WrapToRange(value, max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("%w: wrap max %d must be > 0", ErrInvalidRange, max)
	}
	return wrap(value, max), nil
}

func wrap(v, max int) int {
	r := v % max
	if r < 0 {
		r += max
	}
	return r
}

// ScaleValue clamps value into from and maps it linearly onto to, flooring the result.
func ScaleValue(value int, from, to Interval) (int, error) {
	if err := from.Validate(); err != nil {
		return 0, fmt.Errorf("scale from: %w", err)
	}
	if err := to.Validate(); err != nil {
		return 0, fmt.Errorf("scale to: %w", err)
	}
	return scale(value, from, to), nil
}

// ScaleDefault scales a code from the lowercase interval onto [0,255].
func ScaleDefault(value int) int {
	return scale(value, LowercaseInterval, ChannelInterval)
}

// scale assumes both intervals are valid. Differences are taken in float64
// so wide intervals cannot overflow, and the explicit float64 conversions keep
// the compiler from fusing the multiply and add, so results match plain IEEE
// double arithmetic on every architecture. The result always lies in to.
func scale(value int, from, to Interval) int {
	v := clamp(value, from.Min, from.Max)
	span := float64(float64(from.Max) - float64(from.Min))
	if !(span > 0) {
		// distinct ints that collapse to one float64
		return to.Min
	}
	ratio := float64(float64(v)-float64(from.Min)) / span
	scaled := math.Floor(float64(ratio*float64(float64(to.Max)-float64(to.Min))) + float64(to.Min))
	switch {
	case scaled <= float64(to.Min):
		return to.Min
	case scaled >= float64(to.Max):
		return to.Max
	}
	return int(scaled)
}
