package palette

import (
	"fmt"
	"strings"
)

const (
	StrategyRaw              = "raw"
	StrategyMultiplierModulo = "multiplier-modulo"
	StrategySpectrumScale    = "spectrum-scale"
	StrategyChannelThreshold = "single-channel-threshold"
	StrategyHSLVivid         = "HSL(100,50)"
	StrategyHSLPastel        = "HSL(35,65)"
)

// Strategy maps one character code to one color.
type Strategy struct {
	Name string
	Fn   func(code int) string
}

// Strategies builds the fixed, ordered strategy set for a code interval.
// The scaling strategies map iv onto their output range; codes outside iv
// clamp to the interval ends.
func Strategies(iv Interval) ([]Strategy, error) {
	if err := iv.Validate(); err != nil {
		return nil, fmt.Errorf("code interval: %w", err)
	}
	return []Strategy{
		{Name: StrategyRaw, Fn: rawColor},
		{Name: StrategyMultiplierModulo, Fn: multiplierModuloColor},
		{Name: StrategySpectrumScale, Fn: func(code int) string {
			v := scale(code, iv, ChannelInterval)
			return rgbToHex(v, v, v)
		}},
		{Name: StrategyChannelThreshold, Fn: func(code int) string {
			return thresholdColor(scale(code, iv, ChannelInterval))
		}},
		{Name: StrategyHSLVivid, Fn: hslStrategy(iv, 100, 50)},
		{Name: StrategyHSLPastel, Fn: hslStrategy(iv, 35, 65)},
	}, nil
}

// DefaultStrategies uses LowercaseInterval.
func DefaultStrategies() []Strategy {
	set, _ := Strategies(LowercaseInterval)
	return set
}

func Names() []string {
	set := DefaultStrategies()
	out := make([]string, 0, len(set))
	for _, s := range set {
		out = append(out, s.Name)
	}
	return out
}

// Lookup returns the strategies of set named in names, in set order.
// An empty names list selects the whole set.
func Lookup(set []Strategy, names ...string) ([]Strategy, error) {
	if len(names) == 0 {
		return set, nil
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if !hasStrategy(set, n) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, n)
		}
		want[n] = struct{}{}
	}
	out := make([]Strategy, 0, len(want))
	for _, s := range set {
		if _, ok := want[s.Name]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func hasStrategy(set []Strategy, name string) bool {
	for _, s := range set {
		if s.Name == name {
			return true
		}
	}
	return false
}

func rawColor(code int) string {
	v := ClampChannel(code)
	return rgbToHex(v, v, v)
}

func multiplierModuloColor(code int) string {
	return rgbToHex(wrap(code*2, 256), wrap(code*7, 256), wrap(code*12, 256))
}

func thresholdColor(v int) string {
	switch {
	case float64(v) < 255.0/3:
		return rgbToHex(255, 0, 0)
	case float64(v) > 255.0*2/3:
		return rgbToHex(0, 0, 255)
	default:
		return rgbToHex(0, 255, 0)
	}
}

func hslStrategy(iv Interval, saturation, lightness float64) func(int) string {
	return func(code int) string {
		hue := scale(code, iv, HueInterval)
		r, g, b := hslToRGB(float64(hue), saturation, lightness)
		return rgbToHex(r, g, b)
	}
}
