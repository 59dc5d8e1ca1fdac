package palette

import "text-palette/internal/model"

// BuildPalette applies s to every code in order.
func BuildPalette(codes []int, s Strategy) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, s.Fn(c))
	}
	return out
}

func CountUniqueColors(p []string) int {
	seen := make(map[string]struct{}, len(p))
	for _, c := range p {
		seen[c] = struct{}{}
	}
	return len(seen)
}

func NewResult(s Strategy, p []string) model.PaletteResult {
	return model.PaletteResult{
		Strategy:    s.Name,
		Palette:     p,
		Count:       len(p),
		UniqueCount: CountUniqueColors(p),
	}
}

// Run builds one result per strategy, in set order.
func Run(codes []int, set []Strategy) []model.PaletteResult {
	out := make([]model.PaletteResult, 0, len(set))
	for _, s := range set {
		out = append(out, NewResult(s, BuildPalette(codes, s)))
	}
	return out
}
