// Package render formats palette reports for terminals and structured output.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"text-palette/internal/model"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type TextOptions struct {
	// Swatches adds a row of colored cells under every palette. Whether
	// escape codes are emitted depends on what the writer supports.
	Swatches bool
	// Trace prints one "symbol -> code -> color" line per character.
	Trace bool
}

func Write(w io.Writer, format string, reports []model.PaletteReport, opts TextOptions) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return Text(w, reports, opts)
	case FormatJSON:
		return JSON(w, reports)
	case FormatYAML:
		return YAML(w, reports)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func Text(w io.Writer, reports []model.PaletteReport, opts TextOptions) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)

	var b strings.Builder
	for i, rep := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Original message: %s\n", rep.Message)
		fmt.Fprintf(&b, "Modified message (no spaces): %s\n", rep.Prepared)
		fmt.Fprintf(&b, "Char codes: {%s}\n", joinInts(rep.Codes))
		for _, res := range rep.Results {
			fmt.Fprintf(&b, "\n%s\n", title.Render("=== "+res.Strategy+" ==="))
			fmt.Fprintf(&b, "Palette: %s\n", strings.Join(res.Palette, ", "))
			if opts.Swatches {
				fmt.Fprintf(&b, "Swatches: %s\n", swatches(r, res.Palette))
			}
			if opts.Trace {
				for i, code := range rep.Codes {
					if i < len(res.Palette) {
						fmt.Fprintf(&b, "%c -> %d -> %s\n", rune(code), code, res.Palette[i])
					}
				}
			}
			fmt.Fprintf(&b, "All colors count: %d\n", res.Count)
			fmt.Fprintf(&b, "Unique colors count: %d\n", res.UniqueCount)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func swatches(r *lipgloss.Renderer, colors []string) string {
	var b strings.Builder
	for _, c := range colors {
		b.WriteString(r.NewStyle().Background(lipgloss.Color(c)).Render("  "))
	}
	return b.String()
}

func joinInts(v []int) string {
	parts := make([]string, 0, len(v))
	for _, n := range v {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ", ")
}

func JSON(w io.Writer, reports []model.PaletteReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func YAML(w io.Writer, reports []model.PaletteReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}
