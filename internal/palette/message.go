package palette

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type PrepareOptions struct {
	LettersOnly bool `json:"letters_only" yaml:"letters_only"`
	Lowercase   bool `json:"lowercase" yaml:"lowercase"`
}

// PrepareMessage drops spaces and applies the optional letter filter and
// lowercase folding. Only U+0020 is stripped; tabs and newlines stay.
func PrepareMessage(msg string, opts PrepareOptions) string {
	out := strings.ReplaceAll(msg, " ", "")
	if opts.LettersOnly {
		out = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) {
				return r
			}
			return -1
		}, out)
	}
	if opts.Lowercase {
		out = cases.Lower(language.Und).String(out)
	}
	return out
}

// CharCodes returns the code point of every rune.
func CharCodes(prepared string) []int {
	codes := make([]int, 0, len(prepared))
	for _, r := range prepared {
		codes = append(codes, int(r))
	}
	return codes
}
