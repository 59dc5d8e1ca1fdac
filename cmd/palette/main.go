// Command palette turns a message into color palettes, one per strategy.
//
// Without -m or -defaults it asks for a message on the terminal; a blank
// answer uses the default task quote.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"text-palette/internal/config"
	"text-palette/internal/model"
	"text-palette/internal/palette"
	"text-palette/internal/render"
	"text-palette/internal/service"
	"text-palette/internal/storage"
)

const promptText = "Please, enter a message: "

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("palette: %v", err)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	message := fs.String("m", "", "message to convert")
	defaults := fs.Bool("defaults", false, "run the built-in messages")
	format := fs.String("format", render.FormatText, "output format: text, json or yaml")
	letters := fs.Bool("letters", false, "keep letters only")
	lower := fs.Bool("lower", false, "lowercase the message")
	interval := fs.String("interval", "", "code interval for scaling strategies, e.g. 65:90 or upper")
	strategies := fs.String("strategies", "", "comma separated strategy names (default all)")
	noColor := fs.Bool("no-color", false, "disable color swatches in text output")
	trace := fs.Bool("trace", false, "print symbol -> code -> color for every character")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc := service.NewPaletteService(cfg, nil, nil)

	base := service.GenerateRequest{
		Options:           palette.PrepareOptions{LettersOnly: *letters, Lowercase: *lower},
		Strategies:        splitList(*strategies),
		FallbackToDefault: true,
	}
	if *interval != "" {
		iv, err := parseInterval(*interval)
		if err != nil {
			return err
		}
		base.Interval = &iv
	}

	var messages []string
	switch {
	case *defaults:
		for _, m := range storage.BuiltinMessages() {
			messages = append(messages, m.Text)
		}
	case *message != "":
		messages = []string{*message}
	default:
		line, err := promptMessage(stdin, stdout)
		if err != nil {
			return err
		}
		messages = []string{line}
	}

	reqs := make([]service.GenerateRequest, 0, len(messages))
	for _, m := range messages {
		req := base
		req.Message = m
		reqs = append(reqs, req)
	}

	var reports []model.PaletteReport
	if len(reqs) == 1 {
		report, err := svc.Generate(ctx, reqs[0])
		if err != nil {
			return err
		}
		reports = []model.PaletteReport{report}
	} else if reports, err = svc.GenerateBatch(ctx, reqs); err != nil {
		return err
	}

	return render.Write(stdout, *format, reports, render.TextOptions{Swatches: !*noColor, Trace: *trace})
}

func promptMessage(stdin io.Reader, stdout io.Writer) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       promptText,
		Stdin:        io.NopCloser(stdin),
		Stdout:       stdout,
		HistoryLimit: -1,
	})
	if err != nil {
		return "", err
	}
	defer rl.Close()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", nil
	}
	return line, err
}

// parseInterval accepts "min:max", "lower" or "upper".
func parseInterval(s string) (palette.Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lower":
		return palette.LowercaseInterval, nil
	case "upper":
		return palette.UppercaseInterval, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return palette.Interval{}, fmt.Errorf("interval %q: want min:max", s)
	}
	min, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return palette.Interval{}, fmt.Errorf("interval min: %w", err)
	}
	max, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return palette.Interval{}, fmt.Errorf("interval max: %w", err)
	}
	iv := palette.Interval{Min: min, Max: max}
	return iv, iv.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
