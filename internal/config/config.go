package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr         string
	DataPath           string
	MaxUploadSizeBytes int64
	CodeIntervalMin    int
	CodeIntervalMax    int
	MaxMessageLength   int
	MaxBatchSize       int
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		DataPath:           getEnv("DATA_PATH", "./data/messages.json"),
		MaxUploadSizeBytes: getEnvInt64("MAX_UPLOAD_SIZE_BYTES", 1024*1024, &errs),
		CodeIntervalMin:    getEnvInt("CODE_INTERVAL_MIN", 'a', &errs),
		CodeIntervalMax:    getEnvInt("CODE_INTERVAL_MAX", 'z', &errs),
		MaxMessageLength:   getEnvInt("MAX_MESSAGE_LENGTH", 4096, &errs),
		MaxBatchSize:       getEnvInt("MAX_BATCH_SIZE", 16, &errs),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 10, &errs),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20, &errs),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	if cfg.CodeIntervalMax <= cfg.CodeIntervalMin {
		return Config{}, errors.New("code interval max must be > min")
	}
	if cfg.CodeIntervalMin < 0 {
		return Config{}, errors.New("code interval min must be >= 0")
	}
	if cfg.MaxUploadSizeBytes <= 0 {
		return Config{}, errors.New("max upload size must be > 0")
	}
	if cfg.MaxMessageLength <= 0 {
		return Config{}, errors.New("max message length must be > 0")
	}
	if cfg.MaxBatchSize <= 0 {
		return Config{}, errors.New("max batch size must be > 0")
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return Config{}, errors.New("rate limit rps and burst must be > 0")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64, errs *[]error) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid number %q", key, v))
		return fallback
	}
	return f
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := make([]string, 0, 4)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
