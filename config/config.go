package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port           string
	PredictURL     string
	PredictTimeout time.Duration
	ReferenceYear  int // 0 = current year at call time
	MinYear        int
	MaxYear        int // 0 = current year at collect time
	StrictInput    bool
	ShowEngineered bool
	LogLevel       string
	LogFormat      string
}

// Load reads .env when present, then the process environment.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "[cfg] ignoring .env: %v\n", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function so tests need not touch
// the real environment.
func FromEnv(getenv func(string) string) (AppConfig, error) {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	cfg := AppConfig{
		Port:       get("PORT", "8501"),
		PredictURL: get("PREDICT_API_URL", "http://127.0.0.1:8000/predict"),
		LogLevel:   get("LOG_LEVEL", "INFO"),
		LogFormat:  get("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.PredictTimeout, err = parseTimeout(get("PREDICT_TIMEOUT", "10s")); err != nil {
		return cfg, err
	}
	if cfg.ReferenceYear, err = parseInt("REFERENCE_YEAR", get("REFERENCE_YEAR", "0")); err != nil {
		return cfg, err
	}
	if cfg.MinYear, err = parseInt("MIN_YEAR", get("MIN_YEAR", "1990")); err != nil {
		return cfg, err
	}
	if cfg.MaxYear, err = parseInt("MAX_YEAR", get("MAX_YEAR", "0")); err != nil {
		return cfg, err
	}
	cfg.StrictInput = get("STRICT_INPUT", "false") == "true"
	cfg.ShowEngineered = get("SHOW_ENGINEERED", "false") == "true"

	if cfg.MaxYear > 0 && cfg.MinYear > cfg.MaxYear {
		return cfg, fmt.Errorf("MIN_YEAR %d is after MAX_YEAR %d", cfg.MinYear, cfg.MaxYear)
	}
	if cfg.ReferenceYear < 0 {
		return cfg, fmt.Errorf("REFERENCE_YEAR must not be negative")
	}
	return cfg, nil
}

// parseTimeout accepts a Go duration ("10s") or plain seconds ("10", "2.5").
func parseTimeout(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("PREDICT_TIMEOUT must be positive")
		}
		return d, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("invalid PREDICT_TIMEOUT %q", v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func parseInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}
