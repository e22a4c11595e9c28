package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "SAFE_LOG_LEVEL"
	EnvLogNoColor = "SAFE_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config controls the console logger.
type Config struct {
	App     string
	Level   zerolog.Level
	NoColor bool
	Out     io.Writer
}

// DefaultConfig returns the profile defaults with env overrides applied.
func DefaultConfig(app string, profile Profile) Config {
	cfg := Config{App: app, Out: os.Stderr}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.Disabled
	default:
		cfg.Level = zerolog.WarnLevel
	}
	applyEnvOverrides(&cfg)
	return cfg
}

// New builds a console logger tagged with the app name.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	w := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	return zerolog.New(w).Level(cfg.Level).With().Timestamp().Str("app", cfg.App).Logger()
}

// ParseLevel accepts the usual level names plus "off".
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvLogNoColor))); err == nil {
		cfg.NoColor = v
	}
}
