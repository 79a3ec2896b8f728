package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfig.
const (
	EnvJournal    = "LIBRARY_JOURNAL"
	EnvSeed       = "LIBRARY_SEED"
	EnvLoanDays   = "LIBRARY_LOAN_DAYS"
	EnvFinePerDay = "LIBRARY_FINE_PER_DAY"
	EnvLogLevel   = "LIBRARY_LOG_LEVEL"
)

// Config holds the settings of one library session.
type Config struct {
	JournalDSN     string
	SeedFile       string
	LoanPeriodDays int
	FinePerDay     float64
	LogLevel       slog.Level
}

func DefaultConfig() Config {
	return Config{
		JournalDSN:     MemoryJournal,
		LoanPeriodDays: defaultLoanPeriodDays,
		FinePerDay:     defaultFinePerDay,
		LogLevel:       slog.LevelWarn,
	}
}

// LoadConfig starts from DefaultConfig, loads envFile (if it exists) into the
// process environment and then applies the LIBRARY_* variables.
func LoadConfig(envFile string) (Config, error) {
	cfg := DefaultConfig()
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if v := os.Getenv(EnvJournal); v != "" {
		cfg.JournalDSN = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		cfg.SeedFile = v
	}
	if v := os.Getenv(EnvLoanDays); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("%s=%q: must be a positive integer", EnvLoanDays, v)
		}
		cfg.LoanPeriodDays = n
	}
	if v := os.Getenv(EnvFinePerDay); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return cfg, fmt.Errorf("%s=%q: must be a positive number", EnvFinePerDay, v)
		}
		cfg.FinePerDay = f
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		lvl, err := ParseLogLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// ParseLogLevel accepts debug, info, warn or error (any case).
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelWarn, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}
