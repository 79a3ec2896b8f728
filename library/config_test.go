package library

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{EnvJournal, EnvSeed, EnvLoanDays, EnvFinePerDay, EnvLogLevel} {
		t.Setenv(k, "")
	}
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 10, cfg.LoanPeriodDays)
	assert.Equal(t, 3.0, cfg.FinePerDay)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	for _, k := range []string{EnvJournal, EnvSeed, EnvLoanDays, EnvFinePerDay, EnvLogLevel} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("LIBRARY_LOAN_DAYS=14\nLIBRARY_FINE_PER_DAY=0.5\nLIBRARY_LOG_LEVEL=debug\nLIBRARY_JOURNAL=/tmp/j.db\n"), 0o644))

	cfg, err := LoadConfig(env)
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.LoanPeriodDays)
	assert.Equal(t, 0.5, cfg.FinePerDay)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "/tmp/j.db", cfg.JournalDSN)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		EnvLoanDays:   "0",
		EnvFinePerDay: "free",
		EnvLogLevel:   "loud",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := LoadConfig("")
			assert.Error(t, err)
		})
	}
}
