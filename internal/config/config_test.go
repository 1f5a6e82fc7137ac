package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, int64(1), cfg.DefaultTerminalID)
	assert.Equal(t, "0.12", cfg.TaxRate.String())
	assert.Equal(t, 10, cfg.SearchLimit)
	assert.Equal(t, 15*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, 30*time.Second, cfg.StatusPollInterval)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
	assert.Equal(t, 16, cfg.MaxTerminals)
	assert.Equal(t, 10*time.Second, cfg.SideEffectTimeout)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.DevMode)
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TERMINAL_ID", "4")
	t.Setenv("TAX_RATE", "0.075")
	t.Setenv("SUBMIT_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("RATE_LIMIT", "2.5")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, int64(4), cfg.DefaultTerminalID)
	assert.Equal(t, "0.075", cfg.TaxRate.String())
	assert.Equal(t, 5*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 2.5, cfg.RateLimit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"TAX_RATE", "twelve"},
		{"TAX_RATE", "-0.1"},
		{"TERMINAL_ID", "0"},
		{"SEARCH_LIMIT", "ten"},
		{"SUBMIT_TIMEOUT", "soon"},
		{"DEV_MODE", "maybe"},
		{"BREAKER_FAILURES", "0"},
		{"BREAKER_FAILURES", "-1"},
		{"MAX_TERMINALS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
