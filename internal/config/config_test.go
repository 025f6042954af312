package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/quality"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "./data", cfg.SinkRoot)
	assert.Equal(t, "default", cfg.StreamID)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0.25, cfg.TickSize)
	assert.Equal(t, 2, cfg.VWAPBandCount)
	assert.Equal(t, 4, cfg.PVWAPBandCount)
	assert.Equal(t, 500*time.Millisecond, cfg.TimestampTolerance)
	assert.True(t, cfg.EnablePVWAP)
	assert.False(t, cfg.EnableRangeSeries)
	assert.Contains(t, cfg.VWAPCandidates, "Volume Weighted Average Price")
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("STREAM_ID", "es")
	t.Setenv("TICK_SIZE", "0.5")
	t.Setenv("VWAP_CANDIDATES", "Custom VWAP;Fallback")
	t.Setenv("TIMESTAMP_TOLERANCE_MS", "250")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "es", cfg.StreamID)
	assert.Equal(t, 0.5, cfg.TickSize)
	assert.Equal(t, []string{"Custom VWAP", "Fallback"}, cfg.VWAPCandidates)
	assert.Equal(t, 250*time.Millisecond, cfg.TimestampTolerance)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }},
		{name: "zero tick size", mutate: func(c *Config) { c.TickSize = 0 }},
		{name: "tick tolerance too large", mutate: func(c *Config) { c.TickTolerance = 0.5 }},
		{name: "vwap band count out of range", mutate: func(c *Config) { c.VWAPBandCount = 3 }},
		{name: "pvwap band count out of range", mutate: func(c *Config) { c.PVWAPBandCount = 5 }},
		{name: "inverted range bounds", mutate: func(c *Config) { c.RangeSeriesMin = 300 }},
		{name: "bad scale ratio bounds", mutate: func(c *Config) { c.ScaleRatioMin = 500 }},
		{name: "rate above 100", mutate: func(c *Config) { c.MinQuoteSanityPct = 101 }},
		{name: "empty stream id", mutate: func(c *Config) { c.StreamID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromEnv()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestThresholdsAndReadiness(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	th := cfg.Thresholds()
	assert.Equal(t, 0.25, th.TickSize)
	assert.Equal(t, 500*time.Millisecond, th.TimestampTolerance)
	assert.Equal(t, 50.0, th.Scale.RatioMin)

	rd := cfg.Readiness()
	assert.Equal(t, 5.0, rd.MaxQuarantineRatePct)
	assert.Equal(t, 99.5, rd.MinRulePassRatePct[quality.RuleTickAlignment])
	assert.Len(t, rd.MinRulePassRatePct, 8)
}

func TestPipelineConfigMultiplier(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	cfg.PriceMultiplier = 0.01

	// The multiplier only applies when explicitly switched on.
	assert.Equal(t, 1.0, cfg.Pipeline().VWAP.Multiplier)

	cfg.ApplyMultiplier = true
	assert.Equal(t, 0.01, cfg.Pipeline().VWAP.Multiplier)
}
