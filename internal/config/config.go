// Package config loads the exporter configuration from the
// environment, including the full quality-gate threshold table.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/analytics"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/feed"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/normalize"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/pipeline"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/quality"
)

// Config holds the full service configuration.
type Config struct {
	// Output
	SinkRoot string `env:"SINK_ROOT" envDefault:"./data"`
	StreamID string `env:"STREAM_ID" envDefault:"default"`

	// Redis feed
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	StreamKey     string `env:"STREAM_KEY" envDefault:"feed:events"`
	ConsumerGroup string `env:"CONSUMER_GROUP" envDefault:"exporter"`

	// Observability
	HTTPPort       int    `env:"HTTP_PORT" envDefault:"8080"`
	PrometheusPort int    `env:"PROMETHEUS_PORT" envDefault:"9091"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`

	// Per-channel enable flags
	EnableBaseData     bool `env:"ENABLE_BASEDATA" envDefault:"true"`
	EnableVWAP         bool `env:"ENABLE_VWAP" envDefault:"true"`
	EnableValueArea    bool `env:"ENABLE_VALUE_AREA" envDefault:"true"`
	EnablePVWAP        bool `env:"ENABLE_PVWAP" envDefault:"true"`
	EnableRangeSeries  bool `env:"ENABLE_RANGE_SERIES" envDefault:"false"`
	EnableDepth        bool `env:"ENABLE_DEPTH" envDefault:"true"`
	EnableTimeAndSales bool `env:"ENABLE_TIME_AND_SALES" envDefault:"true"`
	EnableVAP          bool `env:"ENABLE_VAP" envDefault:"true"`

	// Emission bounds
	MaxDepthLevels int `env:"MAX_DEPTH_LEVELS" envDefault:"10"`
	MaxTSEntries   int `env:"MAX_TS_ENTRIES" envDefault:"64"`

	// Analytics studies
	VWAPStudyID           int      `env:"VWAP_STUDY_ID"`
	VWAPCandidates        []string `env:"VWAP_CANDIDATES" envSeparator:";" envDefault:"Volume Weighted Average Price;VWAP (Volume Weighted Average Price);VWAP"`
	VWAPBandCount         int      `env:"VWAP_BAND_COUNT" envDefault:"2"`
	VVACurrentStudyID     int      `env:"VVA_CURRENT_STUDY_ID"`
	VVACurrentCandidates  []string `env:"VVA_CURRENT_CANDIDATES" envSeparator:";" envDefault:"Volume Value Area Lines;Value Area Lines"`
	VVAPreviousStudyID    int      `env:"VVA_PREVIOUS_STUDY_ID"`
	VVAPreviousCandidates []string `env:"VVA_PREVIOUS_CANDIDATES" envSeparator:";" envDefault:"Volume Value Area Lines Previous;Value Area Lines Previous"`
	PVWAPBandCount        int      `env:"PVWAP_BAND_COUNT" envDefault:"4"`
	RangeSeriesName       string   `env:"RANGE_SERIES_NAME" envDefault:"vix"`
	RangeSeriesStudyID    int      `env:"RANGE_SERIES_STUDY_ID"`
	RangeSeriesCandidates []string `env:"RANGE_SERIES_CANDIDATES" envSeparator:";" envDefault:"VIX;Volatility Index"`

	// Price handling
	ApplyMultiplier bool    `env:"APPLY_MULTIPLIER" envDefault:"false"`
	PriceMultiplier float64 `env:"PRICE_MULTIPLIER" envDefault:"1"`
	ScaleCorrection bool    `env:"SCALE_CORRECTION" envDefault:"true"`
	ScaleRatioMin   float64 `env:"SCALE_RATIO_MIN" envDefault:"50"`
	ScaleRatioMax   float64 `env:"SCALE_RATIO_MAX" envDefault:"200"`

	// Quality-gate thresholds
	TickSize             float64 `env:"TICK_SIZE" envDefault:"0.25"`
	TickTolerance        float64 `env:"TICK_TOLERANCE" envDefault:"0.05"`
	MaxPrice             float64 `env:"MAX_PRICE" envDefault:"100000"`
	MaxVolume            float64 `env:"MAX_VOLUME" envDefault:"1000000000"`
	MaxSpreadTicks       float64 `env:"MAX_SPREAD_TICKS" envDefault:"20"`
	SpreadWindow         int     `env:"SPREAD_WINDOW" envDefault:"100"`
	NBCVTolerancePct     float64 `env:"NBCV_TOLERANCE_PCT" envDefault:"5"`
	RangeSeriesMin       float64 `env:"RANGE_SERIES_MIN" envDefault:"0"`
	RangeSeriesMax       float64 `env:"RANGE_SERIES_MAX" envDefault:"200"`
	VPClampTolerancePct  float64 `env:"VP_CLAMP_TOLERANCE_PCT" envDefault:"10"`
	TimestampToleranceMS int     `env:"TIMESTAMP_TOLERANCE_MS" envDefault:"500"`
	MaxSequenceGap       uint64  `env:"MAX_SEQUENCE_GAP" envDefault:"1000"`

	// Production-readiness thresholds
	MaxQuarantineRatePct float64 `env:"MAX_QUARANTINE_RATE_PCT" envDefault:"5"`
	MaxCorrectionRatePct float64 `env:"MAX_CORRECTION_RATE_PCT" envDefault:"2"`
	MinTickAlignmentPct  float64 `env:"MIN_TICK_ALIGNMENT_PCT" envDefault:"99.5"`
	MinQuoteSanityPct    float64 `env:"MIN_QUOTE_SANITY_PCT" envDefault:"99"`
	MinDOMPct            float64 `env:"MIN_DOM_PCT" envDefault:"99"`
	MinVWAPBandPct       float64 `env:"MIN_VWAP_BAND_PCT" envDefault:"99"`
	MinNBCVPct           float64 `env:"MIN_NBCV_PCT" envDefault:"99"`
	MinVolumeProfilePct  float64 `env:"MIN_VOLUME_PROFILE_PCT" envDefault:"99"`
	MinTimestampPct      float64 `env:"MIN_TIMESTAMP_PCT" envDefault:"99"`
	MinSequencePct       float64 `env:"MIN_SEQUENCE_PCT" envDefault:"99"`

	// Derived, not from env
	TimestampTolerance time.Duration `env:"-"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	cfg.TimestampTolerance = time.Duration(cfg.TimestampToleranceMS) * time.Millisecond
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.SinkRoot == "" {
		return fmt.Errorf("sink root must be set")
	}
	if c.StreamID == "" {
		return fmt.Errorf("stream id must be set")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.TickSize <= 0 {
		return fmt.Errorf("tick size must be positive")
	}
	if c.TickTolerance < 0 || c.TickTolerance >= 0.5 {
		return fmt.Errorf("tick tolerance must be in [0, 0.5)")
	}
	if c.VWAPBandCount < 0 || c.VWAPBandCount > 2 {
		return fmt.Errorf("vwap band count must be in [0, 2]")
	}
	if c.PVWAPBandCount < 0 || c.PVWAPBandCount > 4 {
		return fmt.Errorf("pvwap band count must be in [0, 4]")
	}
	if c.MaxDepthLevels <= 0 {
		return fmt.Errorf("max depth levels must be positive")
	}
	if c.MaxTSEntries <= 0 {
		return fmt.Errorf("max time-and-sales entries must be positive")
	}
	if c.RangeSeriesMin >= c.RangeSeriesMax {
		return fmt.Errorf("range series min must be below max")
	}
	if c.ScaleRatioMin <= 1 || c.ScaleRatioMin >= c.ScaleRatioMax {
		return fmt.Errorf("scale ratio bounds must satisfy 1 < min < max")
	}

	rates := map[string]float64{
		"max quarantine rate": c.MaxQuarantineRatePct,
		"max correction rate": c.MaxCorrectionRatePct,
		"min tick alignment":  c.MinTickAlignmentPct,
		"min quote sanity":    c.MinQuoteSanityPct,
		"min dom":             c.MinDOMPct,
		"min vwap band":       c.MinVWAPBandPct,
		"min nbcv":            c.MinNBCVPct,
		"min volume profile":  c.MinVolumeProfilePct,
		"min timestamp":       c.MinTimestampPct,
		"min sequence":        c.MinSequencePct,
	}
	for name, rate := range rates {
		if rate < 0 || rate > 100 {
			return fmt.Errorf("%s must be a percentage in [0, 100], got %f", name, rate)
		}
	}

	return nil
}

// Thresholds builds the validator threshold table.
func (c *Config) Thresholds() quality.Thresholds {
	return quality.Thresholds{
		TickSize:             c.TickSize,
		TickTolerance:        c.TickTolerance,
		MaxPrice:             c.MaxPrice,
		MaxVolume:            c.MaxVolume,
		MaxSpreadTicks:       c.MaxSpreadTicks,
		SpreadWindow:         c.SpreadWindow,
		NBCVTolerancePct:     c.NBCVTolerancePct,
		RangeMin:             c.RangeSeriesMin,
		RangeMax:             c.RangeSeriesMax,
		VPClampTolerancePct:  c.VPClampTolerancePct,
		MaxCorrectionRatePct: c.MaxCorrectionRatePct,
		TimestampTolerance:   c.TimestampTolerance,
		MaxSequenceGap:       c.MaxSequenceGap,
		ScaleCorrection:      c.ScaleCorrection,
		Scale:                c.scale(),
	}
}

// Readiness builds the production-readiness threshold table.
func (c *Config) Readiness() quality.ReadinessThresholds {
	return quality.ReadinessThresholds{
		MaxQuarantineRatePct: c.MaxQuarantineRatePct,
		MaxCorrectionRatePct: c.MaxCorrectionRatePct,
		MinRulePassRatePct: map[string]float64{
			quality.RuleTickAlignment: c.MinTickAlignmentPct,
			quality.RuleQuoteSanity:   c.MinQuoteSanityPct,
			quality.RuleDOM:           c.MinDOMPct,
			quality.RuleVWAPBands:     c.MinVWAPBandPct,
			quality.RuleNBCV:          c.MinNBCVPct,
			quality.RuleVolumeProfile: c.MinVolumeProfilePct,
			quality.RuleTimestamp:     c.MinTimestampPct,
			quality.RuleSequence:      c.MinSequencePct,
		},
	}
}

// Pipeline builds the pipeline configuration.
func (c *Config) Pipeline() pipeline.Config {
	multiplier := 1.0
	if c.ApplyMultiplier {
		multiplier = c.PriceMultiplier
	}
	return pipeline.Config{
		StreamID:           c.StreamID,
		EnableBaseData:     c.EnableBaseData,
		EnableVWAP:         c.EnableVWAP,
		EnableValueArea:    c.EnableValueArea,
		EnablePVWAP:        c.EnablePVWAP,
		EnableRangeSeries:  c.EnableRangeSeries,
		EnableDepth:        c.EnableDepth,
		EnableTimeAndSales: c.EnableTimeAndSales,
		EnableVAP:          c.EnableVAP,
		MaxDepthLevels:     c.MaxDepthLevels,
		MaxTSEntries:       c.MaxTSEntries,
		VWAP: analytics.VWAPConfig{
			StudyID:    c.VWAPStudyID,
			Candidates: c.VWAPCandidates,
			BandCount:  c.VWAPBandCount,
			Multiplier: multiplier,
		},
		ValueArea: analytics.ValueAreaConfig{
			CurrentStudyID:     c.VVACurrentStudyID,
			CurrentCandidates:  c.VVACurrentCandidates,
			PreviousStudyID:    c.VVAPreviousStudyID,
			PreviousCandidates: c.VVAPreviousCandidates,
			Multiplier:         multiplier,
		},
		PVWAP: analytics.PVWAPConfig{
			BandCount:   c.PVWAPBandCount,
			ScaleEnable: c.ScaleCorrection,
			Scale:       c.scale(),
		},
		RangeSeries: analytics.RangeSeriesConfig{
			Name:       c.RangeSeriesName,
			StudyID:    c.RangeSeriesStudyID,
			Candidates: c.RangeSeriesCandidates,
		},
	}
}

// Feed builds the Redis consumer configuration.
func (c *Config) Feed(consumerName string) feed.Config {
	return feed.Config{
		RedisURL:      c.RedisURL,
		RedisPassword: c.RedisPassword,
		StreamKey:     c.StreamKey,
		ConsumerGroup: c.ConsumerGroup,
		ConsumerName:  consumerName,
	}
}

func (c *Config) scale() normalize.ScaleConfig {
	return normalize.ScaleConfig{
		RatioMin: c.ScaleRatioMin,
		RatioMax: c.ScaleRatioMax,
	}
}
