// Package analytics derives the exported records: venue-computed VWAP
// and value-area read-throughs, and the self-computed previous-session
// VWAP with σ-bands.
package analytics

import (
	"fmt"
	"time"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/source"
)

// Series layout of the venue VWAP study.
const (
	SeriesVWAPValue = 0
	SeriesVWAPUp1   = 1
	SeriesVWAPDown1 = 2
	SeriesVWAPUp2   = 3
	SeriesVWAPDown2 = 4
)

// Series layout of the venue value-area studies.
const (
	SeriesVPOC = 0
	SeriesVAH  = 1
	SeriesVAL  = 2
)

// VWAPConfig configures the venue VWAP read-through.
type VWAPConfig struct {
	StudyID    int      // explicit override, 0 = resolve by name
	Candidates []string // ordered fallback names
	BandCount  int      // 0..2 symmetric band pairs
	Multiplier float64  // venue price multiplier, 1 = off
}

// VWAPExporter reads the current-bar VWAP and bands from the venue
// analytics provider. The resolved handle is cached across bars.
type VWAPExporter struct {
	provider source.AnalyticsProvider
	resolver *source.StudyResolver
	cfg      VWAPConfig
}

// NewVWAPExporter builds an exporter over the provider.
func NewVWAPExporter(provider source.AnalyticsProvider, cfg VWAPConfig) *VWAPExporter {
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 1
	}
	if cfg.BandCount > 2 {
		cfg.BandCount = 2
	}
	return &VWAPExporter{
		provider: provider,
		resolver: source.NewStudyResolver(provider, cfg.StudyID, cfg.Candidates, SeriesVWAPValue),
		cfg:      cfg,
	}
}

// Compute reads the VWAP record for one bar.
func (e *VWAPExporter) Compute(barIndex int, now time.Time) (model.VWAPRecord, error) {
	h, err := e.resolver.Handle(barIndex)
	if err != nil {
		return model.VWAPRecord{}, err
	}

	value, err := e.provider.Read(h, SeriesVWAPValue, barIndex)
	if err != nil {
		return model.VWAPRecord{}, fmt.Errorf("read vwap value: %w", err)
	}

	rec := model.VWAPRecord{
		T:        model.TimeValue(now),
		Type:     model.TypeVWAP,
		BarIndex: barIndex,
		Value:    value * e.cfg.Multiplier,
	}

	bandSeries := [][2]int{
		{SeriesVWAPUp1, SeriesVWAPDown1},
		{SeriesVWAPUp2, SeriesVWAPDown2},
	}
	for i := 0; i < e.cfg.BandCount; i++ {
		up, err := e.provider.Read(h, bandSeries[i][0], barIndex)
		if err != nil {
			break
		}
		dn, err := e.provider.Read(h, bandSeries[i][1], barIndex)
		if err != nil {
			break
		}
		rec.Bands = append(rec.Bands, model.Band{
			Upper: up * e.cfg.Multiplier,
			Lower: dn * e.cfg.Multiplier,
		})
	}

	return rec, nil
}

// ValueAreaConfig configures the current/previous value-area read-through.
type ValueAreaConfig struct {
	CurrentStudyID     int
	CurrentCandidates  []string
	PreviousStudyID    int
	PreviousCandidates []string
	Multiplier         float64
}

// ValueAreaExporter reads POC/VAH/VAL triplets from two independently
// addressed studies: the current period and the previous period.
type ValueAreaExporter struct {
	provider source.AnalyticsProvider
	current  *source.StudyResolver
	previous *source.StudyResolver
	cfg      ValueAreaConfig
}

// NewValueAreaExporter builds an exporter over the provider.
func NewValueAreaExporter(provider source.AnalyticsProvider, cfg ValueAreaConfig) *ValueAreaExporter {
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 1
	}
	return &ValueAreaExporter{
		provider: provider,
		current:  source.NewStudyResolver(provider, cfg.CurrentStudyID, cfg.CurrentCandidates, SeriesVPOC),
		previous: source.NewStudyResolver(provider, cfg.PreviousStudyID, cfg.PreviousCandidates, SeriesVPOC),
		cfg:      cfg,
	}
}

// Compute reads the value-area record for one bar.
func (e *ValueAreaExporter) Compute(barIndex int, now time.Time) (model.ValueAreaRecord, error) {
	poc, vah, val, err := e.readTriplet(e.current, barIndex)
	if err != nil {
		return model.ValueAreaRecord{}, fmt.Errorf("current value area: %w", err)
	}
	ppoc, pvah, pval, err := e.readTriplet(e.previous, barIndex)
	if err != nil {
		return model.ValueAreaRecord{}, fmt.Errorf("previous value area: %w", err)
	}

	return model.ValueAreaRecord{
		T:        model.TimeValue(now),
		Type:     model.TypeValueArea,
		BarIndex: barIndex,
		VPOC:     poc,
		VAH:      vah,
		VAL:      val,
		PVPOC:    ppoc,
		PVAH:     pvah,
		PVAL:     pval,
	}, nil
}

func (e *ValueAreaExporter) readTriplet(r *source.StudyResolver, barIndex int) (poc, vah, val float64, err error) {
	h, err := r.Handle(barIndex)
	if err != nil {
		return 0, 0, 0, err
	}
	poc, err = e.provider.Read(h, SeriesVPOC, barIndex)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("read vpoc: %w", err)
	}
	vah, err = e.provider.Read(h, SeriesVAH, barIndex)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("read vah: %w", err)
	}
	val, err = e.provider.Read(h, SeriesVAL, barIndex)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("read val: %w", err)
	}
	m := e.cfg.Multiplier
	return poc * m, vah * m, val * m, nil
}

// RangeSeriesConfig configures a generic single-value study export,
// such as a volatility index.
type RangeSeriesConfig struct {
	Name       string
	StudyID    int
	Candidates []string
}

// RangeSeriesExporter reads one range-bounded series per bar.
type RangeSeriesExporter struct {
	provider source.AnalyticsProvider
	resolver *source.StudyResolver
	name     string
}

// NewRangeSeriesExporter builds an exporter over the provider.
func NewRangeSeriesExporter(provider source.AnalyticsProvider, cfg RangeSeriesConfig) *RangeSeriesExporter {
	return &RangeSeriesExporter{
		provider: provider,
		resolver: source.NewStudyResolver(provider, cfg.StudyID, cfg.Candidates, 0),
		name:     cfg.Name,
	}
}

// Compute reads the series value for one bar.
func (e *RangeSeriesExporter) Compute(barIndex int, now time.Time) (model.RangeSeriesRecord, error) {
	h, err := e.resolver.Handle(barIndex)
	if err != nil {
		return model.RangeSeriesRecord{}, err
	}
	value, err := e.provider.Read(h, 0, barIndex)
	if err != nil {
		return model.RangeSeriesRecord{}, fmt.Errorf("read %s: %w", e.name, err)
	}
	return model.RangeSeriesRecord{
		T:        model.TimeValue(now),
		Type:     model.TypeRangeSeries,
		Name:     e.name,
		BarIndex: barIndex,
		Value:    value,
	}, nil
}
