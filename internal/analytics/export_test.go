package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/source"
)

func vwapProvider(t *testing.T) *source.MemoryProvider {
	t.Helper()
	provider := source.NewMemoryProvider()
	h := provider.RegisterStudy(0, "Volume Weighted Average Price")
	provider.SetSeries(h, SeriesVWAPValue, []float64{4500.00, 4500.50})
	provider.SetSeries(h, SeriesVWAPUp1, []float64{4505.00, 4505.50})
	provider.SetSeries(h, SeriesVWAPDown1, []float64{4495.00, 4495.50})
	provider.SetSeries(h, SeriesVWAPUp2, []float64{4510.00, 4510.50})
	provider.SetSeries(h, SeriesVWAPDown2, []float64{4490.00, 4490.50})
	return provider
}

func TestVWAPExporterCompute(t *testing.T) {
	provider := vwapProvider(t)

	exp := NewVWAPExporter(provider, VWAPConfig{
		Candidates: []string{"VWAP", "Volume Weighted Average Price"},
		BandCount:  2,
		Multiplier: 1,
	})

	rec, err := exp.Compute(1, testTime)
	require.NoError(t, err)
	assert.Equal(t, model.TypeVWAP, rec.Type)
	assert.Equal(t, 1, rec.BarIndex)
	assert.InDelta(t, 4500.50, rec.Value, 1e-9)
	require.Len(t, rec.Bands, 2)
	assert.InDelta(t, 4505.50, rec.Bands[0].Upper, 1e-9)
	assert.InDelta(t, 4495.50, rec.Bands[0].Lower, 1e-9)
	assert.InDelta(t, 4510.50, rec.Bands[1].Upper, 1e-9)
	assert.InDelta(t, 4490.50, rec.Bands[1].Lower, 1e-9)
}

func TestVWAPExporterMultiplier(t *testing.T) {
	provider := vwapProvider(t)

	exp := NewVWAPExporter(provider, VWAPConfig{
		Candidates: []string{"Volume Weighted Average Price"},
		BandCount:  1,
		Multiplier: 0.01,
	})

	rec, err := exp.Compute(0, testTime)
	require.NoError(t, err)
	assert.InDelta(t, 45.00, rec.Value, 1e-9)
	require.Len(t, rec.Bands, 1)
	assert.InDelta(t, 45.05, rec.Bands[0].Upper, 1e-9)
}

func TestVWAPExporterUnresolved(t *testing.T) {
	provider := source.NewMemoryProvider()

	exp := NewVWAPExporter(provider, VWAPConfig{Candidates: []string{"Nope"}})
	_, err := exp.Compute(0, testTime)
	assert.ErrorIs(t, err, source.ErrStudyNotFound)
}

func TestValueAreaExporterCompute(t *testing.T) {
	provider := source.NewMemoryProvider()

	cur := provider.RegisterStudy(0, "Volume Value Area Lines")
	provider.SetSeries(cur, SeriesVPOC, []float64{4500.00})
	provider.SetSeries(cur, SeriesVAH, []float64{4510.00})
	provider.SetSeries(cur, SeriesVAL, []float64{4490.00})

	prev := provider.RegisterStudy(0, "Volume Value Area Lines Previous")
	provider.SetSeries(prev, SeriesVPOC, []float64{4480.00})
	provider.SetSeries(prev, SeriesVAH, []float64{4495.00})
	provider.SetSeries(prev, SeriesVAL, []float64{4470.00})

	exp := NewValueAreaExporter(provider, ValueAreaConfig{
		CurrentCandidates:  []string{"Volume Value Area Lines"},
		PreviousCandidates: []string{"Volume Value Area Lines Previous"},
		Multiplier:         1,
	})

	rec, err := exp.Compute(0, testTime)
	require.NoError(t, err)
	assert.Equal(t, model.TypeValueArea, rec.Type)
	assert.InDelta(t, 4500.00, rec.VPOC, 1e-9)
	assert.InDelta(t, 4510.00, rec.VAH, 1e-9)
	assert.InDelta(t, 4490.00, rec.VAL, 1e-9)
	assert.InDelta(t, 4480.00, rec.PVPOC, 1e-9)
	assert.InDelta(t, 4495.00, rec.PVAH, 1e-9)
	assert.InDelta(t, 4470.00, rec.PVAL, 1e-9)
}

func TestValueAreaExporterMissingPreviousStudy(t *testing.T) {
	provider := source.NewMemoryProvider()

	cur := provider.RegisterStudy(0, "Volume Value Area Lines")
	provider.SetSeries(cur, SeriesVPOC, []float64{4500.00})
	provider.SetSeries(cur, SeriesVAH, []float64{4510.00})
	provider.SetSeries(cur, SeriesVAL, []float64{4490.00})

	exp := NewValueAreaExporter(provider, ValueAreaConfig{
		CurrentCandidates:  []string{"Volume Value Area Lines"},
		PreviousCandidates: []string{"Missing"},
	})

	_, err := exp.Compute(0, testTime)
	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrStudyNotFound)
}

func TestRangeSeriesExporterCompute(t *testing.T) {
	provider := source.NewMemoryProvider()
	h := provider.RegisterStudy(0, "Volatility Index")
	provider.SetSeries(h, 0, []float64{15.5, 16.2})

	exp := NewRangeSeriesExporter(provider, RangeSeriesConfig{
		Name:       "vix",
		Candidates: []string{"Volatility Index"},
	})

	rec, err := exp.Compute(1, testTime)
	require.NoError(t, err)
	assert.Equal(t, model.TypeRangeSeries, rec.Type)
	assert.Equal(t, "vix", rec.Name)
	assert.InDelta(t, 16.2, rec.Value, 1e-9)
}
