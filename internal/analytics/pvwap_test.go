package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/normalize"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/source"
)

var testTime = time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)

// twoSessionSource builds bars 0..2 where bars 0-1 form the previous
// session and bar 2 opens the current one, with a known volume-at-price
// history for the previous session.
func twoSessionSource(t *testing.T) *source.MemorySource {
	t.Helper()
	src := source.NewMemorySource(16)
	src.AppendBar(model.Bar{Close: 100.5}, true)
	src.AppendBar(model.Bar{Close: 101.5}, false)
	src.AppendBar(model.Bar{Close: 102.0}, true)

	src.AddVolumeAtPrice(model.VolumeAtPrice{BarIndex: 0, Price: 100, Volume: 10})
	src.AddVolumeAtPrice(model.VolumeAtPrice{BarIndex: 0, Price: 101, Volume: 20})
	src.AddVolumeAtPrice(model.VolumeAtPrice{BarIndex: 1, Price: 102, Volume: 30})
	return src
}

func TestComputePVWAPRoundTrip(t *testing.T) {
	src := twoSessionSource(t)

	rec, err := ComputePVWAP(src, 2, PVWAPConfig{BandCount: 4}, testTime)
	require.NoError(t, err)

	// ΣV=60, ΣP·V=6080, ΣP²·V=616140.
	wantVWAP := 6080.0 / 60.0
	wantSD := math.Sqrt(616140.0/60.0 - wantVWAP*wantVWAP)

	assert.InDelta(t, wantVWAP, rec.Value, 1e-6)
	assert.InDelta(t, wantSD, rec.SD, 1e-6)
	assert.Equal(t, 0, rec.StartBar)
	assert.Equal(t, 1, rec.EndBar)
	assert.Equal(t, 2, rec.BarIndex)
	assert.Equal(t, model.TypePVWAP, rec.Type)

	require.Len(t, rec.Bands, 4)
	multiples := []float64{0.5, 1.0, 1.5, 2.0}
	for i, m := range multiples {
		assert.InDelta(t, wantVWAP+m*wantSD, rec.Bands[i].Upper, 1e-6)
		assert.InDelta(t, wantVWAP-m*wantSD, rec.Bands[i].Lower, 1e-6)
	}
}

func TestComputePVWAPBandCountLimited(t *testing.T) {
	src := twoSessionSource(t)

	rec, err := ComputePVWAP(src, 2, PVWAPConfig{BandCount: 2}, testTime)
	require.NoError(t, err)
	assert.Len(t, rec.Bands, 2)

	rec, err = ComputePVWAP(src, 2, PVWAPConfig{BandCount: 0}, testTime)
	require.NoError(t, err)
	assert.Empty(t, rec.Bands)
}

func TestComputePVWAPNoPreviousSession(t *testing.T) {
	src := source.NewMemorySource(16)
	src.AppendBar(model.Bar{Close: 100}, true)
	src.AppendBar(model.Bar{Close: 101}, false)
	src.AddVolumeAtPrice(model.VolumeAtPrice{BarIndex: 0, Price: 100, Volume: 10})

	// The only session in history opens the chart: nothing before it.
	_, err := ComputePVWAP(src, 1, PVWAPConfig{BandCount: 4}, testTime)
	assert.ErrorIs(t, err, ErrNoPrevSession)
}

func TestComputePVWAPNoSessionBoundary(t *testing.T) {
	src := source.NewMemorySource(16)
	src.AppendBar(model.Bar{Close: 100}, false)
	src.AppendBar(model.Bar{Close: 101}, false)

	_, err := ComputePVWAP(src, 1, PVWAPConfig{BandCount: 4}, testTime)
	assert.ErrorIs(t, err, ErrNoPrevSession)
}

func TestComputePVWAPNoVolume(t *testing.T) {
	src := source.NewMemorySource(16)
	src.AppendBar(model.Bar{Close: 100}, true)
	src.AppendBar(model.Bar{Close: 101}, false)
	src.AppendBar(model.Bar{Close: 102}, true)

	_, err := ComputePVWAP(src, 2, PVWAPConfig{BandCount: 4}, testTime)
	assert.ErrorIs(t, err, ErrNoVolume)
	assert.EqualError(t, err, "no_volume_prev_session")
}

func TestComputePVWAPScaleNormalization(t *testing.T) {
	// The previous session's raw feed arrived ÷100: entries near 45
	// while the reference close sits near 4500.
	src := source.NewMemorySource(16)
	src.AppendBar(model.Bar{Close: 4499.0}, true)
	src.AppendBar(model.Bar{Close: 4500.5}, false)
	src.AppendBar(model.Bar{Close: 4501.0}, true)

	src.AddVolumeAtPrice(model.VolumeAtPrice{BarIndex: 0, Price: 45.00, Volume: 10})
	src.AddVolumeAtPrice(model.VolumeAtPrice{BarIndex: 1, Price: 45.02, Volume: 10})

	cfg := PVWAPConfig{
		BandCount:   1,
		ScaleEnable: true,
		Scale:       normalize.ScaleConfig{RatioMin: 50, RatioMax: 200},
	}
	rec, err := ComputePVWAP(src, 2, cfg, testTime)
	require.NoError(t, err)

	assert.InDelta(t, 4501.0, rec.Value, 1e-6)
	// Bands are built after the correction, around the scaled value.
	require.Len(t, rec.Bands, 1)
	assert.Greater(t, rec.Bands[0].Upper, 4500.0)
	assert.Less(t, rec.Bands[0].Lower, 4502.0)
}
