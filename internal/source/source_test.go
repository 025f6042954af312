package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
)

func TestStudyResolverExplicitID(t *testing.T) {
	provider := NewMemoryProvider()
	h := provider.RegisterStudy(12, "Some Study")
	provider.SetSeries(h, 0, []float64{1.0, 2.0})

	r := NewStudyResolver(provider, 12, nil, 0)
	got, err := r.Handle(1)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestStudyResolverFallbackChain(t *testing.T) {
	provider := NewMemoryProvider()

	// First candidate resolves but holds no data; the second carries a
	// value at the probe bar and wins.
	empty := provider.RegisterStudy(0, "VWAP")
	provider.SetSeries(empty, 0, []float64{0, 0})
	full := provider.RegisterStudy(0, "Volume Weighted Average Price")
	provider.SetSeries(full, 0, []float64{4500.0, 4501.0})

	r := NewStudyResolver(provider, 0, []string{"VWAP", "Volume Weighted Average Price"}, 0)
	got, err := r.Handle(1)
	require.NoError(t, err)
	assert.Equal(t, full, got)

	// The handle is cached: further calls skip resolution.
	again, err := r.Handle(0)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestStudyResolverNoCandidateResolves(t *testing.T) {
	provider := NewMemoryProvider()

	r := NewStudyResolver(provider, 0, []string{"Missing Study"}, 0)
	_, err := r.Handle(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStudyNotFound)
}

func TestMemorySourceBars(t *testing.T) {
	src := NewMemorySource(16)
	require.Equal(t, 0, src.BarCount())

	idx := src.AppendBar(model.Bar{Close: 4500}, true)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, src.BarCount())
	assert.True(t, src.IsNewSession(0))

	idx = src.AppendBar(model.Bar{Close: 4501}, false)
	assert.Equal(t, 1, idx)
	assert.False(t, src.IsNewSession(1))

	bar, ok := src.Bar(1)
	require.True(t, ok)
	assert.Equal(t, 4501.0, bar.Close)

	_, ok = src.Bar(5)
	assert.False(t, ok)
}

func TestMemorySourceTimeAndSalesRing(t *testing.T) {
	src := NewMemorySource(3)
	for i := 0; i < 5; i++ {
		src.AppendTimeAndSales(model.TimeAndSalesEvent{Sequence: uint64(i)})
	}

	entries := src.RecentTimeAndSales(10)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(2), entries[0].Sequence)
	assert.Equal(t, uint64(4), entries[2].Sequence)

	entries = src.RecentTimeAndSales(2)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(3), entries[0].Sequence)
}

func TestMemorySourceDepthBounds(t *testing.T) {
	src := NewMemorySource(16)
	src.SetDepth(model.SideBid, []model.DepthLevel{
		{Side: model.SideBid, Level: 0, Price: 4500.00, Size: 10},
		{Side: model.SideBid, Level: 1, Price: 4499.75, Size: 12},
		{Side: model.SideBid, Level: 2, Price: 4499.50, Size: 9},
	})

	levels := src.DepthLevels(model.SideBid, 2)
	require.Len(t, levels, 2)
	assert.Equal(t, 4500.00, levels[0].Price)
}
