package emit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerNewBar(t *testing.T) {
	tr := NewTracker()

	// First sighting of any bar index emits.
	assert.True(t, tr.NewBar(ChannelVWAP, 10))
	// Re-polling the same bar is a no-op.
	assert.False(t, tr.NewBar(ChannelVWAP, 10))
	assert.False(t, tr.NewBar(ChannelVWAP, 10))
	// The next bar emits again.
	assert.True(t, tr.NewBar(ChannelVWAP, 11))

	// Channels are independent.
	assert.True(t, tr.NewBar(ChannelPVWAP, 10))
	assert.False(t, tr.NewBar(ChannelPVWAP, 10))
}

func TestTrackerLastBar(t *testing.T) {
	tr := NewTracker()

	_, ok := tr.LastBar(ChannelBaseData)
	require.False(t, ok)

	tr.NewBar(ChannelBaseData, 7)
	last, ok := tr.LastBar(ChannelBaseData)
	require.True(t, ok)
	assert.Equal(t, 7, last)
}

func TestTrackerObserveTimestamp(t *testing.T) {
	tr := NewTracker()
	t0 := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)

	_, seen := tr.ObserveTimestamp("trade", t0)
	assert.False(t, seen)

	prev, seen := tr.ObserveTimestamp("trade", t0.Add(time.Second))
	require.True(t, seen)
	assert.Equal(t, t0, prev)

	// Streams are independent.
	_, seen = tr.ObserveTimestamp("ts", t0)
	assert.False(t, seen)
}

func TestTrackerObserveSequence(t *testing.T) {
	tr := NewTracker()

	_, seen := tr.ObserveSequence("trade", 100)
	assert.False(t, seen)

	prev, seen := tr.ObserveSequence("trade", 101)
	require.True(t, seen)
	assert.Equal(t, uint64(100), prev)
}
