// Package emit holds the per-channel emission memory: the sole
// deduplication mechanism for bar-scoped channels, plus the last
// timestamp / last sequence state the stateful validators lean on.
package emit

import (
	"sync"
	"time"
)

// Channel names a bar-scoped emission channel.
type Channel string

const (
	ChannelBaseData    Channel = "basedata"
	ChannelVWAP        Channel = "vwap"
	ChannelValueArea   Channel = "vva"
	ChannelPVWAP       Channel = "pvwap"
	ChannelVAP         Channel = "vap"
	ChannelRangeSeries Channel = "range_series"
)

// Tracker remembers, per channel, the index of the last bar that
// emitted, the last observed timestamp and the last observed sequence
// number. It is constructed once at pipeline start and shared by
// reference; all access is serialized internally so a multi-goroutine
// host stays correct.
type Tracker struct {
	mu       sync.Mutex
	lastBar  map[Channel]int
	lastTime map[string]time.Time
	lastSeq  map[string]uint64
}

// NewTracker creates an empty tracker; every channel starts before the
// first bar.
func NewTracker() *Tracker {
	return &Tracker{
		lastBar:  make(map[Channel]int),
		lastTime: make(map[string]time.Time),
		lastSeq:  make(map[string]uint64),
	}
}

// NewBar reports whether barIndex differs from the channel's last
// emitted bar and records it as emitted when it does. A channel emits
// at most once per bar index.
func (t *Tracker) NewBar(ch Channel, barIndex int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, seen := t.lastBar[ch]
	if seen && last == barIndex {
		return false
	}
	t.lastBar[ch] = barIndex
	return true
}

// LastBar returns the last emitted bar index for a channel, ok=false
// before the first emission.
func (t *Tracker) LastBar(ch Channel) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastBar[ch]
	return last, ok
}

// ObserveTimestamp records ts for a stream and returns the previously
// observed timestamp, ok=false on first observation.
func (t *Tracker) ObserveTimestamp(stream string, ts time.Time) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.lastTime[stream]
	t.lastTime[stream] = ts
	return prev, ok
}

// ObserveSequence records seq for a stream and returns the previously
// observed sequence, ok=false on first observation.
func (t *Tracker) ObserveSequence(stream string, seq uint64) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.lastSeq[stream]
	t.lastSeq[stream] = seq
	return prev, ok
}
