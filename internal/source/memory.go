package source

import (
	"sync"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
)

// MemorySource is an in-memory MarketSource. The feed adapter applies
// decoded envelopes to it; tests fabricate sessions directly.
type MemorySource struct {
	mu         sync.RWMutex
	bars       []model.Bar
	newSession map[int]bool
	depth      map[model.Side][]model.DepthLevel
	vap        map[int][]model.VolumeAtPrice
	tns        []model.TimeAndSalesEvent
	tnsCap     int
}

// NewMemorySource creates an empty source whose time-and-sales ring
// holds at most tnsCap entries.
func NewMemorySource(tnsCap int) *MemorySource {
	if tnsCap <= 0 {
		tnsCap = 1024
	}
	return &MemorySource{
		newSession: make(map[int]bool),
		depth:      make(map[model.Side][]model.DepthLevel),
		vap:        make(map[int][]model.VolumeAtPrice),
		tnsCap:     tnsCap,
	}
}

// AppendBar adds a closed bar; newSession marks it as a session open.
// The bar index is assigned from the current count.
func (s *MemorySource) AppendBar(bar model.Bar, newSession bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	bar.Index = len(s.bars)
	s.bars = append(s.bars, bar)
	if newSession {
		s.newSession[bar.Index] = true
	}
	return bar.Index
}

// SetDepth replaces the snapshot for one book side, best level first.
func (s *MemorySource) SetDepth(side model.Side, levels []model.DepthLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.DepthLevel, len(levels))
	copy(cp, levels)
	s.depth[side] = cp
}

// AddVolumeAtPrice accumulates one volume-at-price cell for a bar.
func (s *MemorySource) AddVolumeAtPrice(entry model.VolumeAtPrice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vap[entry.BarIndex] = append(s.vap[entry.BarIndex], entry)
}

// AppendTimeAndSales pushes one ring-buffer entry, evicting the oldest
// when the ring is full.
func (s *MemorySource) AppendTimeAndSales(ev model.TimeAndSalesEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tns = append(s.tns, ev)
	if len(s.tns) > s.tnsCap {
		s.tns = s.tns[len(s.tns)-s.tnsCap:]
	}
}

func (s *MemorySource) BarCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bars)
}

func (s *MemorySource) Bar(index int) (model.Bar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.bars) {
		return model.Bar{}, false
	}
	return s.bars[index], true
}

func (s *MemorySource) DepthLevels(side model.Side, max int) []model.DepthLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	levels := s.depth[side]
	if max > 0 && len(levels) > max {
		levels = levels[:max]
	}
	out := make([]model.DepthLevel, len(levels))
	copy(out, levels)
	return out
}

func (s *MemorySource) VolumeAtPrice(barIndex int) []model.VolumeAtPrice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.vap[barIndex]
	out := make([]model.VolumeAtPrice, len(entries))
	copy(out, entries)
	return out
}

func (s *MemorySource) RecentTimeAndSales(max int) []model.TimeAndSalesEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.tns
	if max > 0 && len(entries) > max {
		entries = entries[len(entries)-max:]
	}
	out := make([]model.TimeAndSalesEvent, len(entries))
	copy(out, entries)
	return out
}

func (s *MemorySource) IsNewSession(barIndex int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newSession[barIndex]
}

// MemoryProvider is an in-memory AnalyticsProvider with registered
// studies and per-series bar arrays.
type MemoryProvider struct {
	mu     sync.RWMutex
	next   Handle
	byID   map[int]Handle
	byName map[string]Handle
	series map[Handle]map[int][]float64
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		byID:   make(map[int]Handle),
		byName: make(map[string]Handle),
		series: make(map[Handle]map[int][]float64),
	}
}

// RegisterStudy adds a study addressable by id and name and returns its
// handle.
func (p *MemoryProvider) RegisterStudy(id int, name string) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	h := p.next
	if id > 0 {
		p.byID[id] = h
	}
	if name != "" {
		p.byName[name] = h
	}
	p.series[h] = make(map[int][]float64)
	return h
}

// SetSeries replaces one series of a study with per-bar values.
func (p *MemoryProvider) SetSeries(h Handle, series int, values []float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.series[h]; !ok {
		p.series[h] = make(map[int][]float64)
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	p.series[h][series] = cp
}

func (p *MemoryProvider) Resolve(ref StudyRef) (Handle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if ref.ID > 0 {
		if h, ok := p.byID[ref.ID]; ok {
			return h, nil
		}
		return 0, ErrStudyNotFound
	}
	if h, ok := p.byName[ref.Name]; ok {
		return h, nil
	}
	return 0, ErrStudyNotFound
}

func (p *MemoryProvider) Read(h Handle, series int, barIndex int) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	studies, ok := p.series[h]
	if !ok {
		return 0, ErrStudyNotFound
	}
	values, ok := studies[series]
	if !ok || barIndex < 0 || barIndex >= len(values) {
		return 0, ErrNoData
	}
	return values[barIndex], nil
}
