// Package source defines the boundary to the external market event
// source: bar history, depth, volume-at-price, the trade/quote ring
// buffer, the session predicate and the venue analytics lookup. The
// pipeline only ever talks to these interfaces; live runs are fed by
// the Redis adapter, tests by the in-memory implementation.
package source

import (
	"errors"
	"fmt"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
)

// Handle addresses a resolved venue analytics study.
type Handle int

// StudyRef identifies a study either by explicit integer id or by name.
type StudyRef struct {
	ID   int
	Name string
}

var (
	// ErrStudyNotFound means no candidate resolved to usable data.
	ErrStudyNotFound = errors.New("study not found")
	// ErrNoData means the study resolved but holds no value at the
	// requested bar.
	ErrNoData = errors.New("no data at bar")
)

// MarketSource is the read-only view of the venue feed.
type MarketSource interface {
	// BarCount returns the number of bars currently known; the latest
	// bar index is BarCount()-1.
	BarCount() int
	// Bar returns the bar at index, ok=false when out of range.
	Bar(index int) (model.Bar, bool)
	// DepthLevels returns up to max levels for one book side, best first.
	DepthLevels(side model.Side, max int) []model.DepthLevel
	// VolumeAtPrice enumerates the frozen volume-at-price entries owned
	// by a bar.
	VolumeAtPrice(barIndex int) []model.VolumeAtPrice
	// RecentTimeAndSales returns up to max most recent ring entries in
	// delivery order.
	RecentTimeAndSales(max int) []model.TimeAndSalesEvent
	// IsNewSession reports whether the bar at index opened a session.
	IsNewSession(barIndex int) bool
}

// AnalyticsProvider exposes venue-computed study values.
type AnalyticsProvider interface {
	Resolve(ref StudyRef) (Handle, error)
	Read(h Handle, series int, barIndex int) (float64, error)
}

// StudyResolver resolves a study handle once and caches it. An explicit
// id override wins; otherwise candidate names are tried in order until
// one yields non-zero historical data at the probe bar.
type StudyResolver struct {
	provider    AnalyticsProvider
	overrideID  int
	candidates  []string
	probeSeries int

	handle   Handle
	resolved bool
}

// NewStudyResolver builds a resolver over the given provider.
func NewStudyResolver(provider AnalyticsProvider, overrideID int, candidates []string, probeSeries int) *StudyResolver {
	return &StudyResolver{
		provider:    provider,
		overrideID:  overrideID,
		candidates:  candidates,
		probeSeries: probeSeries,
	}
}

// Handle returns the cached handle, resolving it on first use.
func (r *StudyResolver) Handle(barIndex int) (Handle, error) {
	if r.resolved {
		return r.handle, nil
	}

	if r.overrideID > 0 {
		h, err := r.provider.Resolve(StudyRef{ID: r.overrideID})
		if err != nil {
			return 0, fmt.Errorf("resolve study id %d: %w", r.overrideID, err)
		}
		r.handle = h
		r.resolved = true
		return h, nil
	}

	for _, name := range r.candidates {
		h, err := r.provider.Resolve(StudyRef{Name: name})
		if err != nil {
			continue
		}
		// A candidate only counts if it carries data at the current bar.
		v, err := r.provider.Read(h, r.probeSeries, barIndex)
		if err != nil || v == 0 {
			continue
		}
		r.handle = h
		r.resolved = true
		return h, nil
	}

	return 0, fmt.Errorf("%w: tried %v", ErrStudyNotFound, r.candidates)
}

// Reset drops the cached handle so the next call resolves again.
func (r *StudyResolver) Reset() {
	r.resolved = false
	r.handle = 0
}
