// Package pipeline ties the stages together: on each poll it derives
// the analytics for the latest bar, deduplicates bar-scoped channels,
// gates every record and routes the survivors to the sinks. One poll
// runs to completion before the next is processed.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/analytics"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/emit"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/quality"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/sink"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/source"
)

// Config selects the exports and their bounds.
type Config struct {
	StreamID string

	EnableBaseData     bool
	EnableVWAP         bool
	EnableValueArea    bool
	EnablePVWAP        bool
	EnableRangeSeries  bool
	EnableDepth        bool
	EnableTimeAndSales bool
	EnableVAP          bool

	MaxDepthLevels int
	MaxTSEntries   int

	VWAP        analytics.VWAPConfig
	ValueArea   analytics.ValueAreaConfig
	PVWAP       analytics.PVWAPConfig
	RangeSeries analytics.RangeSeriesConfig
}

// Pipeline is the per-instrument processing loop.
type Pipeline struct {
	cfg     Config
	src     source.MarketSource
	tracker *emit.Tracker
	gate    *quality.Gate
	sinks   *sink.Router
	logger  *slog.Logger

	vwap   *analytics.VWAPExporter
	vva    *analytics.ValueAreaExporter
	ranges *analytics.RangeSeriesExporter
}

// New wires a pipeline over the given source and provider.
func New(cfg Config, src source.MarketSource, provider source.AnalyticsProvider, tracker *emit.Tracker, gate *quality.Gate, sinks *sink.Router, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		src:     src,
		tracker: tracker,
		gate:    gate,
		sinks:   sinks,
		logger:  logger.With("component", "pipeline", "stream", cfg.StreamID),
	}
	if cfg.EnableVWAP {
		p.vwap = analytics.NewVWAPExporter(provider, cfg.VWAP)
	}
	if cfg.EnableValueArea {
		p.vva = analytics.NewValueAreaExporter(provider, cfg.ValueArea)
	}
	if cfg.EnableRangeSeries {
		p.ranges = analytics.NewRangeSeriesExporter(provider, cfg.RangeSeries)
	}
	return p
}

// Poll processes the current feed state. The host invokes it serially;
// bar-scoped channels emit only on a bar-index transition while depth
// and time-and-sales re-emit on every call.
func (p *Pipeline) Poll(now time.Time) {
	barIndex := p.src.BarCount() - 1
	if barIndex < 0 {
		return
	}

	p.pollBarScoped(now, barIndex)

	if p.cfg.EnableDepth {
		p.pollDepth(now)
	}
	if p.cfg.EnableTimeAndSales {
		p.pollTimeAndSales(now)
	}
}

func (p *Pipeline) pollBarScoped(now time.Time, barIndex int) {
	if p.cfg.EnableBaseData && p.tracker.NewBar(emit.ChannelBaseData, barIndex) {
		if bar, ok := p.src.Bar(barIndex); ok {
			p.emit(now, model.BaseDataRecord{
				T:         model.TimeValue(now),
				Type:      model.TypeBaseData,
				BarIndex:  barIndex,
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				Volume:    bar.Volume,
				BidVolume: bar.BidVolume,
				AskVolume: bar.AskVolume,
				Delta:     bar.AskVolume - bar.BidVolume,
				Total:     bar.AskVolume + bar.BidVolume,
			})
		}
	}

	if p.cfg.EnableVWAP && p.tracker.NewBar(emit.ChannelVWAP, barIndex) {
		if rec, err := p.vwap.Compute(barIndex, now); err != nil {
			p.diagnostic(now, model.TypeVWAP, barIndex, err)
		} else {
			p.emit(now, rec)
		}
	}

	if p.cfg.EnableValueArea && p.tracker.NewBar(emit.ChannelValueArea, barIndex) {
		if rec, err := p.vva.Compute(barIndex, now); err != nil {
			p.diagnostic(now, model.TypeValueArea, barIndex, err)
		} else {
			p.emit(now, rec)
		}
	}

	if p.cfg.EnablePVWAP && p.tracker.NewBar(emit.ChannelPVWAP, barIndex) {
		if rec, err := analytics.ComputePVWAP(p.src, barIndex, p.cfg.PVWAP, now); err != nil {
			p.diagnostic(now, model.TypePVWAP, barIndex, err)
		} else {
			p.emit(now, rec)
		}
	}

	if p.cfg.EnableRangeSeries && p.tracker.NewBar(emit.ChannelRangeSeries, barIndex) {
		if rec, err := p.ranges.Compute(barIndex, now); err != nil {
			p.diagnostic(now, model.TypeRangeSeries, barIndex, err)
		} else {
			p.emit(now, rec)
		}
	}

	// Volume-at-price entries freeze when their bar closes; export the
	// previous bar's distribution once the transition is observed.
	if p.cfg.EnableVAP && barIndex > 0 && p.tracker.NewBar(emit.ChannelVAP, barIndex) {
		for _, entry := range p.src.VolumeAtPrice(barIndex - 1) {
			p.emit(now, model.VAPRecord{
				T:        model.TimeValue(now),
				Type:     model.TypeVAP,
				BarIndex: entry.BarIndex,
				Price:    entry.Price,
				Volume:   entry.Volume,
			})
		}
	}
}

func (p *Pipeline) pollDepth(now time.Time) {
	bids := p.src.DepthLevels(model.SideBid, p.cfg.MaxDepthLevels)
	asks := p.src.DepthLevels(model.SideAsk, p.cfg.MaxDepthLevels)
	if len(bids) == 0 && len(asks) == 0 {
		return
	}

	records := make([]model.DepthRecord, 0, len(bids)+len(asks))
	for _, lv := range append(bids, asks...) {
		records = append(records, model.DepthRecord{
			T:     model.TimeValue(now),
			Type:  model.TypeDepth,
			Side:  lv.Side,
			Level: lv.Level,
			Price: lv.Price,
			Size:  lv.Size,
		})
	}

	admitted, ok := p.gate.AdmitDepth(now, records)
	if !ok {
		return
	}
	for _, rec := range admitted {
		p.write(now, rec)
	}

	if len(bids) > 0 && len(asks) > 0 {
		p.emit(now, model.QuoteRecord{
			T:       model.TimeValue(now),
			Type:    model.TypeQuote,
			Bid:     bids[0].Price,
			Ask:     asks[0].Price,
			BidSize: bids[0].Size,
			AskSize: asks[0].Size,
		})
	}
}

func (p *Pipeline) pollTimeAndSales(now time.Time) {
	for _, ev := range p.src.RecentTimeAndSales(p.cfg.MaxTSEntries) {
		p.emit(now, model.TimeAndSalesRecord{
			T:        model.TimeValue(ev.Time),
			Type:     model.TypeTimeAndSale,
			Kind:     ev.Kind,
			Price:    ev.Price,
			Volume:   ev.Volume,
			Sequence: ev.Sequence,
		})
		if ev.Kind == model.TSTrade {
			p.emit(now, model.TradeRecord{
				T:        model.TimeValue(ev.Time),
				Type:     model.TypeTrade,
				Price:    ev.Price,
				Volume:   ev.Volume,
				Sequence: ev.Sequence,
			})
		}
	}
}

// emit gates one record and forwards it when admitted.
func (p *Pipeline) emit(now time.Time, rec model.Emitted) {
	admitted, ok := p.gate.Admit(now, rec)
	if !ok {
		return
	}
	p.write(now, admitted)
}

func (p *Pipeline) write(now time.Time, rec model.Emitted) {
	stream := fmt.Sprintf("%s_%s", p.cfg.StreamID, rec.RecordType())
	p.sinks.WriteDropping(stream, now, rec)
}

// diagnostic surfaces a failed computation as a record on the affected
// channel instead of dropping it silently.
func (p *Pipeline) diagnostic(now time.Time, channel string, barIndex int, err error) {
	p.logger.Warn("analytics_diagnostic",
		"channel", channel,
		"bar", barIndex,
		"reason", err.Error(),
	)
	rec := model.DiagnosticRecord{
		T:        model.TimeValue(now),
		Type:     channel + "_diag",
		BarIndex: barIndex,
		Reason:   err.Error(),
	}
	stream := fmt.Sprintf("%s_%s", p.cfg.StreamID, channel)
	p.sinks.WriteDropping(stream, now, rec)
}
