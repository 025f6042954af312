package quality

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/emit"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
)

// QuarantineStream is the sink stream rejected records route to.
const QuarantineStream = "quarantine"

// RecordWriter writes one record to a sink stream.
type RecordWriter interface {
	Write(stream string, day time.Time, rec model.Emitted) error
}

// ReadinessThresholds is the production-readiness threshold table.
type ReadinessThresholds struct {
	MaxQuarantineRatePct float64
	MaxCorrectionRatePct float64
	MinRulePassRatePct   map[string]float64
}

// Gate runs every outgoing record through its type's validators and
// routes the outcome: accepted records are returned for forwarding,
// corrected records are returned with the correction applied, and
// quarantined records are written to the quarantine stream and never
// forwarded.
type Gate struct {
	validators *Validators
	readiness  ReadinessThresholds
	quarantine RecordWriter
	metrics    *Metrics
	logger     *slog.Logger

	mu    sync.Mutex
	stats gateStats
}

type ruleStats struct {
	pass uint64
	fail uint64
}

type gateStats struct {
	processed   uint64
	accepted    uint64
	corrected   uint64
	quarantined uint64
	rules       map[string]*ruleStats
}

// NewGate builds a gate. metrics may be nil (tests); quarantine may be
// nil to discard quarantined payloads while still counting them.
func NewGate(cfg Thresholds, readiness ReadinessThresholds, tracker *emit.Tracker, quarantine RecordWriter, metrics *Metrics, logger *slog.Logger) *Gate {
	return &Gate{
		validators: NewValidators(cfg, tracker),
		readiness:  readiness,
		quarantine: quarantine,
		metrics:    metrics,
		logger:     logger.With("component", "quality_gate"),
		stats:      gateStats{rules: make(map[string]*ruleStats)},
	}
}

// Admit validates one record. It returns the record to forward (with
// any correction applied) and whether forwarding is allowed.
func (g *Gate) Admit(now time.Time, rec model.Emitted) (model.Emitted, bool) {
	var verdict Verdict

	switch r := rec.(type) {
	case model.BaseDataRecord:
		verdict = newVerdict()
		for _, p := range []*float64{&r.Open, &r.High, &r.Low, &r.Close} {
			fixed, pv := g.validators.CheckPrice(*p)
			*p = fixed
			verdict.merge(pv)
		}
		verdict.merge(g.validators.CheckVolume(r.Volume))
		verdict.merge(g.validators.CheckNBCV(r.AskVolume, r.BidVolume, r.Delta, r.Total))
		rec = r

	case model.VWAPRecord:
		verdict = g.validators.CheckBands(r.Value, r.Bands)

	case model.PVWAPRecord:
		verdict = g.validators.CheckBands(r.Value, r.Bands)

	case model.ValueAreaRecord:
		fixed, v := g.validators.CheckValueArea(r, g.correctionAllowed())
		verdict = v
		rec = fixed

	case model.QuoteRecord:
		verdict = g.validators.CheckQuote(r.Bid, r.Ask)

	case model.TradeRecord:
		verdict = newVerdict()
		fixed, pv := g.validators.CheckPrice(r.Price)
		r.Price = fixed
		verdict.merge(pv)
		verdict.merge(g.validators.CheckVolume(r.Volume))
		verdict.merge(g.validators.CheckTimestamp(model.TypeTrade, timeFromValue(r.T)))
		verdict.merge(g.validators.CheckSequence(model.TypeTrade, r.Sequence))
		rec = r

	case model.TimeAndSalesRecord:
		verdict = newVerdict()
		fixed, pv := g.validators.CheckPrice(r.Price)
		r.Price = fixed
		verdict.merge(pv)
		verdict.merge(g.validators.CheckVolume(r.Volume))
		verdict.merge(g.validators.CheckTimestamp(model.TypeTimeAndSale, timeFromValue(r.T)))
		verdict.merge(g.validators.CheckSequence(model.TypeTimeAndSale, r.Sequence))
		rec = r

	case model.VAPRecord:
		verdict = newVerdict()
		fixed, pv := g.validators.CheckPrice(r.Price)
		r.Price = fixed
		verdict.merge(pv)
		verdict.merge(g.validators.CheckVolume(r.Volume))
		rec = r

	case model.RangeSeriesRecord:
		verdict = g.validators.CheckRange(r.Value)

	default:
		// Diagnostic records pass through untouched.
		verdict = newVerdict()
	}

	return g.finish(now, rec, verdict)
}

// AdmitDepth validates a full depth snapshot as one unit; a violating
// snapshot is quarantined whole.
func (g *Gate) AdmitDepth(now time.Time, levels []model.DepthRecord) ([]model.DepthRecord, bool) {
	verdict := g.validators.CheckDepth(levels)
	snapshot := model.DepthSnapshotRecord{
		T:      model.TimeValue(now),
		Type:   model.TypeDepth,
		Levels: levels,
	}
	if _, ok := g.finish(now, snapshot, verdict); !ok {
		return nil, false
	}
	return levels, true
}

func (g *Gate) finish(now time.Time, rec model.Emitted, verdict Verdict) (model.Emitted, bool) {
	recType := rec.RecordType()

	g.mu.Lock()
	g.stats.processed++
	for _, o := range verdict.outcomes {
		rs, ok := g.stats.rules[o.rule]
		if !ok {
			rs = &ruleStats{}
			g.stats.rules[o.rule] = rs
		}
		if o.pass {
			rs.pass++
		} else {
			rs.fail++
		}
	}
	if !verdict.Valid {
		g.stats.quarantined++
	} else {
		g.stats.accepted++
		if verdict.Corrected {
			g.stats.corrected++
		}
	}
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.RecordProcessed(recType)
		for _, o := range verdict.outcomes {
			if !o.pass {
				g.metrics.RecordRuleFailure(o.rule)
			}
		}
	}

	if !verdict.Valid {
		g.quarantineRecord(now, rec, verdict)
		return rec, false
	}

	if verdict.Corrected {
		if g.metrics != nil {
			g.metrics.RecordCorrected(recType)
		}
		g.logger.Info("record_corrected",
			"record_type", recType,
			"corrections", verdict.Corrections,
		)
	}
	return rec, true
}

func (g *Gate) quarantineRecord(now time.Time, rec model.Emitted, verdict Verdict) {
	recType := rec.RecordType()
	if g.metrics != nil {
		g.metrics.RecordQuarantined(recType)
	}
	g.logger.Warn("record_quarantined",
		"record_type", recType,
		"reasons", verdict.Reasons,
	)
	if g.quarantine == nil {
		return
	}
	qrec := model.QuarantineRecord{
		T:          model.TimeValue(now),
		Type:       model.TypeQuarantine,
		ID:         uuid.NewString(),
		SourceType: recType,
		Reasons:    verdict.Reasons,
		Payload:    rec,
	}
	if err := g.quarantine.Write(QuarantineStream, now, qrec); err != nil {
		g.logger.Error("quarantine_write_failed",
			"record_type", recType,
			"error", err,
		)
	}
}

// correctionAllowed enforces the maximum-correction-rate budget: once
// the corrected share of processed records exceeds it, further
// auto-corrections turn into quarantines.
func (g *Gate) correctionAllowed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stats.processed == 0 {
		return true
	}
	rate := float64(g.stats.corrected) / float64(g.stats.processed) * 100
	return rate < g.readiness.MaxCorrectionRatePct
}

// RuleReport is the pass-rate snapshot of one rule.
type RuleReport struct {
	Pass        uint64  `json:"pass"`
	Fail        uint64  `json:"fail"`
	PassRatePct float64 `json:"pass_rate_pct"`
}

// Report is the on-demand snapshot of the gate counters.
type Report struct {
	Processed         uint64                `json:"processed"`
	Accepted          uint64                `json:"accepted"`
	Corrected         uint64                `json:"corrected"`
	Quarantined       uint64                `json:"quarantined"`
	QuarantineRatePct float64               `json:"quarantine_rate_pct"`
	CorrectionRatePct float64               `json:"correction_rate_pct"`
	Rules             map[string]RuleReport `json:"rules"`
}

// Report returns the current counters and per-rule pass rates.
func (g *Gate) Report() Report {
	g.mu.Lock()
	defer g.mu.Unlock()

	rep := Report{
		Processed:   g.stats.processed,
		Accepted:    g.stats.accepted,
		Corrected:   g.stats.corrected,
		Quarantined: g.stats.quarantined,
		Rules:       make(map[string]RuleReport, len(g.stats.rules)),
	}
	if g.stats.processed > 0 {
		rep.QuarantineRatePct = float64(g.stats.quarantined) / float64(g.stats.processed) * 100
		rep.CorrectionRatePct = float64(g.stats.corrected) / float64(g.stats.processed) * 100
	}
	for name, rs := range g.stats.rules {
		rep.Rules[name] = RuleReport{
			Pass:        rs.pass,
			Fail:        rs.fail,
			PassRatePct: passRate(rs),
		}
	}
	return rep
}

// ReadinessCheck is one threshold comparison of the verdict.
type ReadinessCheck struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Pass      bool    `json:"pass"`
}

// ReadinessReport is the production-readiness verdict: every rate
// compared to its configured threshold.
type ReadinessReport struct {
	Ready       bool             `json:"ready"`
	GeneratedAt time.Time        `json:"generated_at"`
	Processed   uint64           `json:"processed"`
	Checks      []ReadinessCheck `json:"checks"`
}

// Readiness compares every tracked rate to the threshold table. A rule
// with no observations counts as fully passing.
func (g *Gate) Readiness(now time.Time) ReadinessReport {
	rep := g.Report()

	out := ReadinessReport{
		Ready:       true,
		GeneratedAt: now,
		Processed:   rep.Processed,
	}

	addCheck := func(name string, value, threshold float64, pass bool) {
		out.Checks = append(out.Checks, ReadinessCheck{
			Name:      name,
			Value:     value,
			Threshold: threshold,
			Pass:      pass,
		})
		if !pass {
			out.Ready = false
		}
	}

	addCheck("quarantine_rate_pct", rep.QuarantineRatePct,
		g.readiness.MaxQuarantineRatePct,
		rep.QuarantineRatePct <= g.readiness.MaxQuarantineRatePct)
	addCheck("correction_rate_pct", rep.CorrectionRatePct,
		g.readiness.MaxCorrectionRatePct,
		rep.CorrectionRatePct <= g.readiness.MaxCorrectionRatePct)

	names := make([]string, 0, len(g.readiness.MinRulePassRatePct))
	for name := range g.readiness.MinRulePassRatePct {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		min := g.readiness.MinRulePassRatePct[name]
		rate := 100.0
		if rs, ok := rep.Rules[name]; ok {
			rate = rs.PassRatePct
		}
		addCheck(name+"_pass_rate_pct", rate, min, rate >= min)
	}

	if g.metrics != nil {
		g.metrics.SetReadiness(out.Ready)
	}
	return out
}

func passRate(rs *ruleStats) float64 {
	total := rs.pass + rs.fail
	if total == 0 {
		return 100
	}
	return float64(rs.pass) / float64(total) * 100
}

func timeFromValue(t float64) time.Time {
	return time.Unix(0, int64(t*1e9)).UTC()
}
