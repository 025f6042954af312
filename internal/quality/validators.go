// Package quality validates every record leaving the pipeline,
// quarantines violators and rolls the running counts into a
// production-readiness verdict.
package quality

import (
	"math"
	"time"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/emit"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/normalize"
)

// Rule names used for per-rule pass-rate accounting.
const (
	RuleTickAlignment = "tick_alignment"
	RulePriceRange    = "price_range"
	RuleVolume        = "volume"
	RuleQuoteSanity   = "quote_sanity"
	RuleDOM           = "dom"
	RuleVWAPBands     = "vwap_bands"
	RuleNBCV          = "nbcv"
	RuleVolumeProfile = "volume_profile"
	RuleRangeSeries   = "range_series"
	RuleTimestamp     = "timestamp_monotonic"
	RuleSequence      = "sequence_integrity"
)

// Thresholds is the full validator configuration table.
type Thresholds struct {
	TickSize             float64
	TickTolerance        float64 // fraction of a tick
	MaxPrice             float64
	MaxVolume            float64
	MaxSpreadTicks       float64
	SpreadWindow         int
	NBCVTolerancePct     float64
	RangeMin             float64
	RangeMax             float64
	VPClampTolerancePct  float64
	MaxCorrectionRatePct float64
	TimestampTolerance   time.Duration
	MaxSequenceGap       uint64
	ScaleCorrection      bool
	Scale                normalize.ScaleConfig
}

type ruleOutcome struct {
	rule string
	pass bool
}

// Verdict is the outcome of validating one record. It is created per
// record, folded into the gate counters and then discarded.
type Verdict struct {
	Valid       bool
	Corrected   bool
	Corrections []string
	Reasons     []string

	outcomes []ruleOutcome
}

func newVerdict() Verdict {
	return Verdict{Valid: true}
}

func (v *Verdict) pass(rule string) {
	v.outcomes = append(v.outcomes, ruleOutcome{rule: rule, pass: true})
}

func (v *Verdict) fail(rule, reason string) {
	v.Valid = false
	v.Reasons = append(v.Reasons, reason)
	v.outcomes = append(v.outcomes, ruleOutcome{rule: rule, pass: false})
}

func (v *Verdict) correct(rule, correction string) {
	v.Corrected = true
	v.Corrections = append(v.Corrections, correction)
	v.outcomes = append(v.outcomes, ruleOutcome{rule: rule, pass: true})
}

func (v *Verdict) merge(other Verdict) {
	if !other.Valid {
		v.Valid = false
	}
	if other.Corrected {
		v.Corrected = true
	}
	v.Corrections = append(v.Corrections, other.Corrections...)
	v.Reasons = append(v.Reasons, other.Reasons...)
	v.outcomes = append(v.outcomes, other.outcomes...)
}

// Validators runs the per-type rules. Price, volume, band, NBCV, DOM
// and range checks are pure; the quote, timestamp and sequence checks
// keep sliding state in the shared tracker and the spread window.
type Validators struct {
	cfg     Thresholds
	tracker *emit.Tracker
	spreads []float64
}

// NewValidators builds the rule set over the shared emission tracker.
func NewValidators(cfg Thresholds, tracker *emit.Tracker) *Validators {
	return &Validators{cfg: cfg, tracker: tracker}
}

// CheckPrice validates one price, attempting a ×100/÷100 denomination
// correction before rejecting a misaligned or out-of-ceiling value.
// It returns the accepted (possibly corrected) price.
func (v *Validators) CheckPrice(price float64) (float64, Verdict) {
	verdict := newVerdict()

	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		verdict.fail(RulePriceRange, "price_not_positive")
		return price, verdict
	}

	if ok, corrected, correction := v.priceFits(price); ok {
		if correction != "" {
			verdict.correct(RulePriceRange, correction)
			verdict.pass(RuleTickAlignment)
			return corrected, verdict
		}
		verdict.pass(RulePriceRange)
		verdict.pass(RuleTickAlignment)
		return price, verdict
	}

	if v.cfg.MaxPrice > 0 && price > v.cfg.MaxPrice {
		verdict.fail(RulePriceRange, "price_above_ceiling")
	} else {
		verdict.pass(RulePriceRange)
	}
	if !normalize.IsTickAligned(price, v.cfg.TickSize, v.cfg.TickTolerance) {
		verdict.fail(RuleTickAlignment, "price_not_tick_aligned")
	}
	return price, verdict
}

// priceFits reports whether the price, or a scale-corrected variant of
// it, satisfies both the ceiling and the tick grid.
func (v *Validators) priceFits(price float64) (ok bool, corrected float64, correction string) {
	fits := func(p float64) bool {
		if v.cfg.MaxPrice > 0 && p > v.cfg.MaxPrice {
			return false
		}
		return normalize.IsTickAligned(p, v.cfg.TickSize, v.cfg.TickTolerance)
	}
	if fits(price) {
		return true, price, ""
	}
	if v.cfg.ScaleCorrection {
		// ÷100 only rescues ceiling breaches; applying it to a merely
		// misaligned price would shrink the misalignment below the tick
		// tolerance and accept garbage.
		if v.cfg.MaxPrice > 0 && price > v.cfg.MaxPrice && fits(price/100) {
			return true, price / 100, "scale_div100"
		}
		if fits(price * 100) {
			return true, price * 100, "scale_x100"
		}
	}
	return false, price, ""
}

// CheckVolume rejects negative or implausibly large volumes.
func (v *Validators) CheckVolume(volume float64) Verdict {
	verdict := newVerdict()
	switch {
	case math.IsNaN(volume) || volume < 0:
		verdict.fail(RuleVolume, "volume_negative")
	case v.cfg.MaxVolume > 0 && volume > v.cfg.MaxVolume:
		verdict.fail(RuleVolume, "volume_implausible")
	default:
		verdict.pass(RuleVolume)
	}
	return verdict
}

// CheckQuote rejects crossed books and spreads wider than the
// configured tick count. Recent spreads are kept in a sliding window so
// the gate report can expose the observed spread distribution.
func (v *Validators) CheckQuote(bid, ask float64) Verdict {
	verdict := newVerdict()
	if bid >= ask {
		verdict.fail(RuleQuoteSanity, "crossed_quote")
		return verdict
	}

	spreadTicks := ask - bid
	if v.cfg.TickSize > 0 {
		spreadTicks = (ask - bid) / v.cfg.TickSize
	}
	v.spreads = append(v.spreads, spreadTicks)
	if v.cfg.SpreadWindow > 0 && len(v.spreads) > v.cfg.SpreadWindow {
		v.spreads = v.spreads[len(v.spreads)-v.cfg.SpreadWindow:]
	}

	if v.cfg.MaxSpreadTicks > 0 && spreadTicks > v.cfg.MaxSpreadTicks {
		verdict.fail(RuleQuoteSanity, "spread_too_wide")
		return verdict
	}
	verdict.pass(RuleQuoteSanity)
	return verdict
}

// CheckDepth validates level-price ordering and size bounds across a
// full depth snapshot: bids strictly descending, asks strictly
// ascending, all prices positive and sizes within plausible bounds.
func (v *Validators) CheckDepth(levels []model.DepthRecord) Verdict {
	verdict := newVerdict()
	var prevBid, prevAsk float64
	ordered := true
	bounded := true

	for _, lv := range levels {
		if lv.Price <= 0 || math.IsNaN(lv.Price) {
			ordered = false
			continue
		}
		switch lv.Side {
		case model.SideBid:
			if prevBid != 0 && lv.Price >= prevBid {
				ordered = false
			}
			prevBid = lv.Price
		case model.SideAsk:
			if prevAsk != 0 && lv.Price <= prevAsk {
				ordered = false
			}
			prevAsk = lv.Price
		}
		if lv.Size < 0 || (v.cfg.MaxVolume > 0 && lv.Size > v.cfg.MaxVolume) {
			bounded = false
		}
	}

	if !ordered {
		verdict.fail(RuleDOM, "dom_price_order")
	}
	if !bounded {
		verdict.fail(RuleDOM, "dom_size_bounds")
	}
	if ordered && bounded {
		verdict.pass(RuleDOM)
	}
	return verdict
}

// CheckBands requires the first band pair to bracket the value and
// every further pair to strictly widen. Violations are never corrected.
func (v *Validators) CheckBands(value float64, bands []model.Band) Verdict {
	verdict := newVerdict()
	for i, b := range bands {
		if i == 0 {
			if !(b.Upper > value && value > b.Lower) {
				verdict.fail(RuleVWAPBands, "band1_order")
				return verdict
			}
			continue
		}
		prev := bands[i-1]
		if !(b.Upper > prev.Upper && b.Lower < prev.Lower) {
			verdict.fail(RuleVWAPBands, "band_not_widening")
			return verdict
		}
	}
	verdict.pass(RuleVWAPBands)
	return verdict
}

// CheckNBCV verifies the derived bar aggregate: total must equal
// ask+bid and delta must equal ask−bid, each within the configured
// tolerance percentage. The failing check is tagged in the reason.
func (v *Validators) CheckNBCV(ask, bid, delta, total float64) Verdict {
	verdict := newVerdict()
	tol := v.cfg.NBCVTolerancePct / 100

	expectedTotal := ask + bid
	expectedDelta := ask - bid

	ok := true
	if math.Abs(total-expectedTotal) > tol*math.Max(math.Abs(expectedTotal), 1) {
		verdict.fail(RuleNBCV, "total_inconsistent")
		ok = false
	}
	if math.Abs(delta-expectedDelta) > tol*math.Max(math.Abs(expectedTotal), 1) {
		verdict.fail(RuleNBCV, "delta_inconsistent")
		ok = false
	}
	if ok {
		verdict.pass(RuleNBCV)
	}
	return verdict
}

// CheckValueArea enforces VAL ≤ VPOC ≤ VAH on both triplets. A VPOC
// just outside the area is clamped to the nearer bound when the
// excursion stays within the clamp tolerance and the correction budget
// allows it; an inverted area is always quarantined.
func (v *Validators) CheckValueArea(rec model.ValueAreaRecord, allowCorrection bool) (model.ValueAreaRecord, Verdict) {
	verdict := newVerdict()

	vpoc, cur := v.checkTriplet(rec.VAH, rec.VAL, rec.VPOC, "", allowCorrection)
	rec.VPOC = vpoc
	verdict.merge(cur)

	pvpoc, prev := v.checkTriplet(rec.PVAH, rec.PVAL, rec.PVPOC, "prev_", allowCorrection)
	rec.PVPOC = pvpoc
	verdict.merge(prev)

	return rec, verdict
}

func (v *Validators) checkTriplet(vah, val, vpoc float64, prefix string, allowCorrection bool) (float64, Verdict) {
	verdict := newVerdict()

	if vah < val {
		verdict.fail(RuleVolumeProfile, prefix+"vah_lt_val")
		return vpoc, verdict
	}
	if vpoc >= val && vpoc <= vah {
		verdict.pass(RuleVolumeProfile)
		return vpoc, verdict
	}

	width := vah - val
	var excursion float64
	var clamped float64
	if vpoc > vah {
		excursion = vpoc - vah
		clamped = vah
	} else {
		excursion = val - vpoc
		clamped = val
	}
	if allowCorrection && width > 0 && excursion <= v.cfg.VPClampTolerancePct/100*width {
		verdict.correct(RuleVolumeProfile, prefix+"poc_clamped")
		return clamped, verdict
	}

	verdict.fail(RuleVolumeProfile, prefix+"poc_outside_range")
	return vpoc, verdict
}

// CheckRange rejects values outside the configured plausible range.
func (v *Validators) CheckRange(value float64) Verdict {
	verdict := newVerdict()
	if !normalize.InRange(value, v.cfg.RangeMin, v.cfg.RangeMax) {
		verdict.fail(RuleRangeSeries, "out_of_range")
		return verdict
	}
	verdict.pass(RuleRangeSeries)
	return verdict
}

// CheckTimestamp flags per-stream timestamps that regress beyond the
// configured tolerance. The last timestamp per stream lives in the
// shared tracker.
func (v *Validators) CheckTimestamp(stream string, ts time.Time) Verdict {
	verdict := newVerdict()
	prev, seen := v.tracker.ObserveTimestamp(stream, ts)
	if seen && ts.Before(prev.Add(-v.cfg.TimestampTolerance)) {
		verdict.fail(RuleTimestamp, "timestamp_regression")
		return verdict
	}
	verdict.pass(RuleTimestamp)
	return verdict
}

// CheckSequence flags sequence gaps beyond the configured maximum. The
// last sequence per stream lives in the shared tracker.
func (v *Validators) CheckSequence(stream string, seq uint64) Verdict {
	verdict := newVerdict()
	prev, seen := v.tracker.ObserveSequence(stream, seq)
	if seen && seq > prev && seq-prev-1 > v.cfg.MaxSequenceGap {
		verdict.fail(RuleSequence, "sequence_gap")
		return verdict
	}
	verdict.pass(RuleSequence)
	return verdict
}
