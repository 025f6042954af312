// Package normalize tick-aligns and range-checks raw numeric inputs
// before any computation or validation runs on them.
package normalize

import "math"

// AlignPrice rounds a price to the nearest multiple of tickSize.
func AlignPrice(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	return math.Round(price/tickSize) * tickSize
}

// IsTickAligned reports whether price sits on the tick grid within
// tolerance (expressed as a fraction of the tick size).
func IsTickAligned(price, tickSize, tolerance float64) bool {
	if tickSize <= 0 {
		return true
	}
	_, frac := math.Modf(math.Abs(price) / tickSize)
	dist := math.Min(frac, 1-frac)
	return dist <= tolerance
}

// ScaleConfig bounds the ×100/÷100 denomination heuristic. The
// heuristic fires when the ratio between a reference price and a
// computed value lands inside [RatioMin, RatioMax] in either
// orientation, i.e. the two differ by roughly two orders of magnitude.
type ScaleConfig struct {
	RatioMin float64
	RatioMax float64
}

// NormalizeScale corrects value onto the reference price's denomination.
// It returns the (possibly scaled) value and whether a correction was
// applied. Heterogeneous feeds deliver some series ×100 off.
func NormalizeScale(value, reference float64, cfg ScaleConfig) (float64, bool) {
	if value <= 0 || reference <= 0 {
		return value, false
	}
	ratio := reference / value
	if ratio >= cfg.RatioMin && ratio <= cfg.RatioMax {
		return value * 100, true
	}
	inverse := value / reference
	if inverse >= cfg.RatioMin && inverse <= cfg.RatioMax {
		return value / 100, true
	}
	return value, false
}

// InRange reports whether v lies in [min, max].
func InRange(v, min, max float64) bool {
	return !math.IsNaN(v) && v >= min && v <= max
}
