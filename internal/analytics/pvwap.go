package analytics

import (
	"errors"
	"math"
	"time"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/model"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/normalize"
	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/source"
)

var (
	// ErrNoPrevSession means no closed previous session exists in the
	// available bar history.
	ErrNoPrevSession = errors.New("no_prev_session")
	// ErrNoVolume means the previous session holds no volume-at-price
	// volume to average over.
	ErrNoVolume = errors.New("no_volume_prev_session")
)

// σ multiples of the PVWAP band ladder.
var pvwapBandMultiples = []float64{0.5, 1.0, 1.5, 2.0}

// PVWAPConfig configures the previous-session VWAP computation.
type PVWAPConfig struct {
	BandCount   int // 0..4 symmetric σ-band pairs
	ScaleEnable bool
	Scale       normalize.ScaleConfig
}

// ComputePVWAP derives the previous-session VWAP and σ-bands from raw
// volume-at-price history.
//
// The current session start is found by walking backward from barIndex
// until the session predicate fires; the previous session is the closed
// bar range ending one bar before that start. ΣV, ΣP·V and ΣP²·V are
// accumulated over every frozen entry in that range, giving
// PVWAP = ΣP·V/ΣV and σ = √(ΣP²·V/ΣV − PVWAP²) clamped at zero.
func ComputePVWAP(src source.MarketSource, barIndex int, cfg PVWAPConfig, now time.Time) (model.PVWAPRecord, error) {
	if cfg.BandCount > len(pvwapBandMultiples) {
		cfg.BandCount = len(pvwapBandMultiples)
	}

	sessionStart := -1
	for i := barIndex; i >= 0; i-- {
		if src.IsNewSession(i) {
			sessionStart = i
			break
		}
	}
	if sessionStart <= 0 {
		// Either no boundary in history or the current session opens the
		// chart: no closed previous session exists.
		return model.PVWAPRecord{}, ErrNoPrevSession
	}

	prevEnd := sessionStart - 1
	prevStart := 0
	for j := prevEnd; j >= 0; j-- {
		if src.IsNewSession(j) {
			prevStart = j
			break
		}
	}

	var sumV, sumPV, sumP2V float64
	for bar := prevStart; bar <= prevEnd; bar++ {
		for _, entry := range src.VolumeAtPrice(bar) {
			sumV += entry.Volume
			sumPV += entry.Price * entry.Volume
			sumP2V += entry.Price * entry.Price * entry.Volume
		}
	}
	if sumV <= 0 {
		return model.PVWAPRecord{}, ErrNoVolume
	}

	vwap := sumPV / sumV
	variance := sumP2V/sumV - vwap*vwap
	if variance < 0 {
		variance = 0
	}
	sd := math.Sqrt(variance)

	if cfg.ScaleEnable {
		if ref, ok := src.Bar(barIndex); ok {
			if scaled, corrected := normalize.NormalizeScale(vwap, ref.Close, cfg.Scale); corrected {
				factor := scaled / vwap
				vwap = scaled
				sd *= factor
			}
		}
	}

	rec := model.PVWAPRecord{
		T:        model.TimeValue(now),
		Type:     model.TypePVWAP,
		BarIndex: barIndex,
		Value:    vwap,
		SD:       sd,
		StartBar: prevStart,
		EndBar:   prevEnd,
	}
	for i := 0; i < cfg.BandCount; i++ {
		m := pvwapBandMultiples[i]
		rec.Bands = append(rec.Bands, model.Band{
			Upper: vwap + m*sd,
			Lower: vwap - m*sd,
		})
	}

	return rec, nil
}
