package model

import "time"

// Record type discriminators carried in the "type" field of every
// emitted line.
const (
	TypeBaseData    = "basedata"
	TypeVWAP        = "vwap"
	TypeValueArea   = "vva"
	TypePVWAP       = "pvwap"
	TypeDepth       = "depth"
	TypeVAP         = "vap"
	TypeTimeAndSale = "ts"
	TypeQuote       = "quote"
	TypeTrade       = "trade"
	TypeRangeSeries = "range_series"
	TypeQuarantine  = "quarantine"
)

// Emitted is implemented by every record the pipeline can serialize.
type Emitted interface {
	RecordType() string
}

// TimeValue converts a timestamp to the fractional-seconds "t" field.
func TimeValue(ts time.Time) float64 {
	return float64(ts.UnixNano()) / 1e9
}

// Band is one symmetric band pair around a central value.
type Band struct {
	Upper float64 `json:"up"`
	Lower float64 `json:"dn"`
}

// BaseDataRecord is the per-bar OHLCV export, including the derived
// bid/ask aggregate (delta, total) checked by the consistency validator.
type BaseDataRecord struct {
	T         float64 `json:"t"`
	Type      string  `json:"type"`
	BarIndex  int     `json:"bar"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	BidVolume float64 `json:"bid_volume"`
	AskVolume float64 `json:"ask_volume"`
	Delta     float64 `json:"delta"`
	Total     float64 `json:"total"`
}

func (BaseDataRecord) RecordType() string { return TypeBaseData }

// VWAPRecord is the venue-computed VWAP with up to two band pairs.
type VWAPRecord struct {
	T        float64 `json:"t"`
	Type     string  `json:"type"`
	BarIndex int     `json:"bar"`
	Value    float64 `json:"value"`
	Bands    []Band  `json:"bands,omitempty"`
}

func (VWAPRecord) RecordType() string { return TypeVWAP }

// ValueAreaRecord carries the current and previous period VAH/VAL/VPOC
// triplets.
type ValueAreaRecord struct {
	T        float64 `json:"t"`
	Type     string  `json:"type"`
	BarIndex int     `json:"bar"`
	VAH      float64 `json:"vah"`
	VAL      float64 `json:"val"`
	VPOC     float64 `json:"vpoc"`
	PVAH     float64 `json:"pvah"`
	PVAL     float64 `json:"pval"`
	PVPOC    float64 `json:"pvpoc"`
}

func (ValueAreaRecord) RecordType() string { return TypeValueArea }

// PVWAPRecord is the self-computed previous-session VWAP with σ-bands
// and the closed bar range it was computed over.
type PVWAPRecord struct {
	T        float64 `json:"t"`
	Type     string  `json:"type"`
	BarIndex int     `json:"bar"`
	Value    float64 `json:"value"`
	SD       float64 `json:"sd"`
	Bands    []Band  `json:"bands,omitempty"`
	StartBar int     `json:"start_bar"`
	EndBar   int     `json:"end_bar"`
}

func (PVWAPRecord) RecordType() string { return TypePVWAP }

// DepthRecord is one depth-of-book level, re-emitted on every poll.
type DepthRecord struct {
	T     float64 `json:"t"`
	Type  string  `json:"type"`
	Side  Side    `json:"side"`
	Level int     `json:"level"`
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

func (DepthRecord) RecordType() string { return TypeDepth }

// DepthSnapshotRecord groups the levels of one poll so a snapshot that
// fails DOM validation can be quarantined as a unit.
type DepthSnapshotRecord struct {
	T      float64       `json:"t"`
	Type   string        `json:"type"`
	Levels []DepthRecord `json:"levels"`
}

func (DepthSnapshotRecord) RecordType() string { return TypeDepth }

// VAPRecord is one frozen volume-at-price cell of a closed bar.
type VAPRecord struct {
	T        float64 `json:"t"`
	Type     string  `json:"type"`
	BarIndex int     `json:"bar"`
	Price    float64 `json:"price"`
	Volume   float64 `json:"volume"`
}

func (VAPRecord) RecordType() string { return TypeVAP }

// TimeAndSalesRecord is one raw ring-buffer entry.
type TimeAndSalesRecord struct {
	T        float64 `json:"t"`
	Type     string  `json:"type"`
	Kind     TSKind  `json:"kind"`
	Price    float64 `json:"price"`
	Volume   float64 `json:"volume"`
	Sequence uint64  `json:"seq"`
}

func (TimeAndSalesRecord) RecordType() string { return TypeTimeAndSale }

// QuoteRecord is the best bid/ask pair observed on a poll.
type QuoteRecord struct {
	T       float64 `json:"t"`
	Type    string  `json:"type"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	BidSize float64 `json:"bid_size"`
	AskSize float64 `json:"ask_size"`
}

func (QuoteRecord) RecordType() string { return TypeQuote }

// TradeRecord is a validated trade from the time-and-sales stream.
type TradeRecord struct {
	T        float64 `json:"t"`
	Type     string  `json:"type"`
	Price    float64 `json:"price"`
	Volume   float64 `json:"volume"`
	Sequence uint64  `json:"seq"`
}

func (TradeRecord) RecordType() string { return TypeTrade }

// RangeSeriesRecord is a generic range-bounded study export, such as a
// volatility index.
type RangeSeriesRecord struct {
	T        float64 `json:"t"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	BarIndex int     `json:"bar"`
	Value    float64 `json:"value"`
}

func (RangeSeriesRecord) RecordType() string { return TypeRangeSeries }

// DiagnosticRecord surfaces a local failure (resolution miss, missing
// history) instead of dropping a computation silently. Its type field is
// the affected channel suffixed with "_diag".
type DiagnosticRecord struct {
	T        float64 `json:"t"`
	Type     string  `json:"type"`
	BarIndex int     `json:"bar"`
	Reason   string  `json:"reason"`
}

func (d DiagnosticRecord) RecordType() string { return d.Type }

// QuarantineRecord wraps a rejected record with its rejection reasons.
// Quarantined records are never forwarded downstream.
type QuarantineRecord struct {
	T          float64  `json:"t"`
	Type       string   `json:"type"`
	ID         string   `json:"id"`
	SourceType string   `json:"source_type"`
	Reasons    []string `json:"reasons"`
	Payload    Emitted  `json:"payload"`
}

func (QuarantineRecord) RecordType() string { return TypeQuarantine }
