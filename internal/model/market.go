package model

import "time"

// Side identifies one side of the order book.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// TSKind classifies a time-and-sales entry.
type TSKind string

const (
	TSTrade TSKind = "trade"
	TSBid   TSKind = "bid"
	TSAsk   TSKind = "ask"
)

// Bar is one closed OHLCV aggregation period for an instrument.
// Bars are owned by the market event source and read-only to the pipeline.
type Bar struct {
	Index     int       `json:"index"`
	Time      time.Time `json:"time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	BidVolume float64   `json:"bid_volume"`
	AskVolume float64   `json:"ask_volume"`
}

// DepthLevel is a single price level of a depth-of-book snapshot.
// Levels are transient: re-read on every poll, never persisted.
type DepthLevel struct {
	Side  Side      `json:"side"`
	Level int       `json:"level"`
	Price float64   `json:"price"`
	Size  float64   `json:"size"`
	Time  time.Time `json:"time"`
}

// VolumeAtPrice is one (price, volume) cell of a bar's volume-at-price
// distribution. Entries accumulate while the owning bar is open and are
// frozen once it closes; session analytics only read frozen entries.
type VolumeAtPrice struct {
	BarIndex int     `json:"bar_index"`
	Price    float64 `json:"price"`
	Volume   float64 `json:"volume"`
}

// TimeAndSalesEvent is one entry of the venue's trade/quote ring buffer.
type TimeAndSalesEvent struct {
	Kind     TSKind    `json:"kind"`
	Price    float64   `json:"price"`
	Volume   float64   `json:"volume"`
	Sequence uint64    `json:"sequence"`
	Time     time.Time `json:"time"`
}
