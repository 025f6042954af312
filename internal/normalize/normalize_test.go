package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		tickSize float64
		want     float64
	}{
		{name: "already aligned", price: 4500.25, tickSize: 0.25, want: 4500.25},
		{name: "rounds down", price: 4500.30, tickSize: 0.25, want: 4500.25},
		{name: "rounds up", price: 4500.40, tickSize: 0.25, want: 4500.50},
		{name: "zero tick passes through", price: 123.456, tickSize: 0, want: 123.456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AlignPrice(tt.price, tt.tickSize), 1e-9)
		})
	}
}

func TestIsTickAligned(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		tickSize  float64
		tolerance float64
		want      bool
	}{
		{name: "exact multiple", price: 4500.25, tickSize: 0.25, tolerance: 0.05, want: true},
		{name: "within tolerance", price: 4500.251, tickSize: 0.25, tolerance: 0.05, want: true},
		{name: "off grid", price: 4500.30, tickSize: 0.25, tolerance: 0.05, want: false},
		{name: "just below next tick", price: 4500.499, tickSize: 0.25, tolerance: 0.05, want: true},
		{name: "half tick off", price: 4500.375, tickSize: 0.25, tolerance: 0.05, want: false},
		{name: "zero tick always aligned", price: 4500.30, tickSize: 0, tolerance: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTickAligned(tt.price, tt.tickSize, tt.tolerance))
		})
	}
}

func TestNormalizeScale(t *testing.T) {
	cfg := ScaleConfig{RatioMin: 50, RatioMax: 200}

	tests := []struct {
		name          string
		value         float64
		reference     float64
		want          float64
		wantCorrected bool
	}{
		{name: "value 100x too small", value: 45.0, reference: 4500.0, want: 4500.0, wantCorrected: true},
		{name: "value 100x too large", value: 450000.0, reference: 4500.0, want: 4500.0, wantCorrected: true},
		{name: "same denomination untouched", value: 4480.0, reference: 4500.0, want: 4480.0, wantCorrected: false},
		{name: "ratio outside bounds untouched", value: 10.0, reference: 4500.0, want: 10.0, wantCorrected: false},
		{name: "non-positive value untouched", value: 0, reference: 4500.0, want: 0, wantCorrected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, corrected := NormalizeScale(tt.value, tt.reference, cfg)
			assert.Equal(t, tt.wantCorrected, corrected)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(15.5, 0, 200))
	assert.False(t, InRange(-1, 0, 200))
	assert.False(t, InRange(250, 0, 200))
}
