package utils

import (
	"math"
	"testing"
)

func TestTruncateInt(t *testing.T) {
	tests := []struct {
		in     float64
		want   int
		wantOK bool
	}{
		{1500, 1500, true},
		{12.9, 12, true},
		{-3.5, -3, true},
		{math.MaxInt32, math.MaxInt32, true},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{math.Inf(-1), 0, false},
		{1e300, 0, false},
		{-1e12, 0, false},
	}

	for _, tt := range tests {
		got, ok := TruncateInt(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("TruncateInt(%v): got (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
