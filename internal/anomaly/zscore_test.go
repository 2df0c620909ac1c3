package anomaly

import (
	"math"
	"testing"

	"github.com/candorlabs/candor/internal/baseline"
)

func TestSubScore(t *testing.T) {
	tests := []struct {
		name        string
		value       float64
		stats       baseline.Stats
		sensitivity float64
		want        float64
	}{
		{
			name:        "at mean scores zero",
			value:       10,
			stats:       baseline.Stats{Mean: 10, StdDev: 2, Samples: 30},
			sensitivity: 2.0,
			want:        0,
		},
		{
			name:        "one sigma with default sensitivity",
			value:       12,
			stats:       baseline.Stats{Mean: 10, StdDev: 2, Samples: 30},
			sensitivity: 2.0,
			want:        25, // z=1, saturation at z=4
		},
		{
			name:        "saturates at 2*sensitivity sigmas",
			value:       18,
			stats:       baseline.Stats{Mean: 10, StdDev: 2, Samples: 30},
			sensitivity: 2.0,
			want:        100,
		},
		{
			name:        "beyond saturation stays clamped",
			value:       1000,
			stats:       baseline.Stats{Mean: 10, StdDev: 2, Samples: 30},
			sensitivity: 2.0,
			want:        100,
		},
		{
			name:        "deviation below mean counts the same",
			value:       8,
			stats:       baseline.Stats{Mean: 10, StdDev: 2, Samples: 30},
			sensitivity: 2.0,
			want:        25,
		},
		{
			name:        "higher sensitivity flattens the ramp",
			value:       12,
			stats:       baseline.Stats{Mean: 10, StdDev: 2, Samples: 30},
			sensitivity: 4.0,
			want:        12.5,
		},
		{
			name:        "zero std pins any deviation at max",
			value:       10.001,
			stats:       baseline.Stats{Mean: 10, StdDev: 0, Samples: 30},
			sensitivity: 2.0,
			want:        100,
		},
		{
			name:        "zero std and exact mean scores zero",
			value:       10,
			stats:       baseline.Stats{Mean: 10, StdDev: 0, Samples: 30},
			sensitivity: 2.0,
			want:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubScore(tt.value, tt.stats, tt.sensitivity)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SubScore(%v, %+v, %v) = %v, want %v",
					tt.value, tt.stats, tt.sensitivity, got, tt.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("SubScore returned non-finite %v", got)
			}
		})
	}
}

func TestRangeScore(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		lo, hi     float64
		want       float64
	}{
		{"inside band", 17, 10, 25, 0},
		{"at lower edge", 10, 10, 25, 0},
		{"at upper edge", 25, 10, 25, 0},
		{"above band half width", 32.5, 10, 25, 50},
		{"below band half width", 2.5, 10, 25, 50},
		{"full width above saturates", 40, 10, 25, 100},
		{"far outside clamps", 500, 10, 25, 100},
		{"inverted bounds normalized", 17, 25, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangeScore(tt.value, tt.lo, tt.hi)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RangeScore(%v, %v, %v) = %v, want %v",
					tt.value, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}
