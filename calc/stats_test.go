package calc

import (
	"math"
	"testing"
)

func almostEqual(f1 float64, f2 float64) bool {
	return math.Abs(f1-f2) < 1e-9
}

// Linear interpolation between closest ranks is pinned here so the
// dispatch thresholds stay bit-comparable with the numpy/pandas default.
func TestPercentileLinearInterpolation(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		q        float64
		expected float64
	}{
		{"empty", nil, 0.5, 0},
		{"single value", []float64{42}, 0.25, 42},
		{"p25 of four", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"p75 of four", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"median of odd count", []float64{3, 1, 2}, 0.5, 2},
		{"exact rank hit", []float64{10, 20, 30, 40, 50}, 0.25, 20},
		{"unsorted input", []float64{50, 10, 40, 20, 30}, 0.75, 40},
		{"q zero", []float64{5, 1, 9}, 0, 1},
		{"q one", []float64{5, 1, 9}, 1, 9},
		{"negative prices", []float64{-20, -10, 0, 10}, 0.25, -12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(tt.values, tt.q); !almostEqual(got, tt.expected) {
				t.Errorf("Percentile(%v, %v) = %f, want %f", tt.values, tt.q, got, tt.expected)
			}
		})
	}
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 0.5)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input slice was reordered: %v", values)
	}
}
