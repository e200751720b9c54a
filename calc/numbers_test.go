package calc

import (
	"testing"
)

func TestRoundFloat64(t *testing.T) {
	if got := RoundFloat64(1.23456, 2); !almostEqual(got, 1.23) {
		t.Errorf("RoundFloat64(1.23456, 2) = %f", got)
	}
	if got := RoundFloat64(5.5, 0); !almostEqual(got, 6.0) {
		t.Errorf("RoundFloat64(5.5, 0) = %f", got)
	}
	if got := TwoDecimals(-1.987); !almostEqual(got, -1.99) {
		t.Errorf("TwoDecimals(-1.987) = %f", got)
	}
}

func TestCostAtMWhPrice(t *testing.T) {
	// 2 kWh at 50 EUR/MWh is one tenth of a cent per kWh scale
	if got := CostAtMWhPrice(2.0, 50.0); !almostEqual(got, 0.1) {
		t.Errorf("CostAtMWhPrice(2, 50) = %f, want 0.1", got)
	}
	// Negative day-ahead prices yield negative cost
	if got := CostAtMWhPrice(2.0, -50.0); !almostEqual(got, -0.1) {
		t.Errorf("CostAtMWhPrice(2, -50) = %f, want -0.1", got)
	}
}

func TestBreakerMaxPowerW(t *testing.T) {
	// 25 A three-phase main breaker
	if got := BreakerMaxPowerW(25, 3); !almostEqual(got, 17250) {
		t.Errorf("BreakerMaxPowerW(25, 3) = %f, want 17250", got)
	}
	if got := BreakerMaxPowerW(16, 1); !almostEqual(got, 3680) {
		t.Errorf("BreakerMaxPowerW(16, 1) = %f, want 3680", got)
	}
}
