package calc

import (
	"math"
)

func TwoDecimals(number float64) float64 {
	return RoundFloat64(number, 2)
}

func RoundFloat64(number float64, decimals int) float64 {
	return math.Round(number*math.Pow10(decimals)) / math.Pow10(decimals)
}

// Converts an EUR/MWh market price to the cost of the given energy in kWh.
func CostAtMWhPrice(kWh, price float64) float64 {
	return kWh * price / 1000.0
}

// Maximum power in watts the grid connection can deliver,
// derived from the main breaker rating (230 V per phase).
func BreakerMaxPowerW(currentPerPhase float64, phases int) float64 {
	return currentPerPhase * 230.0 * float64(phases)
}
