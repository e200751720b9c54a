package dispatch

import (
	"database/sql"
	"errors"

	"github.com/mkadlec/homewatt-go/calc"
)

var (
	ErrNoForecast = errors.New("no energy forecast for the target date")
	ErrNoPrices   = errors.New("no valid energy prices for the target date")
)

// HourForecast is one candidate hour of the target day: the predicted
// consumption and production in kW and the day-ahead price in EUR/MWh.
// An invalid price means the market published none for that hour.
type HourForecast struct {
	Hour        uint8
	Consumption float64
	Production  float64
	Price       sql.NullFloat64
}

// Limits is the battery's maximum hourly charge and discharge power.
type Limits struct {
	MaxChargeKw    float64
	MaxDischargeKw float64
}

type Input struct {
	Hours   []HourForecast
	Battery Limits
	// When set, the plan is clamped by a running state of charge.
	// When nil every hour is decided from price alone, which matches
	// the cost accounting but can schedule more energy than the
	// battery holds.
	State *BatteryState
}

// Entry is the decision for one hour: the adjusted net power drawn from
// the grid after the battery action is applied, and the action itself.
type Entry struct {
	Hour           uint8
	PowerKw        float64
	Price          float64
	Action         Action
	BatteryPowerKw float64
}

type Output struct {
	Entries       []Entry
	Skipped       []uint8 // hours excluded because they had no price
	LowThreshold  float64
	HighThreshold float64
	BaselineCost  float64 // EUR, full precision
	OptimizedCost float64 // EUR, full precision
	Saving        float64 // EUR, rounded to cents
}

// Plan assigns a battery action to every priced hour of the day using a
// threshold policy: hours in the cheapest price quartile charge at full
// power, hours in the most expensive quartile discharge, the rest idle.
// Thresholds are the 25th and 75th linear-interpolation percentiles of
// the available prices. Hours priced exactly at a threshold participate
// (charge wins at the low boundary, discharge at the high one), so
// boundary hours are never wasted on idling.
func Plan(in Input) (Output, error) {
	if len(in.Hours) == 0 {
		return Output{}, ErrNoForecast
	}

	var prices []float64
	for _, h := range in.Hours {
		if h.Price.Valid {
			prices = append(prices, h.Price.Float64)
		}
	}
	if len(prices) == 0 {
		return Output{}, ErrNoPrices
	}

	out := Output{
		LowThreshold:  calc.Percentile(prices, 0.25),
		HighThreshold: calc.Percentile(prices, 0.75),
	}

	for _, h := range in.Hours {
		if !h.Price.Valid {
			out.Skipped = append(out.Skipped, h.Hour)
			continue
		}
		price := h.Price.Float64

		// Surplus production is not credited as export in this model
		netLoad := max(h.Consumption-h.Production, 0)
		out.BaselineCost += calc.CostAtMWhPrice(netLoad, price)

		action := ActionIdle
		power := 0.0
		switch {
		case price <= out.LowThreshold:
			action = ActionCharge
			power = in.Battery.MaxChargeKw
			if in.State != nil {
				power = in.State.ChargeAllowance(power)
			}
		case price >= out.HighThreshold:
			action = ActionDischarge
			power = in.Battery.MaxDischargeKw
			if in.State != nil {
				power = in.State.DischargeAllowance(power)
			}
		}
		if power <= 0 {
			// A fully clamped hour has nothing to contribute
			action = ActionIdle
			power = 0
		}

		adjusted := netLoad
		switch action {
		case ActionCharge:
			adjusted = netLoad + power
			if in.State != nil {
				in.State.Apply(power, 0)
			}
		case ActionDischarge:
			// Discharge beyond net load is not exported or credited
			adjusted = max(netLoad-power, 0)
			if in.State != nil {
				in.State.Apply(0, power)
			}
		}

		out.OptimizedCost += calc.CostAtMWhPrice(adjusted, price)
		out.Entries = append(out.Entries, Entry{
			Hour:           h.Hour,
			PowerKw:        calc.TwoDecimals(adjusted),
			Price:          price,
			Action:         action,
			BatteryPowerKw: power,
		})
	}

	out.Saving = calc.TwoDecimals(out.BaselineCost - out.OptimizedCost)

	return out, nil
}
