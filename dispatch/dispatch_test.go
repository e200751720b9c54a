package dispatch

import (
	"database/sql"
	"errors"
	"math"
	"testing"

	"github.com/mkadlec/homewatt-go/calc"
)

func somePrice(p float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: p, Valid: true}
}

func almostEqual(f1 float64, f2 float64) bool {
	return math.Abs(f1-f2) < 1e-9
}

// The reference day: 6 cheap hours, 12 mid-priced, 6 expensive, flat
// 2 kW load, no production, 3 kW battery.
func referenceDay() Input {
	prices := []float64{
		10, 10, 10, 10, 10, 10,
		50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50,
		90, 90, 90, 90, 90, 90,
	}
	in := Input{
		Battery: Limits{MaxChargeKw: 3.0, MaxDischargeKw: 3.0},
	}
	for h, p := range prices {
		in.Hours = append(in.Hours, HourForecast{
			Hour:        uint8(h),
			Consumption: 2.0,
			Production:  0.0,
			Price:       somePrice(p),
		})
	}
	return in
}

func TestPlanReferenceDay(t *testing.T) {
	out, err := Plan(referenceDay())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}

	if len(out.Entries) != 24 {
		t.Fatalf("expected 24 entries, got %d", len(out.Entries))
	}

	// Linear-interpolation percentiles of the 24 prices
	if !almostEqual(out.LowThreshold, 40.0) {
		t.Errorf("expected low threshold 40.0, got %f", out.LowThreshold)
	}
	if !almostEqual(out.HighThreshold, 60.0) {
		t.Errorf("expected high threshold 60.0, got %f", out.HighThreshold)
	}

	for _, e := range out.Entries {
		switch {
		case e.Price == 10:
			if e.Action != ActionCharge {
				t.Errorf("hour %d priced 10 should charge, got %s", e.Hour, e.Action)
			}
			if !almostEqual(e.PowerKw, 5.0) {
				t.Errorf("hour %d expected adjusted power 5.0, got %f", e.Hour, e.PowerKw)
			}
		case e.Price == 50:
			if e.Action != ActionIdle {
				t.Errorf("hour %d priced 50 should idle, got %s", e.Hour, e.Action)
			}
			if !almostEqual(e.PowerKw, 2.0) {
				t.Errorf("hour %d expected adjusted power 2.0, got %f", e.Hour, e.PowerKw)
			}
		case e.Price == 90:
			if e.Action != ActionDischarge {
				t.Errorf("hour %d priced 90 should discharge, got %s", e.Hour, e.Action)
			}
			if !almostEqual(e.PowerKw, 0.0) {
				t.Errorf("hour %d expected adjusted power 0.0, got %f", e.Hour, e.PowerKw)
			}
		}
	}

	// 24 * 2 kW * avg price 50 EUR/MWh
	if !almostEqual(out.BaselineCost, 2.4) {
		t.Errorf("expected baseline cost 2.4, got %f", out.BaselineCost)
	}
	if !almostEqual(out.OptimizedCost, 1.5) {
		t.Errorf("expected optimized cost 1.5, got %f", out.OptimizedCost)
	}
	if out.Saving <= 0 {
		t.Errorf("expected strictly positive saving, got %f", out.Saving)
	}
	if out.Saving != calc.TwoDecimals(out.BaselineCost-out.OptimizedCost) {
		t.Errorf("saving %f is not the rounded cost difference", out.Saving)
	}
}

func TestPlanThresholdOrderingAndClassification(t *testing.T) {
	out, err := Plan(referenceDay())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if out.LowThreshold > out.HighThreshold {
		t.Errorf("low threshold %f above high threshold %f", out.LowThreshold, out.HighThreshold)
	}
	// Every priced hour gets exactly one classification
	if len(out.Entries)+len(out.Skipped) != 24 {
		t.Errorf("entries (%d) + skipped (%d) should cover all 24 hours",
			len(out.Entries), len(out.Skipped))
	}
}

func TestPlanPowerNeverNegative(t *testing.T) {
	in := referenceDay()
	// Give some hours a production surplus
	for h := range in.Hours {
		if h%3 == 0 {
			in.Hours[h].Production = 5.0
		}
	}
	out, err := Plan(in)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	for _, e := range out.Entries {
		if e.PowerKw < 0 {
			t.Errorf("hour %d has negative power %f", e.Hour, e.PowerKw)
		}
	}
}

func TestPlanNetLoadClamp(t *testing.T) {
	in := Input{
		Battery: Limits{MaxChargeKw: 3.0, MaxDischargeKw: 3.0},
		Hours: []HourForecast{
			// Production surplus, mid price: net load must clamp to zero
			{Hour: 0, Consumption: 1.0, Production: 4.0, Price: somePrice(50)},
			{Hour: 1, Consumption: 1.0, Production: 0.0, Price: somePrice(10)},
			{Hour: 2, Consumption: 1.0, Production: 0.0, Price: somePrice(90)},
		},
	}
	out, err := Plan(in)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if !almostEqual(out.Entries[0].PowerKw, 0.0) {
		t.Errorf("surplus hour expected power 0.0, got %f", out.Entries[0].PowerKw)
	}
	// The surplus hour contributes nothing to the baseline either
	surplusBaseline := calc.CostAtMWhPrice(0, 50)
	if !almostEqual(surplusBaseline, 0) {
		t.Errorf("surplus hour expected zero baseline cost")
	}
}

func TestPlanSkipsUnpricedHours(t *testing.T) {
	in := referenceDay()
	for h := 20; h < 24; h++ {
		in.Hours[h].Price = sql.NullFloat64{}
	}
	out, err := Plan(in)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(out.Entries) != 20 {
		t.Errorf("expected 20 entries with 4 unpriced hours, got %d", len(out.Entries))
	}
	if len(out.Skipped) != 4 {
		t.Errorf("expected 4 skipped hours, got %d", len(out.Skipped))
	}
	for _, e := range out.Entries {
		if e.Hour >= 20 {
			t.Errorf("unpriced hour %d must not appear in the plan", e.Hour)
		}
	}
}

func TestPlanFailsFast(t *testing.T) {
	if _, err := Plan(Input{}); !errors.Is(err, ErrNoForecast) {
		t.Errorf("expected ErrNoForecast for empty input, got %v", err)
	}

	in := Input{
		Hours: []HourForecast{
			{Hour: 0, Consumption: 1.0},
			{Hour: 1, Consumption: 1.0},
		},
	}
	if _, err := Plan(in); !errors.Is(err, ErrNoPrices) {
		t.Errorf("expected ErrNoPrices when every price is missing, got %v", err)
	}
}

func TestPlanBoundaryPricesParticipate(t *testing.T) {
	// Five distinct prices put the 25th percentile exactly at 20 and
	// the 75th exactly at 40. Boundary hours must not idle.
	in := Input{
		Battery: Limits{MaxChargeKw: 3.0, MaxDischargeKw: 3.0},
		Hours: []HourForecast{
			{Hour: 0, Consumption: 1.0, Price: somePrice(10)},
			{Hour: 1, Consumption: 1.0, Price: somePrice(20)},
			{Hour: 2, Consumption: 1.0, Price: somePrice(30)},
			{Hour: 3, Consumption: 1.0, Price: somePrice(40)},
			{Hour: 4, Consumption: 1.0, Price: somePrice(50)},
		},
	}
	out, err := Plan(in)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if !almostEqual(out.LowThreshold, 20.0) || !almostEqual(out.HighThreshold, 40.0) {
		t.Fatalf("expected thresholds 20/40, got %f/%f", out.LowThreshold, out.HighThreshold)
	}
	if out.Entries[1].Action != ActionCharge {
		t.Errorf("hour at the low threshold should charge, got %s", out.Entries[1].Action)
	}
	if out.Entries[3].Action != ActionDischarge {
		t.Errorf("hour at the high threshold should discharge, got %s", out.Entries[3].Action)
	}
	if out.Entries[2].Action != ActionIdle {
		t.Errorf("mid-priced hour should idle, got %s", out.Entries[2].Action)
	}
}

func TestPlanWithStateOfCharge(t *testing.T) {
	in := Input{
		Battery: Limits{MaxChargeKw: 3.0, MaxDischargeKw: 3.0},
		State: &BatteryState{
			CapacityKWh: 2.0,
			Efficiency:  1.0,
			SocMin:      0.0,
			SocMax:      1.0,
			Soc:         0.5,
		},
		Hours: []HourForecast{
			{Hour: 0, Consumption: 2.0, Price: somePrice(10)},
			{Hour: 1, Consumption: 2.0, Price: somePrice(10)},
			{Hour: 2, Consumption: 2.0, Price: somePrice(90)},
			{Hour: 3, Consumption: 2.0, Price: somePrice(90)},
		},
	}
	out, err := Plan(in)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}

	// Only 1 kWh of room: first cheap hour charges clamped to 1 kW
	if out.Entries[0].Action != ActionCharge || !almostEqual(out.Entries[0].BatteryPowerKw, 1.0) {
		t.Errorf("hour 0 expected clamped charge of 1.0 kW, got %s %f",
			out.Entries[0].Action, out.Entries[0].BatteryPowerKw)
	}
	// Battery full: second cheap hour degrades to idle
	if out.Entries[1].Action != ActionIdle {
		t.Errorf("hour 1 expected idle with a full battery, got %s", out.Entries[1].Action)
	}
	// Full 2 kWh available: discharge covers the whole load
	if out.Entries[2].Action != ActionDischarge || !almostEqual(out.Entries[2].PowerKw, 0.0) {
		t.Errorf("hour 2 expected discharge to zero grid power, got %s %f",
			out.Entries[2].Action, out.Entries[2].PowerKw)
	}
	// Battery empty: second expensive hour degrades to idle
	if out.Entries[3].Action != ActionIdle {
		t.Errorf("hour 3 expected idle with an empty battery, got %s", out.Entries[3].Action)
	}
}

func TestBatteryStateApplyClamps(t *testing.T) {
	b := BatteryState{CapacityKWh: 10.0, Efficiency: 0.9, SocMin: 0.1, SocMax: 0.9, Soc: 0.85}
	b.Apply(3.0, 0) // would exceed SocMax
	if !almostEqual(b.Soc, 0.9) {
		t.Errorf("expected SoC clamped to 0.9, got %f", b.Soc)
	}
	b = BatteryState{CapacityKWh: 10.0, Efficiency: 0.9, SocMin: 0.1, SocMax: 0.9, Soc: 0.15}
	b.Apply(0, 3.0) // would fall below SocMin
	if !almostEqual(b.Soc, 0.1) {
		t.Errorf("expected SoC clamped to 0.1, got %f", b.Soc)
	}
}

func TestActionString(t *testing.T) {
	cases := map[Action]string{
		ActionCharge:    "charge",
		ActionDischarge: "discharge",
		ActionIdle:      "idle",
	}
	for action, expected := range cases {
		if action.String() != expected {
			t.Errorf("expected %q, got %q", expected, action.String())
		}
		if ActionFromString(expected) != action {
			t.Errorf("round trip failed for %q", expected)
		}
	}
}
