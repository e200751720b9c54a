package telemetry

import (
	"encoding/json"
	"math"
	"testing"
)

func almostEqual(f1 float64, f2 float64) bool {
	return math.Abs(f1-f2) < 1e-9
}

func TestAccumulatorAverages(t *testing.T) {
	acc := NewAccumulator()
	temp := 21.5
	acc.Add(Reading{ConsumptionKw: 1.0, ProductionKw: 0.5, TemperatureC: &temp})
	acc.Add(Reading{ConsumptionKw: 3.0, ProductionKw: 1.5})

	v := acc.Drain()
	if v.SampleCount != 2 {
		t.Fatalf("expected 2 samples, got %d", v.SampleCount)
	}
	if !almostEqual(v.ConsumptionKWh, 2.0) {
		t.Errorf("expected consumption 2.0, got %f", v.ConsumptionKWh)
	}
	if !almostEqual(v.ProductionKWh, 1.0) {
		t.Errorf("expected production 1.0, got %f", v.ProductionKWh)
	}
	// Only one sample carried a temperature, so the average is that sample
	if v.TemperatureC == nil || !almostEqual(*v.TemperatureC, 21.5) {
		t.Errorf("expected temperature 21.5, got %v", v.TemperatureC)
	}
}

func TestAccumulatorDrainResets(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Reading{ConsumptionKw: 2.0})
	acc.Drain()

	v := acc.Drain()
	if v.SampleCount != 0 {
		t.Errorf("expected an empty hour after drain, got %d samples", v.SampleCount)
	}
	if v.TemperatureC != nil {
		t.Errorf("expected no temperature for an empty hour")
	}
}

func TestReadingDecode(t *testing.T) {
	var r Reading
	payload := `{"consumption_kw": 1.2, "production_kw": 0.8, "temperature_c": -3.5}`
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if !almostEqual(r.ConsumptionKw, 1.2) || !almostEqual(r.ProductionKw, 0.8) {
		t.Errorf("unexpected reading %+v", r)
	}
	if r.TemperatureC == nil || !almostEqual(*r.TemperatureC, -3.5) {
		t.Errorf("expected temperature -3.5, got %v", r.TemperatureC)
	}

	r = Reading{}
	if err := json.Unmarshal([]byte(`{"consumption_kw": 0.4}`), &r); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if r.TemperatureC != nil {
		t.Errorf("absent temperature should stay nil")
	}
}
