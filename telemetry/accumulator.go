package telemetry

import (
	"sync"

	"github.com/mkadlec/homewatt-go/calc"
)

// Reading is one meter sample as published by the home gateway.
type Reading struct {
	ConsumptionKw float64  `json:"consumption_kw"`
	ProductionKw  float64  `json:"production_kw"`
	TemperatureC  *float64 `json:"temperature_c"`
}

// Accumulator averages meter samples over the current hour. Averaging
// power in kW over a full hour gives the energy in kWh directly.
type Accumulator struct {
	mu              sync.Mutex
	consumptionSum  float64
	productionSum   float64
	temperatureSum  float64
	sampleCount     int
	temperatureN    int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Add(r Reading) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.consumptionSum += r.ConsumptionKw
	a.productionSum += r.ProductionKw
	a.sampleCount++
	if r.TemperatureC != nil {
		a.temperatureSum += *r.TemperatureC
		a.temperatureN++
	}
}

// HourValues is what Drain hands to the hourly task. Temperature is
// absent when no sample of the hour carried one.
type HourValues struct {
	ConsumptionKWh float64
	ProductionKWh  float64
	TemperatureC   *float64
	SampleCount    int
}

// Drain returns the averages for the elapsed hour and resets the
// accumulator for the next one.
func (a *Accumulator) Drain() HourValues {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := HourValues{SampleCount: a.sampleCount}
	if a.sampleCount > 0 {
		v.ConsumptionKWh = calc.TwoDecimals(a.consumptionSum / float64(a.sampleCount))
		v.ProductionKWh = calc.TwoDecimals(a.productionSum / float64(a.sampleCount))
	}
	if a.temperatureN > 0 {
		t := calc.TwoDecimals(a.temperatureSum / float64(a.temperatureN))
		v.TemperatureC = &t
	}

	a.consumptionSum = 0
	a.productionSum = 0
	a.temperatureSum = 0
	a.sampleCount = 0
	a.temperatureN = 0

	return v
}
