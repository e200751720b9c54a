package dispatch

// BatteryState threads a running state of charge through the 24-hour
// loop so consecutive hours can't charge a full battery or drain an
// empty one. All SoC values are fractions of capacity.
type BatteryState struct {
	CapacityKWh float64
	Efficiency  float64 // one-way conversion efficiency, 0 < e <= 1
	SocMin      float64
	SocMax      float64
	Soc         float64 // state of charge entering the first hour
}

// ChargeAllowance limits the requested charge power (kW, one hour) to
// what fits below SocMax.
func (b *BatteryState) ChargeAllowance(requested float64) float64 {
	room := (b.SocMax - b.Soc) * b.CapacityKWh
	allowed := room / b.Efficiency
	return min(requested, max(allowed, 0))
}

// DischargeAllowance limits the requested discharge power (kW, one
// hour, measured at the load) to what SocMin leaves available.
func (b *BatteryState) DischargeAllowance(requested float64) float64 {
	available := (b.Soc - b.SocMin) * b.CapacityKWh
	allowed := available * b.Efficiency
	return min(requested, max(allowed, 0))
}

// Apply advances the state of charge by one hour of charging or
// discharging: SoC' = clamp(SoC + chargeKWh*e - dischargeKWh/e).
func (b *BatteryState) Apply(chargeKw, dischargeKw float64) {
	delta := (chargeKw*b.Efficiency - dischargeKw/b.Efficiency) / b.CapacityKWh
	b.Soc = min(max(b.Soc+delta, b.SocMin), b.SocMax)
}
