package types

import (
	"context"

	"github.com/mkadlec/homewatt-go/hours"
)

type EnergyPrice struct {
	Hour     hours.DateHour
	Price    float64 // Day-ahead price in EUR/MWh
	Quantity float64 // Traded quantity in MWh, informational
}

type EnergyPriceProvider interface {
	GetEnergyPrices(ctx context.Context) ([]EnergyPrice, error)
}
