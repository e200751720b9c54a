package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/hours"
	"github.com/mkadlec/homewatt-go/types"
)

func NewEnergyPriceTask(logger *slog.Logger, db *database.Database, providers []types.EnergyPriceProvider) func() {
	if len(providers) == 0 {
		panic("no energy price providers")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if needImmediateEnergyPriceUpdate(ctx, db) {
		logger.Info("need an immediate update of energy prices")
		runEnergyPriceTask(logger, db, providers)
	} else {
		logger.Debug("no need for immediate update of energy prices")
	}

	return func() { runEnergyPriceTask(logger, db, providers) }
}

func runEnergyPriceTask(logger *slog.Logger, db *database.Database, providers []types.EnergyPriceProvider) {
	logger.Debug("running energy price task...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var rows []database.EnergyPriceRow
	for _, provider := range providers {
		prices, err := provider.GetEnergyPrices(ctx)
		if err != nil {
			logger.Error("energy price task error, fetching energy prices", slog.Any("error", err))
			continue
		}
		rows = make([]database.EnergyPriceRow, len(prices))
		for i, ep := range prices {
			logger.Debug("energy price",
				slog.String("hour", ep.Hour.String()), slog.Float64("price", ep.Price))
			rows[i] = database.EnergyPriceRow{
				When:     ep.Hour,
				Price:    database.SomeFloat(ep.Price),
				Quantity: database.SomeFloat(ep.Quantity),
			}
		}
		break
	}

	if len(rows) == 0 {
		logger.Error("energy price task error, no prices fetched")
		return
	}

	if err := db.SaveEnergyPrices(ctx, rows); err != nil {
		logger.Error("energy price task error", slog.Any("error", err))
		return
	}

	logger.Info("energy price task done", slog.Int("noOfHoursUpdated", len(rows)))
}

// The day-ahead auction publishes around 13:00, so under normal
// operation prices for the next 12 hours are always in the database.
func needImmediateEnergyPriceUpdate(ctx context.Context, db *database.Database) bool {
	rows, err := db.GetEnergyPriceFrom(ctx, hours.FromNow().Add(12))
	return err != nil || len(rows) == 0
}
