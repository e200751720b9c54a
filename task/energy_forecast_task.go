package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkadlec/homewatt-go/calc"
	"github.com/mkadlec/homewatt-go/config"
	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/hours"
)

type historyAverage struct {
	Consumption float64
	Production  float64
	Samples     int
}

func NewEnergyForecastTask(logger *slog.Logger, db *database.Database, cnfg config.AppConfigEnergyForecast) func() {
	return func() { runEnergyForecastTask(logger, db, cnfg) }
}

// The forecast for tomorrow is the average of the same hour of day over
// the last N days of recorded telemetry. Hours with no history at all
// are left out, the optimizer treats them like any other absent hour.
func runEnergyForecastTask(logger *slog.Logger, db *database.Database, cnfg config.AppConfigEnergyForecast) {
	logger.Debug("running energy forecast task...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	date := hours.Tomorrow()
	rows := make([]database.EnergyForecastRow, 0, 24)

	for hour := uint8(0); hour < 24; hour++ {
		avg, err := calcHistoryAverage(ctx, db, cnfg.GetHistoricalDays(), hour)
		if err != nil {
			logger.Warn("energy forecast task problem, no history for hour",
				slog.Int("hour", int(hour)), slog.Any("error", err))
			continue
		}

		rows = append(rows, database.EnergyForecastRow{
			When:        hours.DateHour{Date: date, Hour: hour},
			Consumption: calc.TwoDecimals(avg.Consumption),
			Production:  calc.TwoDecimals(avg.Production),
		})
	}

	if len(rows) == 0 {
		logger.Error("energy forecast task error, no hour had any history")
		return
	}

	if err := db.SaveEnergyForecast(ctx, rows); err != nil {
		logger.Error("energy forecast task error", slog.Any("error", err))
		return
	}

	logger.Info("energy forecast task done",
		slog.String("date", date), slog.Int("noOfHoursUpdated", len(rows)))
}

func calcHistoryAverage(ctx context.Context, db *database.Database, historicalDays int, hour uint8) (historyAverage, error) {
	tsh, err := db.GetTimeSeriesForHourOfDay(ctx, hour, historicalDays)
	avg := historyAverage{}
	if err != nil {
		return avg, err
	}
	if len(tsh) == 0 {
		return avg, fmt.Errorf("no historical data for hour %d", hour)
	}

	for _, h := range tsh {
		// A NULL measurement counts as zero, same as the optimizer does
		avg.Consumption += h.Consumption.Float64
		avg.Production += h.Production.Float64
	}

	count := float64(len(tsh))
	avg.Consumption = avg.Consumption / count
	avg.Production = avg.Production / count
	avg.Samples = len(tsh)

	return avg, nil
}
