package task

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/hours"
	"github.com/mkadlec/homewatt-go/telemetry"
)

// The hourly task folds the telemetry accumulator into the time series.
// It runs on the hour, so the drained averages belong to the hour that
// just ended.
func NewHourlyTask(logger *slog.Logger, db *database.Database, acc *telemetry.Accumulator) func() {
	return func() {
		logger.Debug("running hourly task...")

		currHour := hours.FromNow().Sub(1)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		values := acc.Drain()
		if values.SampleCount == 0 {
			logger.Info("no telemetry received this hour, skipping time series")
			return
		}

		row := database.TimeSeriesRow{
			When:        currHour,
			Consumption: database.SomeFloat(values.ConsumptionKWh),
			Production:  database.SomeFloat(values.ProductionKWh),
		}
		if values.TemperatureC != nil {
			row.Temperature = database.SomeFloat(*values.TemperatureC)
		} else {
			row.Temperature = sql.NullFloat64{}
		}

		if err := db.SaveTimeSeries(ctx, []database.TimeSeriesRow{row}); err != nil {
			logger.Error("hourly task error, saving time series", slog.Any("error", err))
			return
		}

		logger.Info("hourly task done",
			slog.String("hour", currHour.String()),
			slog.Int("samples", values.SampleCount),
			slog.Float64("consumptionKWh", values.ConsumptionKWh),
			slog.Float64("productionKWh", values.ProductionKWh))
	}
}
