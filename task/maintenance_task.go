package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkadlec/homewatt-go/config"
	"github.com/mkadlec/homewatt-go/database"
)

func NewMaintenanceTask(logger *slog.Logger, db *database.Database, cnfg *config.AppConfig) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		if err := db.Backup(ctx); err != nil {
			logger.Error("database backup error", slog.Any("error", err))
		}

		if err := db.PurgeBackups(ctx, cnfg.Database.GetBackupRetentionDays()); err != nil {
			logger.Error("backup maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeLog(ctx, cnfg.Logging.GetDbMaxEntries()); err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
		}

		retention := cnfg.Database.GetDataRetentionDays()

		if err := db.PurgeEnergyForecast(ctx, retention); err != nil {
			logger.Error("energy_forecast maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeEnergyPrice(ctx, retention); err != nil {
			logger.Error("energy_price maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeBatteryPlan(ctx, retention); err != nil {
			logger.Error("battery_plan maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeTimeSeries(ctx, retention); err != nil {
			logger.Error("time_series maintenance error", slog.Any("error", err))
		}

		logger.Info("maintenance task done")
	}
}
