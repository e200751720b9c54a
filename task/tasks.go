package task

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/mkadlec/homewatt-go/config"
	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/telemetry"
	"github.com/mkadlec/homewatt-go/types"
)

type Tasks struct {
	cron               *cron.Cron
	cnfg               *config.AppConfig
	EnergyPriceTask    func()
	EnergyForecastTask func()
	HourlyTask         func()
	OptimizeTask       func()
	MaintenanceTask    func()
}

func NewTasks(
	db *database.Database,
	energyPriceProviders []types.EnergyPriceProvider,
	acc *telemetry.Accumulator,
	cnfg *config.AppConfig,
) *Tasks {
	logger := slog.Default().With("module", "tasks")
	return &Tasks{
		cron:               cron.New(),
		cnfg:               cnfg,
		EnergyPriceTask:    NewEnergyPriceTask(logger.With(slog.String("task", "energy_price")), db, energyPriceProviders),
		EnergyForecastTask: NewEnergyForecastTask(logger.With(slog.String("task", "energy_forecast")), db, cnfg.EnergyForecast),
		HourlyTask:         NewHourlyTask(logger.With(slog.String("task", "hourly")), db, acc),
		OptimizeTask:       NewOptimizeTask(logger.With(slog.String("task", "optimize")), db, cnfg),
		MaintenanceTask:    NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg),
	}
}

func (t *Tasks) Run() {
	_, err := t.cron.AddFunc(t.cnfg.EnergyPrice.RunAt, t.EnergyPriceTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc(t.cnfg.EnergyForecast.RunAt, t.EnergyForecastTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("@hourly", t.HourlyTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc(t.cnfg.Optimizer.RunAt, t.OptimizeTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("30 2 * * *", t.MaintenanceTask)
	if err != nil {
		panic(err)
	}
	t.cron.Start()
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
