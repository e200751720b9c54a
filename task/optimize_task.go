package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mkadlec/homewatt-go/calc"
	"github.com/mkadlec/homewatt-go/config"
	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/dispatch"
	"github.com/mkadlec/homewatt-go/hours"
)

// optimizerSettings is everything the run reads from the settings
// table. Fetched fresh every run so dashboard edits take effect on the
// next schedule without a restart.
type optimizerSettings struct {
	MaxChargeKw    float64
	MaxDischargeKw float64
	BreakerCurrent int
	Phases         int
	OverrideMode   int
	State          *dispatch.BatteryState
}

type recommendedHour struct {
	Hour                 uint8           `json:"hour"`
	PowerKw              float64         `json:"power_kW"`
	Price                float64         `json:"price"`
	BatteryAction        dispatch.Action `json:"batteryAction"`
	BatteryPowerTargetKw float64         `json:"batteryPowerTargetKw"`
}

type scheduleSnapshot struct {
	Date             string            `json:"date"`
	OverrideMode     int               `json:"overrideMode"`
	RecommendedHours []recommendedHour `json:"recommendedHours"`
}

func NewOptimizeTask(logger *slog.Logger, db *database.Database, cnfg *config.AppConfig) func() {
	return func() { runOptimizeTask(logger, db, cnfg) }
}

func runOptimizeTask(logger *slog.Logger, db *database.Database, cnfg *config.AppConfig) {
	logger.Debug("running optimize task...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	date := hours.Tomorrow()

	settings, err := fetchOptimizerSettings(ctx, db, cnfg.Optimizer.TrackStateOfCharge)
	if err != nil {
		logger.Error("optimize task error, reading settings", slog.Any("error", err))
		return
	}

	forecast, err := db.GetEnergyForecastForDate(ctx, date)
	if err != nil {
		logger.Error("optimize task error, reading forecast", slog.Any("error", err))
		return
	}
	if len(forecast) == 0 {
		logger.Error("optimize task error, missing predictions", slog.String("date", date))
		return
	}

	priceRows, err := db.GetEnergyPricesForDate(ctx, date)
	if err != nil {
		logger.Error("optimize task error, reading prices", slog.Any("error", err))
		return
	}
	if len(priceRows) == 0 {
		logger.Error("optimize task error, missing prices", slog.String("date", date))
		return
	}

	priceByHour := make(map[uint8]sql.NullFloat64, len(priceRows))
	for _, p := range priceRows {
		priceByHour[p.When.Hour] = p.Price
	}

	in := dispatch.Input{
		Battery: dispatch.Limits{
			MaxChargeKw:    settings.MaxChargeKw,
			MaxDischargeKw: settings.MaxDischargeKw,
		},
		State: settings.State,
	}
	for _, f := range forecast {
		in.Hours = append(in.Hours, dispatch.HourForecast{
			Hour:        f.When.Hour,
			Consumption: f.Consumption,
			Production:  f.Production,
			Price:       priceByHour[f.When.Hour],
		})
	}

	out, err := dispatch.Plan(in)
	if err != nil {
		logger.Error("optimize task error, planning failed",
			slog.String("date", date), slog.Any("error", err))
		return
	}

	for _, hour := range out.Skipped {
		logger.Warn("no price for hour, skipping",
			slog.String("date", date), slog.Int("hour", int(hour)))
	}

	breakerMaxKw := calc.BreakerMaxPowerW(float64(settings.BreakerCurrent), settings.Phases) / 1000
	for _, e := range out.Entries {
		if e.PowerKw > breakerMaxKw {
			logger.Warn("planned grid power exceeds main breaker rating",
				slog.Int("hour", int(e.Hour)),
				slog.Float64("powerKw", e.PowerKw),
				slog.Float64("breakerMaxKw", breakerMaxKw))
		}
	}

	planRows := make([]database.BatteryPlanRow, 0, len(out.Entries))
	for _, e := range out.Entries {
		planRows = append(planRows, database.BatteryPlanRow{
			Date:          date,
			Hour:          e.Hour,
			Action:        e.Action.String(),
			PowerTargetKw: e.BatteryPowerKw,
		})
	}
	if err := db.ReplaceBatteryPlan(ctx, date, planRows); err != nil {
		logger.Error("optimize task error, saving plan", slog.Any("error", err))
		return
	}

	if err := db.UpsertOptimizationSummary(ctx, database.OptimizationSummaryRow{
		Date:          date,
		BaselineCost:  out.BaselineCost,
		OptimizedCost: out.OptimizedCost,
		Saving:        out.Saving,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		logger.Error("optimize task error, saving summary", slog.Any("error", err))
		return
	}

	snapshot := scheduleSnapshot{
		Date:             date,
		OverrideMode:     settings.OverrideMode,
		RecommendedHours: make([]recommendedHour, 0, len(out.Entries)),
	}
	for _, e := range out.Entries {
		snapshot.RecommendedHours = append(snapshot.RecommendedHours, recommendedHour{
			Hour:                 e.Hour,
			PowerKw:              e.PowerKw,
			Price:                e.Price,
			BatteryAction:        e.Action,
			BatteryPowerTargetKw: e.BatteryPowerKw,
		})
	}
	if err := writeSnapshot(cnfg.Optimizer.GetSnapshotPath(), snapshot); err != nil {
		logger.Error("optimize task error, writing snapshot", slog.Any("error", err))
		return
	}

	logger.Info("optimize task done",
		slog.String("date", date),
		slog.Int("plannedHours", len(out.Entries)),
		slog.Float64("lowThreshold", out.LowThreshold),
		slog.Float64("highThreshold", out.HighThreshold),
		slog.Float64("saving", out.Saving))
}

func fetchOptimizerSettings(ctx context.Context, db *database.Database, trackSoc bool) (optimizerSettings, error) {
	var s optimizerSettings
	var err error

	if s.MaxChargeKw, err = db.GetSettingFloat(ctx, "batteryMaxChargeKW"); err != nil {
		return s, err
	}
	if s.MaxDischargeKw, err = db.GetSettingFloat(ctx, "batteryMaxDischargeKW"); err != nil {
		return s, err
	}
	if s.BreakerCurrent, err = db.GetSettingInt(ctx, "breakerCurrentPerPhase"); err != nil {
		return s, err
	}
	if s.Phases, err = db.GetSettingInt(ctx, "phases"); err != nil {
		return s, err
	}
	if s.OverrideMode, err = db.GetSettingInt(ctx, "overrideMode"); err != nil {
		return s, err
	}

	if !trackSoc {
		return s, nil
	}

	state := &dispatch.BatteryState{}
	if state.CapacityKWh, err = db.GetSettingFloat(ctx, "batteryCapacityKWh"); err != nil {
		return s, err
	}
	if state.Efficiency, err = db.GetSettingFloat(ctx, "batteryEfficiency"); err != nil {
		return s, err
	}
	if state.SocMin, err = db.GetSettingFloat(ctx, "batterySocMin"); err != nil {
		return s, err
	}
	if state.SocMax, err = db.GetSettingFloat(ctx, "batterySocMax"); err != nil {
		return s, err
	}
	// The current level is optional, a battery that was never reported
	// starts the day at its floor.
	state.Soc, err = db.GetSettingFloat(ctx, "batterySoc")
	if errors.Is(err, database.ErrMissingSetting) {
		state.Soc = state.SocMin
	} else if err != nil {
		return s, err
	}

	s.State = state
	return s, nil
}

// writeSnapshot replaces the schedule file atomically so a reader (or
// the fsnotify watcher) never sees a half-written document.
func writeSnapshot(path string, snapshot scheduleSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
