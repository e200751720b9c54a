// Ad hoc runner for the energy forecast task, useful when tuning the
// historical averaging without waiting for the nightly schedule.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/mkadlec/homewatt-go/config"
	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/task"
)

func main() {
	w := os.Stdout
	logger := slog.New(tint.NewHandler(w, nil))
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339Nano,
		}),
	))

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	db, err := database.New(context.Background(), cnfg.Database.Path)
	if err != nil {
		panic(err)
	}
	defer db.Close()
	task.NewEnergyForecastTask(logger, db, cnfg.EnergyForecast)()
}
