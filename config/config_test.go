package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testYaml = `
api:
  address: "127.0.0.1"
  port: 8080
  password: "hunter2"
database:
  path: "homewatt.db"
  data_retention_days: 30
energy_price:
  run_at: "0 14 * * *"
energy_forecast:
  historical_days: 7
  run_at: "30 14 * * *"
optimizer:
  run_at: "0 15 * * *"
  snapshot_path: "schedule.json"
  track_state_of_charge: true
logging:
  console_level: "DEBUG"
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testYaml), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cnfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	t.Run("api", func(t *testing.T) {
		if cnfg.Api.Port != 8080 {
			t.Errorf("expected port 8080, got %d", cnfg.Api.Port)
		}
		if cnfg.Api.Password != "hunter2" {
			t.Errorf("expected password to be set")
		}
	})

	t.Run("database", func(t *testing.T) {
		if cnfg.Database.Path != "homewatt.db" {
			t.Errorf("expected database path homewatt.db, got %s", cnfg.Database.Path)
		}
		if cnfg.Database.GetDataRetentionDays() != 30 {
			t.Errorf("expected data retention 30, got %d", cnfg.Database.GetDataRetentionDays())
		}
		// Not set in the file, should fall back to the default
		if cnfg.Database.GetBackupRetentionDays() != 90 {
			t.Errorf("expected backup retention default 90, got %d", cnfg.Database.GetBackupRetentionDays())
		}
	})

	t.Run("optimizer", func(t *testing.T) {
		if cnfg.Optimizer.GetSnapshotPath() != "schedule.json" {
			t.Errorf("expected snapshot path schedule.json, got %s", cnfg.Optimizer.GetSnapshotPath())
		}
		if !cnfg.Optimizer.TrackStateOfCharge {
			t.Errorf("expected track_state_of_charge to be enabled")
		}
		var def AppConfigOptimizer
		if def.GetSnapshotPath() != "optimized_schedule.json" {
			t.Errorf("expected default snapshot path, got %s", def.GetSnapshotPath())
		}
	})

	t.Run("forecast", func(t *testing.T) {
		if cnfg.EnergyForecast.HistoricalDays != 7 {
			t.Errorf("expected 7 historical days, got %d", cnfg.EnergyForecast.HistoricalDays)
		}
	})
}
