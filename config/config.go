package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkadlec/homewatt-go/logging"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16
	// Optional password protecting mutating endpoints (settings, panels,
	// upload). When empty, authentication is disabled.
	Password string
	// Secret for the session cookie store. A random one is generated at
	// startup when not configured, which invalidates sessions on restart.
	SessionSecret string `mapstructure:"session_secret"`
}

type AppConfigDatabase struct {
	Path string
	// How many days data should be stored in database before it gets purged
	DataRetentionDays *int `mapstructure:"data_retention_days"`
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 365
	}
	return *d.DataRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 90
	}
	return *d.BackupRetentionDays
}

type AppConfigEnergyPrice struct {
	RunAt string `mapstructure:"run_at"` // When to fetch tomorrow's day-ahead prices
}

type AppConfigEnergyForecast struct {
	// How many days back to consider when estimating future energy
	// production and consumption from the recorded time series
	HistoricalDays int    `mapstructure:"historical_days"`
	RunAt          string `mapstructure:"run_at"`
}

func (e AppConfigEnergyForecast) GetHistoricalDays() int {
	if e.HistoricalDays <= 0 {
		return 7
	}
	return e.HistoricalDays
}

type AppConfigOptimizer struct {
	// Where the optimized schedule snapshot is written; the API serves
	// this file verbatim
	SnapshotPath string `mapstructure:"snapshot_path"`
	// When to compute tomorrow's battery plan. Must run after the price
	// and forecast tasks, the plan is built from their outputs.
	RunAt string `mapstructure:"run_at"`
	// Track battery state of charge through the day and clamp the plan by
	// it. Off by default, the plain threshold policy decides every hour
	// from price alone.
	TrackStateOfCharge bool `mapstructure:"track_state_of_charge"`
}

func (o AppConfigOptimizer) GetSnapshotPath() string {
	if o.SnapshotPath == "" {
		return "optimized_schedule.json"
	}
	return o.SnapshotPath
}

type AppConfigLogging struct {
	// Min log level for database: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return logging.LogAttrFormatJSON
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api            AppConfigApi
	Database       AppConfigDatabase
	EnergyPrice    AppConfigEnergyPrice    `mapstructure:"energy_price"`
	EnergyForecast AppConfigEnergyForecast `mapstructure:"energy_forecast"`
	Optimizer      AppConfigOptimizer      `mapstructure:"optimizer"`
	Logging        AppConfigLogging        `mapstructure:"logging"`
}

func Load(path string) (*AppConfig, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath("config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}
