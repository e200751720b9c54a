package database

import (
	"context"
	"fmt"

	"github.com/mkadlec/homewatt-go/calc"
	"github.com/mkadlec/homewatt-go/hours"
)

type EnergyForecastRow struct {
	When        hours.DateHour
	Consumption float64
	Production  float64
}

func (d *Database) SaveEnergyForecast(ctx context.Context, rows []EnergyForecastRow) error {
	for _, row := range rows {
		_, err := d.write.ExecContext(ctx, `
			INSERT INTO energy_forecast (date, hour, consumption, production)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(date, hour) DO UPDATE SET
				consumption = excluded.consumption,
				production = excluded.production;`,
			row.When.Date,
			row.When.Hour,
			calc.TwoDecimals(row.Consumption),
			calc.TwoDecimals(row.Production),
		)
		if err != nil {
			return fmt.Errorf("saving energy forecast for %s: %w", row.When, err)
		}
	}
	return nil
}

// GetEnergyForecastForDate returns the predicted hourly records for one
// day, ordered by hour. NULL predictions read as zero. An empty result
// means no predictions exist yet.
func (d *Database) GetEnergyForecastForDate(ctx context.Context, date string) ([]EnergyForecastRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT date, hour, COALESCE(consumption, 0), COALESCE(production, 0)
		FROM energy_forecast
		WHERE date = ?
		ORDER BY hour ASC`,
		date)
	if err != nil {
		return nil, fmt.Errorf("fetching energy forecast for %s: %w", date, err)
	}
	defer rows.Close()

	var forecasts []EnergyForecastRow
	for rows.Next() {
		var row EnergyForecastRow
		if err := rows.Scan(&row.When.Date, &row.When.Hour, &row.Consumption, &row.Production); err != nil {
			return nil, err
		}
		forecasts = append(forecasts, row)
	}

	return forecasts, rows.Err()
}

func (d *Database) GetEnergyForecastFrom(ctx context.Context, dh hours.DateHour) ([]EnergyForecastRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT date, hour, COALESCE(consumption, 0), COALESCE(production, 0)
		FROM energy_forecast
		WHERE (date = ? AND hour >= ?) OR date > ?
		ORDER BY date, hour ASC`,
		dh.Date, dh.Hour, dh.Date)
	if err != nil {
		return nil, fmt.Errorf("fetching energy forecast from %s: %w", dh, err)
	}
	defer rows.Close()

	var forecasts []EnergyForecastRow
	for rows.Next() {
		var row EnergyForecastRow
		if err := rows.Scan(&row.When.Date, &row.When.Hour, &row.Consumption, &row.Production); err != nil {
			return nil, err
		}
		forecasts = append(forecasts, row)
	}

	return forecasts, rows.Err()
}

func (d *Database) PurgeEnergyForecast(ctx context.Context, retentionDays int) error {
	return d.purgeTable(ctx, "energy_forecast", retentionDays)
}
