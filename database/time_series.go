package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkadlec/homewatt-go/calc"
	"github.com/mkadlec/homewatt-go/hours"
)

// TimeSeriesRow is one hour of recorded telemetry: average consumption
// and production in kW and outdoor temperature. Rows come from the MQTT
// accumulator or from historical file imports.
type TimeSeriesRow struct {
	When        hours.DateHour
	Consumption sql.NullFloat64
	Production  sql.NullFloat64
	Temperature sql.NullFloat64
}

func (d *Database) SaveTimeSeries(ctx context.Context, rows []TimeSeriesRow) error {
	for _, row := range rows {
		cons := row.Consumption
		if cons.Valid {
			cons.Float64 = calc.TwoDecimals(cons.Float64)
		}
		prod := row.Production
		if prod.Valid {
			prod.Float64 = calc.TwoDecimals(prod.Float64)
		}
		_, err := d.write.ExecContext(ctx, `
			INSERT INTO time_series (date, hour, consumption, production, temperature)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(date, hour) DO UPDATE SET
				consumption = excluded.consumption,
				production = excluded.production,
				temperature = excluded.temperature;`,
			row.When.Date,
			row.When.Hour,
			cons,
			prod,
			row.Temperature)
		if err != nil {
			return fmt.Errorf("saving time series for %s: %w", row.When, err)
		}
	}
	return nil
}

// GetTimeSeriesForHourOfDay returns the recorded rows for one hour of
// the day over the last historicalDays days, newest first. Used by the
// forecast task to average same-hour history.
func (d *Database) GetTimeSeriesForHourOfDay(ctx context.Context, hour uint8, historicalDays int) ([]TimeSeriesRow, error) {
	firstDate := hours.FromNow().Sub(24 * historicalDays).Date
	rows, err := d.read.QueryContext(ctx, `
		SELECT date, hour, consumption, production, temperature
		FROM time_series
		WHERE hour = ? AND date >= ?
		ORDER BY date DESC`,
		hour, firstDate)
	if err != nil {
		return nil, fmt.Errorf("fetching time series for hour %d: %w", hour, err)
	}
	defer rows.Close()

	return scanTimeSeriesRows(rows)
}

func (d *Database) GetTimeSeriesFrom(ctx context.Context, dh hours.DateHour) ([]TimeSeriesRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT date, hour, consumption, production, temperature
		FROM time_series
		WHERE (date = ? AND hour >= ?) OR date > ?
		ORDER BY date, hour ASC`,
		dh.Date, dh.Hour, dh.Date)
	if err != nil {
		return nil, fmt.Errorf("fetching time series from %s: %w", dh, err)
	}
	defer rows.Close()

	return scanTimeSeriesRows(rows)
}

func scanTimeSeriesRows(rows *sql.Rows) ([]TimeSeriesRow, error) {
	var res []TimeSeriesRow
	for rows.Next() {
		var row TimeSeriesRow
		if err := rows.Scan(&row.When.Date, &row.When.Hour, &row.Consumption, &row.Production, &row.Temperature); err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

func (d *Database) PurgeTimeSeries(ctx context.Context, retentionDays int) error {
	return d.purgeTable(ctx, "time_series", retentionDays)
}
