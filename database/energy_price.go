package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkadlec/homewatt-go/calc"
	"github.com/mkadlec/homewatt-go/hours"
)

type EnergyPriceRow struct {
	When     hours.DateHour
	Price    sql.NullFloat64 // Day-ahead price in EUR/MWh, NULL when the market published none
	Quantity sql.NullFloat64 // Traded quantity in MWh
}

func SomeFloat(value float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: value, Valid: true}
}

func (d *Database) SaveEnergyPrices(ctx context.Context, rows []EnergyPriceRow) error {
	for _, row := range rows {
		price := row.Price
		if price.Valid {
			price.Float64 = calc.RoundFloat64(price.Float64, 4)
		}
		_, err := d.write.ExecContext(ctx, `
			INSERT INTO energy_price (date, hour, price, quantity) VALUES (?, ?, ?, ?)
			ON CONFLICT(date, hour) DO UPDATE SET
				price = excluded.price,
				quantity = excluded.quantity`,
			row.When.Date,
			row.When.Hour,
			price,
			row.Quantity)
		if err != nil {
			return fmt.Errorf("saving energy price for %s: %w", row.When, err)
		}
	}
	return nil
}

// GetEnergyPricesForDate returns all price rows recorded for a day,
// ordered by hour. Hours with no row at all are simply absent.
func (d *Database) GetEnergyPricesForDate(ctx context.Context, date string) ([]EnergyPriceRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT date, hour, price, quantity
		FROM energy_price
		WHERE date = ?
		ORDER BY hour ASC`,
		date)
	if err != nil {
		return nil, fmt.Errorf("fetching energy prices for %s: %w", date, err)
	}
	defer rows.Close()

	var prices []EnergyPriceRow
	for rows.Next() {
		var row EnergyPriceRow
		if err := rows.Scan(&row.When.Date, &row.When.Hour, &row.Price, &row.Quantity); err != nil {
			return nil, err
		}
		prices = append(prices, row)
	}

	return prices, rows.Err()
}

func (d *Database) GetEnergyPriceFrom(ctx context.Context, dh hours.DateHour) ([]EnergyPriceRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT date, hour, price, quantity
		FROM energy_price
		WHERE (date = ? AND hour >= ?) OR date > ?
		ORDER BY date, hour ASC`,
		dh.Date, dh.Hour, dh.Date)
	if err != nil {
		return nil, fmt.Errorf("fetching energy prices from %s: %w", dh, err)
	}
	defer rows.Close()

	var prices []EnergyPriceRow
	for rows.Next() {
		var row EnergyPriceRow
		if err := rows.Scan(&row.When.Date, &row.When.Hour, &row.Price, &row.Quantity); err != nil {
			return nil, err
		}
		prices = append(prices, row)
	}

	return prices, rows.Err()
}

func (d *Database) PurgeEnergyPrice(ctx context.Context, retentionDays int) error {
	return d.purgeTable(ctx, "energy_price", retentionDays)
}
