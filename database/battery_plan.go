package database

import (
	"context"
	"fmt"

	"github.com/mkadlec/homewatt-go/calc"
)

type BatteryPlanRow struct {
	Date          string
	Hour          uint8
	Action        string
	PowerTargetKw float64
}

// ReplaceBatteryPlan swaps the stored plan for a date in one transaction:
// old rows are deleted and the new ones inserted, so a rerun never
// accumulates duplicates and a failed run never leaves a half plan.
func (d *Database) ReplaceBatteryPlan(ctx context.Context, date string, rows []BatteryPlanRow) error {
	d.logger.Debug("replacing battery plan", "date", date, "hours", len(rows))

	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting battery plan transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM battery_plan WHERE date = ?`, date); err != nil {
		tx.Rollback()
		return fmt.Errorf("clearing battery plan for %s: %w", date, err)
	}

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO battery_plan (date, hour, action, power_target_kw)
			VALUES (?, ?, ?, ?)`,
			date, row.Hour, row.Action, calc.TwoDecimals(row.PowerTargetKw))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting battery plan row for %s hour %d: %w", date, row.Hour, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing battery plan for %s: %w", date, err)
	}
	return nil
}

func (d *Database) GetBatteryPlanForDate(ctx context.Context, date string) ([]BatteryPlanRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT date, hour, action, power_target_kw
		FROM battery_plan
		WHERE date = ?
		ORDER BY hour ASC`,
		date)
	if err != nil {
		return nil, fmt.Errorf("fetching battery plan for %s: %w", date, err)
	}
	defer rows.Close()

	var plan []BatteryPlanRow
	for rows.Next() {
		var row BatteryPlanRow
		if err := rows.Scan(&row.Date, &row.Hour, &row.Action, &row.PowerTargetKw); err != nil {
			return nil, err
		}
		plan = append(plan, row)
	}

	return plan, rows.Err()
}

func (d *Database) PurgeBatteryPlan(ctx context.Context, retentionDays int) error {
	return d.purgeTable(ctx, "battery_plan", retentionDays)
}
