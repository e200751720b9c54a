package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mkadlec/homewatt-go/calc"
)

type OptimizationSummaryRow struct {
	Date          string
	BaselineCost  float64
	OptimizedCost float64
	Saving        float64
	CreatedAt     time.Time
}

// One row per date. A rerun for the same date replaces the previous
// summary, so the daily saving log never shows duplicates.
func (d *Database) UpsertOptimizationSummary(ctx context.Context, row OptimizationSummaryRow) error {
	d.logger.Debug("saving optimization summary",
		"date", row.Date,
		"saving", row.Saving)

	_, err := d.write.ExecContext(ctx, `
		INSERT INTO optimization_summary (date, baseline_cost, optimized_cost, saving, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			baseline_cost = excluded.baseline_cost,
			optimized_cost = excluded.optimized_cost,
			saving = excluded.saving,
			created_at = excluded.created_at;`,
		row.Date,
		calc.TwoDecimals(row.BaselineCost),
		calc.TwoDecimals(row.OptimizedCost),
		calc.TwoDecimals(row.Saving),
		row.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving optimization summary for %s: %w", row.Date, err)
	}
	return nil
}

func (d *Database) GetOptimizationSummaries(ctx context.Context, days int) ([]OptimizationSummaryRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT date, baseline_cost, optimized_cost, saving, created_at
		FROM optimization_summary
		ORDER BY date DESC
		LIMIT ?`,
		days)
	if err != nil {
		return nil, fmt.Errorf("fetching optimization summaries: %w", err)
	}
	defer rows.Close()

	var res []OptimizationSummaryRow
	for rows.Next() {
		var row OptimizationSummaryRow
		var createdAt string
		if err := rows.Scan(&row.Date, &row.BaselineCost, &row.OptimizedCost, &row.Saving, &createdAt); err != nil {
			return nil, err
		}
		row.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing summary created_at: %w", err)
		}
		res = append(res, row)
	}

	return res, rows.Err()
}
