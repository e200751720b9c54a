package database

import (
	"context"
	"fmt"
)

type PanelRow struct {
	Id        int64
	Latitude  float64
	Longitude float64
	Tilt      float64
	Azimuth   float64
	Power     float64 // Peak power in kWp
}

// SavePanel inserts when Id is zero, otherwise updates the existing
// panel. Returns the panel id.
func (d *Database) SavePanel(ctx context.Context, row PanelRow) (int64, error) {
	if row.Id == 0 {
		res, err := d.write.ExecContext(ctx, `
			INSERT INTO panel (latitude, longitude, tilt, azimuth, power)
			VALUES (?, ?, ?, ?, ?)`,
			row.Latitude, row.Longitude, row.Tilt, row.Azimuth, row.Power)
		if err != nil {
			return 0, fmt.Errorf("inserting panel: %w", err)
		}
		return res.LastInsertId()
	}

	_, err := d.write.ExecContext(ctx, `
		UPDATE panel SET latitude = ?, longitude = ?, tilt = ?, azimuth = ?, power = ?
		WHERE id = ?`,
		row.Latitude, row.Longitude, row.Tilt, row.Azimuth, row.Power, row.Id)
	if err != nil {
		return 0, fmt.Errorf("updating panel %d: %w", row.Id, err)
	}
	return row.Id, nil
}

func (d *Database) GetPanels(ctx context.Context) ([]PanelRow, error) {
	rows, err := d.read.QueryContext(ctx, `
		SELECT id, latitude, longitude, tilt, azimuth, power
		FROM panel
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("fetching panels: %w", err)
	}
	defer rows.Close()

	var panels []PanelRow
	for rows.Next() {
		var row PanelRow
		if err := rows.Scan(&row.Id, &row.Latitude, &row.Longitude, &row.Tilt, &row.Azimuth, &row.Power); err != nil {
			return nil, err
		}
		panels = append(panels, row)
	}

	return panels, rows.Err()
}

func (d *Database) DeletePanel(ctx context.Context, id int64) error {
	_, err := d.write.ExecContext(ctx, `DELETE FROM panel WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting panel %d: %w", id, err)
	}
	return nil
}

// TotalPanelPower sums the installed peak power over all panels in kWp.
func (d *Database) TotalPanelPower(ctx context.Context) (float64, error) {
	row := d.read.QueryRowContext(ctx, `SELECT COALESCE(SUM(power), 0) FROM panel`)

	var total float64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("summing panel power: %w", err)
	}
	return total, nil
}
