package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// ErrMissingSetting is returned when a named parameter is absent or its
// stored value can't be parsed as the requested type. Callers check it
// with errors.Is and abort whatever run depends on the parameter.
var ErrMissingSetting = errors.New("missing setting")

type SettingRow struct {
	ParamName string
	Value     string
}

func (d *Database) GetSettingString(ctx context.Context, name string) (string, error) {
	row := d.read.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE param_name = ?`, name)

	var value string
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", ErrMissingSetting, name)
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", name, err)
	}

	return value, nil
}

func (d *Database) GetSettingInt(ctx context.Context, name string) (int, error) {
	str, err := d.GetSettingString(ctx, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer (%q)", ErrMissingSetting, name, str)
	}
	return value, nil
}

func (d *Database) GetSettingFloat(ctx context.Context, name string) (float64, error) {
	str, err := d.GetSettingString(ctx, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a number (%q)", ErrMissingSetting, name, str)
	}
	return value, nil
}

func (d *Database) SaveSetting(ctx context.Context, name, value string) error {
	d.logger.Debug("saving setting", "paramName", name)

	_, err := d.write.ExecContext(ctx, `
		INSERT INTO settings (param_name, value) VALUES (?, ?)
		ON CONFLICT(param_name) DO UPDATE SET value = excluded.value`,
		name, value)
	if err != nil {
		return fmt.Errorf("saving setting %s: %w", name, err)
	}
	return nil
}

func (d *Database) GetAllSettings(ctx context.Context) ([]SettingRow, error) {
	rows, err := d.read.QueryContext(ctx,
		`SELECT param_name, value FROM settings ORDER BY param_name`)
	if err != nil {
		return nil, fmt.Errorf("fetching settings: %w", err)
	}
	defer rows.Close()

	var res []SettingRow
	for rows.Next() {
		var row SettingRow
		if err := rows.Scan(&row.ParamName, &row.Value); err != nil {
			return nil, err
		}
		res = append(res, row)
	}

	return res, rows.Err()
}
