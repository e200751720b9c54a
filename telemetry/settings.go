package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkadlec/homewatt-go/database"
)

// Settings holds the broker connection parameters. They live in the
// settings table rather than the config file so they can be changed
// from the dashboard without redeploying.
type Settings struct {
	Broker   string
	Port     int
	Topic    string
	Username string
	Password string
}

func (s Settings) Equal(other Settings) bool {
	return s == other
}

func (s Settings) Enabled() bool {
	return s.Broker != "" && s.Topic != ""
}

// LoadSettings reads the broker settings from the database. Absent
// broker or topic disables telemetry; username and password are
// optional either way.
func LoadSettings(ctx context.Context, db *database.Database) (Settings, error) {
	var s Settings
	var err error

	s.Broker, err = stringOrEmpty(db.GetSettingString(ctx, "mqttBroker"))
	if err != nil {
		return Settings{}, err
	}
	s.Topic, err = stringOrEmpty(db.GetSettingString(ctx, "mqttTopic"))
	if err != nil {
		return Settings{}, err
	}

	s.Port, err = db.GetSettingInt(ctx, "mqttPort")
	if errors.Is(err, database.ErrMissingSetting) {
		s.Port = 1883
	} else if err != nil {
		return Settings{}, fmt.Errorf("failed to read mqttPort: %w", err)
	}

	s.Username, err = stringOrEmpty(db.GetSettingString(ctx, "mqttUsername"))
	if err != nil {
		return Settings{}, err
	}
	s.Password, err = stringOrEmpty(db.GetSettingString(ctx, "mqttPassword"))
	if err != nil {
		return Settings{}, err
	}

	return s, nil
}

func stringOrEmpty(value string, err error) (string, error) {
	if errors.Is(err, database.ErrMissingSetting) {
		return "", nil
	}
	return value, err
}
