// Package telemetry subscribes to the home gateway's MQTT feed and
// folds meter samples into hourly averages for the time series.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mkadlec/homewatt-go/database"
)

type Listener struct {
	mu       sync.Mutex
	logger   *slog.Logger
	db       *database.Database
	acc      *Accumulator
	client   mqtt.Client
	settings Settings
}

func NewListener(db *database.Database, acc *Accumulator) *Listener {
	logger := slog.Default().With("module", "telemetry")

	mqttLog := slog.Default().With("module", "mqtt")
	mqtt.CRITICAL = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.ERROR = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.WARN = newMqttLogger(mqttLog, slog.LevelWarn)

	return &Listener{logger: logger, db: db, acc: acc}
}

// Start loads the broker settings and connects. A missing broker or
// topic is not an error, the dashboard works without live telemetry.
func (l *Listener) Start(ctx context.Context) error {
	settings, err := LoadSettings(ctx, l.db)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connectLocked(settings)
}

// Reload re-reads the broker settings and restarts the connection when
// they changed. Called after the settings endpoint saves new values.
func (l *Listener) Reload(ctx context.Context) error {
	settings, err := LoadSettings(ctx, l.db)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if settings.Equal(l.settings) {
		l.logger.Debug("broker settings unchanged, keeping connection")
		return nil
	}

	l.logger.Info("broker settings changed, restarting telemetry",
		slog.String("broker", settings.Broker))
	l.disconnectLocked()
	return l.connectLocked(settings)
}

func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.disconnectLocked()
}

func (l *Listener) connectLocked(settings Settings) error {
	l.settings = settings

	if !settings.Enabled() {
		l.logger.Info("no MQTT broker configured, telemetry disabled")
		return nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", settings.Broker, settings.Port))
	opts.SetClientID("homewatt")
	opts.SetUsername(settings.Username)
	opts.SetPassword(settings.Password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client mqtt.Client) {
		l.logger.Info("telemetry MQTT connected", slog.String("broker", settings.Broker))
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		l.logger.Warn("telemetry MQTT connection lost", slog.Any("error", err))
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	token := client.Subscribe(settings.Topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		l.handleMessage(msg)
	})
	if token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return fmt.Errorf("failed to subscribe to %s: %w", settings.Topic, token.Error())
	}

	l.client = client
	return nil
}

func (l *Listener) disconnectLocked() {
	if l.client == nil {
		return
	}
	l.logger.Info("disconnecting telemetry MQTT client")
	token := l.client.Unsubscribe(l.settings.Topic)
	token.WaitTimeout(1 * time.Second)
	l.client.Disconnect(250)
	l.client = nil
}

func (l *Listener) handleMessage(msg mqtt.Message) {
	var r Reading
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		l.logger.Error("error when reading meter sample",
			slog.String("topic", msg.Topic()), slog.Any("error", err))
		return
	}
	l.acc.Add(r)
}
