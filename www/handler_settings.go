package www

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mkadlec/homewatt-go/database"
)

// SettingsReloader is notified after settings are saved so components
// holding live connections (the MQTT listener) can pick up changes.
type SettingsReloader interface {
	Reload(ctx context.Context) error
}

func NewSettingsHandler(logger *slog.Logger, db *database.Database, reloader SettingsReloader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rows, err := db.GetAllSettings(r.Context())
			if err != nil {
				logger.Error("handling settings request", slog.Any("error", err))
				writeJsonError(w, http.StatusInternalServerError, err.Error())
				return
			}

			settings := make(map[string]string, len(rows))
			for _, row := range rows {
				if row.ParamName == "mqttPassword" {
					settings[row.ParamName] = "********"
					continue
				}
				settings[row.ParamName] = row.Value
			}
			writeJson(w, http.StatusOK, settings)

		case http.MethodPost:
			var settings map[string]string
			if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
				writeJsonError(w, http.StatusBadRequest, "invalid request body")
				return
			}

			for name, value := range settings {
				if err := db.SaveSetting(r.Context(), name, value); err != nil {
					logger.Error("saving setting", slog.String("paramName", name), slog.Any("error", err))
					writeJsonError(w, http.StatusInternalServerError, err.Error())
					return
				}
			}

			if reloader != nil {
				if err := reloader.Reload(r.Context()); err != nil {
					logger.Error("reloading after settings change", slog.Any("error", err))
				}
			}

			writeJson(w, http.StatusOK, map[string]int{"saved": len(settings)})

		default:
			writeJsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}
