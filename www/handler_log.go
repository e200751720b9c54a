package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/logging"
)

type logEntryJson struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Attrs     string `json:"attrs"`
}

func NewLogHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		page := intOrDefault(r.URL, "page", 1)
		pageSize := intOrDefault(r.URL, "pageSize", 25)
		level := r.URL.Query().Get("level")
		minLvl := slog.LevelInfo
		if level != "" {
			minLvl = logging.LevelFromString(&level)
		}

		entries, err := db.GetLogEntries(r.Context(), minLvl, page, pageSize)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			writeJsonError(w, http.StatusInternalServerError, err.Error())
			return
		}

		res := make([]logEntryJson, len(entries))
		for i, e := range entries {
			res[i] = logEntryJson{
				Timestamp: e.Timestamp.Format(time.RFC3339),
				Level:     slog.Level(e.Level).String(),
				Message:   e.Message,
				Attrs:     e.Attrs,
			}
		}

		writeJson(w, http.StatusOK, res)
	}
}
