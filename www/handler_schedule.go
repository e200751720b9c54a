package www

import (
	"log/slog"
	"net/http"
	"os"
)

// NewScheduleHandler serves the optimizer's snapshot file verbatim. The
// optimizer writes it atomically, so whatever is on disk is always a
// complete document.
func NewScheduleHandler(logger *slog.Logger, snapshotPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		data, err := os.ReadFile(snapshotPath)
		if os.IsNotExist(err) {
			writeJsonError(w, http.StatusNotFound, "no optimized schedule available yet")
			return
		}
		if err != nil {
			logger.Error("handling schedule request", slog.Any("error", err))
			writeJsonError(w, http.StatusInternalServerError, "failed to read schedule")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}
