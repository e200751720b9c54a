package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mkadlec/homewatt-go/database"
)

type summaryRow struct {
	Date          string  `json:"date"`
	BaselineCost  float64 `json:"baselineCost"`
	OptimizedCost float64 `json:"optimizedCost"`
	Saving        float64 `json:"saving"`
	CreatedAt     string  `json:"createdAt"`
}

func NewSummaryHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		days := intOrDefault(r.URL, "days", 14)
		rows, err := db.GetOptimizationSummaries(r.Context(), days)
		if err != nil {
			logger.Error("handling summary request", slog.Any("error", err))
			writeJsonError(w, http.StatusInternalServerError, err.Error())
			return
		}

		res := make([]summaryRow, len(rows))
		for i, row := range rows {
			res[i] = summaryRow{
				Date:          row.Date,
				BaselineCost:  row.BaselineCost,
				OptimizedCost: row.OptimizedCost,
				Saving:        row.Saving,
				CreatedAt:     row.CreatedAt.Format(time.RFC3339),
			}
		}

		writeJson(w, http.StatusOK, res)
	}
}
