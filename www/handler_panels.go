package www

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mkadlec/homewatt-go/database"
)

type panelJson struct {
	Id        int64   `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Tilt      float64 `json:"tilt"`
	Azimuth   float64 `json:"azimuth"`
	Power     float64 `json:"power"`
}

// NewPanelsHandler does CRUD for the solar panel inventory. The panel
// list feeds the dashboard's production overview, total installed power
// included.
func NewPanelsHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			rows, err := db.GetPanels(r.Context())
			if err != nil {
				logger.Error("handling panels request", slog.Any("error", err))
				writeJsonError(w, http.StatusInternalServerError, err.Error())
				return
			}
			totalPower, err := db.TotalPanelPower(r.Context())
			if err != nil {
				logger.Error("handling panels request", slog.Any("error", err))
				writeJsonError(w, http.StatusInternalServerError, err.Error())
				return
			}

			panels := make([]panelJson, len(rows))
			for i, row := range rows {
				panels[i] = panelJson{
					Id:        row.Id,
					Latitude:  row.Latitude,
					Longitude: row.Longitude,
					Tilt:      row.Tilt,
					Azimuth:   row.Azimuth,
					Power:     row.Power,
				}
			}
			writeJson(w, http.StatusOK, map[string]any{
				"panels":     panels,
				"totalPower": totalPower,
			})

		case http.MethodPost:
			var p panelJson
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				writeJsonError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if p.Power <= 0 {
				writeJsonError(w, http.StatusBadRequest, "panel power must be positive")
				return
			}

			id, err := db.SavePanel(r.Context(), database.PanelRow{
				Id:        p.Id,
				Latitude:  p.Latitude,
				Longitude: p.Longitude,
				Tilt:      p.Tilt,
				Azimuth:   p.Azimuth,
				Power:     p.Power,
			})
			if err != nil {
				logger.Error("saving panel", slog.Any("error", err))
				writeJsonError(w, http.StatusInternalServerError, err.Error())
				return
			}
			p.Id = id
			writeJson(w, http.StatusOK, p)

		case http.MethodDelete:
			id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
			if err != nil || id <= 0 {
				writeJsonError(w, http.StatusBadRequest, "invalid panel id")
				return
			}
			if err := db.DeletePanel(r.Context(), id); err != nil {
				logger.Error("deleting panel", slog.Any("error", err))
				writeJsonError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJson(w, http.StatusOK, map[string]bool{"deleted": true})

		default:
			writeJsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}
