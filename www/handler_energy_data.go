package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/hours"
)

type energyDataHour struct {
	Hour                  uint8    `json:"hour"`
	Price                 *float64 `json:"price"`
	Quantity              *float64 `json:"quantity"`
	Consumption           *float64 `json:"consumption"`
	Production            *float64 `json:"production"`
	Temperature           *float64 `json:"temperature"`
	ForecastedConsumption *float64 `json:"forecastedConsumption"`
	ForecastedProduction  *float64 `json:"forecastedProduction"`
}

type energyDataResponse struct {
	Date  string           `json:"date"`
	Hours []energyDataHour `json:"hours"`
}

// NewEnergyDataHandler joins prices, forecasts and recorded telemetry
// for one day into a single response for the dashboard charts.
func NewEnergyDataHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		date := r.URL.Query().Get("date")
		if date == "" {
			date = hours.FromNow().Date
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			writeJsonError(w, http.StatusBadRequest, "invalid date")
			return
		}

		resp := energyDataResponse{Date: date}
		byHour := make(map[uint8]*energyDataHour)
		hourOf := func(h uint8) *energyDataHour {
			if e, ok := byHour[h]; ok {
				return e
			}
			e := &energyDataHour{Hour: h}
			byHour[h] = e
			return e
		}

		prices, err := db.GetEnergyPricesForDate(r.Context(), date)
		if err != nil {
			logger.Error("handling energy_data request", slog.Any("error", err))
			writeJsonError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, p := range prices {
			e := hourOf(p.When.Hour)
			if p.Price.Valid {
				v := p.Price.Float64
				e.Price = &v
			}
			if p.Quantity.Valid {
				v := p.Quantity.Float64
				e.Quantity = &v
			}
		}

		forecast, err := db.GetEnergyForecastForDate(r.Context(), date)
		if err != nil {
			logger.Error("handling energy_data request", slog.Any("error", err))
			writeJsonError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, f := range forecast {
			e := hourOf(f.When.Hour)
			c, p := f.Consumption, f.Production
			e.ForecastedConsumption = &c
			e.ForecastedProduction = &p
		}

		series, err := db.GetTimeSeriesFrom(r.Context(), hours.DateHour{Date: date, Hour: 0})
		if err != nil {
			logger.Error("handling energy_data request", slog.Any("error", err))
			writeJsonError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, ts := range series {
			if ts.When.Date != date {
				continue
			}
			e := hourOf(ts.When.Hour)
			if ts.Consumption.Valid {
				v := ts.Consumption.Float64
				e.Consumption = &v
			}
			if ts.Production.Valid {
				v := ts.Production.Float64
				e.Production = &v
			}
			if ts.Temperature.Valid {
				v := ts.Temperature.Float64
				e.Temperature = &v
			}
		}

		for h := uint8(0); h < 24; h++ {
			if e, ok := byHour[h]; ok {
				resp.Hours = append(resp.Hours, *e)
			}
		}

		writeJson(w, http.StatusOK, resp)
	}
}
