package www

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/hours"
)

const maxUploadBytes = 10 << 20

// NewUploadHandler imports historical consumption data from a CSV
// export, one row per hour: date, hour, consumption_kwh and optionally
// production_kwh and temperature_c. Seeding history this way lets the
// forecaster work before the telemetry feed has recorded anything.
func NewUploadHandler(logger *slog.Logger, db *database.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJsonError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJsonError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		rows, err := parseTimeSeriesCsv(file)
		if err != nil {
			writeJsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(rows) == 0 {
			writeJsonError(w, http.StatusBadRequest, "no data rows in file")
			return
		}

		if err := db.SaveTimeSeries(r.Context(), rows); err != nil {
			logger.Error("saving uploaded time series", slog.Any("error", err))
			writeJsonError(w, http.StatusInternalServerError, err.Error())
			return
		}

		logger.Info("imported time series from upload", slog.Int("rows", len(rows)))
		writeJson(w, http.StatusOK, map[string]int{"imported": len(rows)})
	}
}

func parseTimeSeriesCsv(file io.Reader) ([]database.TimeSeriesRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // columns beyond consumption are optional

	var rows []database.TimeSeriesRow
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV: %w", err)
		}
		line++

		// Tolerate a header row
		if line == 1 && record[0] == "date" {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: expected at least date, hour, consumption", line)
		}

		if _, err := time.Parse("2006-01-02", record[0]); err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", line, record[0])
		}
		hour, err := strconv.Atoi(record[1])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("line %d: invalid hour %q", line, record[1])
		}

		row := database.TimeSeriesRow{
			When: hours.DateHour{Date: record[0], Hour: uint8(hour)},
		}

		consumption, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid consumption %q", line, record[2])
		}
		row.Consumption = database.SomeFloat(consumption)

		if len(record) > 3 && record[3] != "" {
			production, err := strconv.ParseFloat(record[3], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid production %q", line, record[3])
			}
			row.Production = database.SomeFloat(production)
		}
		if len(record) > 4 && record[4] != "" {
			temperature, err := strconv.ParseFloat(record[4], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid temperature %q", line, record[4])
			}
			row.Temperature = database.SomeFloat(temperature)
		}

		rows = append(rows, row)
	}

	return rows, nil
}
