package www

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkadlec/homewatt-go/database"
	"github.com/mkadlec/homewatt-go/hours"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestScheduleHandlerNotFound(t *testing.T) {
	handler := NewScheduleHandler(slog.Default(), filepath.Join(t.TempDir(), "missing.json"))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/optimized_schedule", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("404 body is not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected an error message in the 404 body")
	}
}

func TestScheduleHandlerServesFileVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	content := `{"date":"2025-06-02","overrideMode":0,"recommendedHours":[]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	handler := NewScheduleHandler(slog.Default(), path)
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/optimized_schedule", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != content {
		t.Errorf("body was rewritten: %q", rec.Body.String())
	}
}

func TestPanelsHandlerCrud(t *testing.T) {
	db := newTestDatabase(t)
	handler := NewPanelsHandler(slog.Default(), db)

	// Create
	body := `{"latitude":50.08,"longitude":14.43,"tilt":35,"azimuth":180,"power":0.4}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/panels", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("create failed with %d: %s", rec.Code, rec.Body.String())
	}
	var created panelJson
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Id == 0 {
		t.Fatal("expected a generated panel id")
	}

	// List
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/panels", nil))
	var listed struct {
		Panels     []panelJson `json:"panels"`
		TotalPower float64     `json:"totalPower"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Panels) != 1 || listed.TotalPower != 0.4 {
		t.Errorf("expected one 0.4 kWp panel, got %+v", listed)
	}

	// Reject non-positive power
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/panels", strings.NewReader(`{"power":0}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero power, got %d", rec.Code)
	}

	// Delete
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/panels?id=%d", created.Id), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed with %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/panels", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Panels) != 0 {
		t.Errorf("expected no panels after delete, got %d", len(listed.Panels))
	}
}

type reloadSpy struct {
	calls int
}

func (r *reloadSpy) Reload(ctx context.Context) error {
	r.calls++
	return nil
}

func TestSettingsHandlerSaveAndMask(t *testing.T) {
	db := newTestDatabase(t)
	spy := &reloadSpy{}
	handler := NewSettingsHandler(slog.Default(), db, spy)

	body := `{"mqttBroker":"broker.local","mqttPassword":"hunter2","phases":"3"}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("save failed with %d: %s", rec.Code, rec.Body.String())
	}
	if spy.calls != 1 {
		t.Errorf("expected one reload after save, got %d", spy.calls)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	var settings map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatal(err)
	}
	if settings["mqttBroker"] != "broker.local" || settings["phases"] != "3" {
		t.Errorf("unexpected settings %v", settings)
	}
	if settings["mqttPassword"] != "********" {
		t.Errorf("password must be masked, got %q", settings["mqttPassword"])
	}
}

func TestUploadHandlerImportsCsv(t *testing.T) {
	db := newTestDatabase(t)
	handler := NewUploadHandler(slog.Default(), db)

	date := hours.FromNow().Date
	csvData := "date,hour,consumption,production,temperature\n" +
		date + ",0,1.2,0.0,15.5\n" +
		date + ",1,1.1,,\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "history.csv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(csvData))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed with %d: %s", rec.Code, rec.Body.String())
	}
	var res map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res["imported"] != 2 {
		t.Errorf("expected 2 imported rows, got %d", res["imported"])
	}

	rows, err := db.GetTimeSeriesForHourOfDay(context.Background(), 1, 3650)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row for hour 1, got %d", len(rows))
	}
	if rows[0].Production.Valid {
		t.Error("empty production column should stay NULL")
	}
}

func TestUploadHandlerRejectsBadCsv(t *testing.T) {
	rows, err := parseTimeSeriesCsv(strings.NewReader("2025-06-01,25,1.0\n"))
	if err == nil {
		t.Errorf("expected an error for hour 25, got %d rows", len(rows))
	}
	if _, err := parseTimeSeriesCsv(strings.NewReader("junk,0,1.0\n")); err == nil {
		t.Error("expected an error for an invalid date")
	}
}
