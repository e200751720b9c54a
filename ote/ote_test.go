package ote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleChart = `{
	"graph": {"title": "Denín trh - 02.06.2025"},
	"data": {
		"dataLine": [
			{
				"title": "Množství (MWh)",
				"point": [
					{"x": "1", "y": 5211.4},
					{"x": "2", "y": 4987.1},
					{"x": "3", "y": 5102.0}
				]
			},
			{
				"title": "Cena (EUR/MWh)",
				"point": [
					{"x": "1", "y": 85.2},
					{"x": "2", "y": -4.01},
					{"x": "3", "y": null},
					{"x": "4", "y": 102.77}
				]
			}
		]
	}
}`

func TestGetEnergyPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date") == "" {
			t.Errorf("expected a date query parameter, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleChart))
	}))
	defer server.Close()

	prices, err := NewWithBaseUrl(server.URL).GetEnergyPrices(context.Background())
	if err != nil {
		t.Fatalf("GetEnergyPrices() error: %v", err)
	}

	// Hour 3 has a null price and must be absent
	if len(prices) != 3 {
		t.Fatalf("expected 3 priced hours, got %d", len(prices))
	}

	first := prices[0]
	if first.Hour.Date != "2025-06-02" {
		t.Errorf("expected date from chart title, got %q", first.Hour.Date)
	}
	if first.Hour.Hour != 0 {
		t.Errorf("market hour 1 should map to hour 0, got %d", first.Hour.Hour)
	}
	if first.Price != 85.2 {
		t.Errorf("expected price 85.2, got %f", first.Price)
	}
	if first.Quantity != 5211.4 {
		t.Errorf("expected quantity 5211.4, got %f", first.Quantity)
	}

	if prices[1].Price != -4.01 {
		t.Errorf("negative prices must pass through, got %f", prices[1].Price)
	}

	// Hour 4 has a price but no published quantity
	last := prices[2]
	if last.Hour.Hour != 3 || last.Price != 102.77 {
		t.Errorf("expected hour 3 at 102.77, got hour %d at %f", last.Hour.Hour, last.Price)
	}
	if last.Quantity != 0 {
		t.Errorf("missing quantity should read as zero, got %f", last.Quantity)
	}
}

func TestGetEnergyPricesEmptyChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"graph": {"title": "Denni trh - 02.06.2025"}, "data": {"dataLine": []}}`))
	}))
	defer server.Close()

	if _, err := NewWithBaseUrl(server.URL).GetEnergyPrices(context.Background()); err == nil {
		t.Error("expected an error for a chart with no price line")
	}
}

func TestDateFromTitle(t *testing.T) {
	if _, err := dateFromTitle("no date here"); err == nil {
		t.Error("expected an error for a title without a date")
	}
	date, err := dateFromTitle("Vnitrodenní trh - 31.12.2025 (CET)")
	if err != nil {
		t.Fatalf("dateFromTitle() error: %v", err)
	}
	if date != "2025-12-31" {
		t.Errorf("expected 2025-12-31, got %q", date)
	}
}
