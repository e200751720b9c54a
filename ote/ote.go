// Package ote fetches day-ahead electricity prices from the OTE-ČR
// short-term market. Prices are published around 13:00 CET for the next
// calendar day, in EUR/MWh.
package ote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/mkadlec/homewatt-go/hours"
	"github.com/mkadlec/homewatt-go/types"
)

const defaultBaseUrl = "https://www.ote-cr.cz/cs/kratkodobe-trhy/elektrina/denni-trh/@@chart-data"

var titleDateRe = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)

type Ote struct {
	baseUrl string
	client  *http.Client
}

func New() Ote {
	return Ote{baseUrl: defaultBaseUrl, client: &http.Client{}}
}

// NewWithBaseUrl is used by tests to point the client at a stub server.
func NewWithBaseUrl(baseUrl string) Ote {
	return Ote{baseUrl: baseUrl, client: &http.Client{}}
}

func (o Ote) GetEnergyPrices(ctx context.Context) ([]types.EnergyPrice, error) {
	date := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	url := fmt.Sprintf("%s?date=%s", o.baseUrl, date)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var chart chartData
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return pricesFromChart(chart)
}

// The chart title carries the trading day ("Denní trh - 02.06.2025"),
// which is authoritative over whatever date was requested.
func dateFromTitle(title string) (string, error) {
	matches := titleDateRe.FindStringSubmatch(title)
	if len(matches) != 4 {
		return "", fmt.Errorf("no date in chart title %q", title)
	}
	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

func pricesFromChart(chart chartData) ([]types.EnergyPrice, error) {
	date, err := dateFromTitle(chart.Graph.Title)
	if err != nil {
		return nil, err
	}

	type slot struct {
		price    sql.NullFloat64
		quantity sql.NullFloat64
	}
	slots := make(map[uint8]*slot)
	getSlot := func(hour uint8) *slot {
		if s, ok := slots[hour]; ok {
			return s
		}
		s := &slot{}
		slots[hour] = s
		return s
	}

	for _, line := range chart.Data.DataLine {
		for _, p := range line.Point {
			x, err := strconv.Atoi(p.X)
			if err != nil || x < 1 || x > 24 {
				continue
			}
			hour := uint8(x - 1) // OTE numbers hours 1..24
			if p.Y == nil {
				continue
			}
			switch line.Title {
			case priceLineTitle:
				getSlot(hour).price = sql.NullFloat64{Float64: *p.Y, Valid: true}
			case quantityLineTitle:
				getSlot(hour).quantity = sql.NullFloat64{Float64: *p.Y, Valid: true}
			}
		}
	}

	var prices []types.EnergyPrice
	for hour := uint8(0); hour < 24; hour++ {
		s, ok := slots[hour]
		if !ok || !s.price.Valid {
			continue // hours the market published nothing for stay absent
		}
		prices = append(prices, types.EnergyPrice{
			Hour:     hours.DateHour{Date: date, Hour: hour},
			Price:    s.price.Float64,
			Quantity: s.quantity.Float64,
		})
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices in chart data for %s", date)
	}

	return prices, nil
}
