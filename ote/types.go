package ote

// Wire types for the OTE-ČR day-ahead market chart-data endpoint.

type chartData struct {
	Graph struct {
		Title string `json:"title"`
	} `json:"graph"`
	Data struct {
		DataLine []dataLine `json:"dataLine"`
	} `json:"data"`
}

type dataLine struct {
	Title string  `json:"title"`
	Point []point `json:"point"`
}

type point struct {
	X string   `json:"x"`
	Y *float64 `json:"y"`
}

const (
	priceLineTitle    = "Cena (EUR/MWh)"
	quantityLineTitle = "Množství (MWh)"
)
